// Copyright (C) 2025 l3montree GmbH
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/l3montree-dev/vulnwatch/client"
	"github.com/l3montree-dev/vulnwatch/dtos"
	"github.com/l3montree-dev/vulnwatch/shared"
	"github.com/l3montree-dev/vulnwatch/utils"
)

func NewSubscribeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "subscribe",
		Short: "Follow the realtime notification stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiURL := viper.GetString("apiUrl")
			if err := shared.V.Var(apiURL, "required,url"); err != nil {
				return errors.Wrap(err, "invalid api url")
			}
			token := viper.GetString("token")
			if token == "" {
				return errors.New("no api token provided, use --token or VULNWATCH_TOKEN")
			}

			subscriber := client.NewSubscriber(apiURL, token)
			subscriber.OnEvent = printEvent

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			err := subscriber.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func printEvent(event dtos.Event) {
	switch event.Type {
	case dtos.EventTypeConnected:
		slog.Info("connected to notification stream")
	case dtos.EventTypeNewNotification:
		if event.Notification != nil {
			slog.Info("new notification", "type", event.Notification.Type, "message", event.Notification.Message)
		}
	case dtos.EventTypeUnreadCount:
		slog.Info("unread notifications", "count", utils.OrDefault(event.Count, 0))
	case dtos.EventTypeHeartbeat:
		slog.Debug("heartbeat")
	default:
		slog.Debug("unknown event", "type", event.Type)
	}
}
