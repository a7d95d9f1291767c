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

package services

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/pkg/errors"

	"github.com/l3montree-dev/vulnwatch/shared"
)

type sesMailer struct {
	client *sesv2.Client
	sender string
}

// NewMailer returns the SES backed mailer, or a logging no-op when
// EMAIL_ENABLED is not "true" (local development, CI).
func NewMailer() (shared.Mailer, error) {
	if os.Getenv("EMAIL_ENABLED") != "true" {
		slog.Info("email delivery disabled, using no-op mailer")
		return noopMailer{}, nil
	}

	cfg, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		return nil, errors.Wrap(err, "could not load aws config")
	}

	sender := os.Getenv("EMAIL_SENDER")
	if sender == "" {
		sender = "noreply@vulnwatch.dev"
	}

	return &sesMailer{
		client: sesv2.NewFromConfig(cfg),
		sender: sender,
	}, nil
}

func (m *sesMailer) Send(ctx context.Context, to string, subject string, body string) error {
	_, err := m.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.sender),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body)},
				},
			},
		},
	})
	return errors.Wrap(err, "could not send email via ses")
}

type noopMailer struct{}

func (noopMailer) Send(ctx context.Context, to string, subject string, body string) error {
	slog.Debug("email suppressed", "to", to, "subject", subject)
	return nil
}
