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

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"

	"github.com/l3montree-dev/vulnwatch/controllers"
	"github.com/l3montree-dev/vulnwatch/daemons"
	"github.com/l3montree-dev/vulnwatch/database/models"
	"github.com/l3montree-dev/vulnwatch/database/repositories"
	"github.com/l3montree-dev/vulnwatch/middlewares"
	"github.com/l3montree-dev/vulnwatch/realtime"
	"github.com/l3montree-dev/vulnwatch/router"
	"github.com/l3montree-dev/vulnwatch/services"
	"github.com/l3montree-dev/vulnwatch/shared"
	"github.com/l3montree-dev/vulnwatch/vulndb"
)

func main() {
	shared.LoadConfig() // nolint: errcheck
	shared.InitLogger()

	db, err := shared.DatabaseFactory()
	if err != nil {
		slog.Error(err.Error())
		panic(errors.New("failed to setup database connection"))
	}

	if os.Getenv("DISABLE_AUTOMIGRATE") != "true" {
		slog.Info("running database migrations...")
		if err := models.RunMigrations(db); err != nil {
			slog.Error("failed to run database migrations", "err", err)
			panic(errors.New("failed to run database migrations"))
		}
	} else {
		slog.Info("automatic migrations disabled via DISABLE_AUTOMIGRATE=true")
	}

	fx.New(
		fx.Supply(db),
		fx.Provide(middlewares.Server),
		repositories.Module,
		vulndb.Module,
		realtime.Module,
		services.Module,
		controllers.Module,
		router.Module,
		daemons.Module,

		// invoke all routers so they register their routes
		fx.Invoke(func(SessionRouter router.SessionRouter) {}),
		fx.Invoke(func(ScanRouter router.ScanRouter) {}),
		fx.Invoke(func(NotificationRouter router.NotificationRouter) {}),
		fx.Invoke(startServer),
	).Run()
}

func startServer(lc fx.Lifecycle, e *echo.Echo) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
					slog.Error("failed to start server", "err", err)
					os.Exit(1)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return e.Shutdown(ctx)
		},
	})
}
