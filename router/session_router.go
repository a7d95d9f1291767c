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

package router

import (
	"github.com/labstack/echo/v4"

	"github.com/l3montree-dev/vulnwatch/middlewares"
	"github.com/l3montree-dev/vulnwatch/shared"
)

// SessionRouter is the authenticated subtree - everything below requires a
// valid bearer token.
type SessionRouter struct {
	*echo.Group
}

func NewSessionRouter(apiV1Router APIV1Router, tokenVerifier shared.TokenVerifier) SessionRouter {
	sessionRouter := apiV1Router.Group.Group("", middlewares.SessionMiddleware(tokenVerifier))

	sessionRouter.GET("/whoami/", func(c shared.Context) error {
		return c.JSON(200, map[string]string{
			"userId": shared.GetSession(c).GetUserID().String(),
		})
	})

	return SessionRouter{Group: sessionRouter}
}
