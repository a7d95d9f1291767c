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

package middlewares

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/l3montree-dev/vulnwatch/shared"
)

// SessionMiddleware resolves the bearer token to a user session. SSE clients
// cannot set headers on an EventSource, so the token may alternatively be
// passed as the "token" query parameter.
func SessionMiddleware(tokenVerifier shared.TokenVerifier) shared.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx shared.Context) error {
			token := strings.TrimPrefix(ctx.Request().Header.Get("Authorization"), "Bearer ")
			if token == "" {
				token = ctx.QueryParam("token")
			}

			user, err := tokenVerifier.VerifyToken(ctx.Request().Context(), token)
			if err != nil {
				return echo.NewHTTPError(401, "could not verify token").WithInternal(err)
			}

			shared.SetSession(ctx, shared.NewSession(user))
			return next(ctx)
		}
	}
}
