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

package shared

import (
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/l3montree-dev/vulnwatch/database/models"
)

type AuthSession interface {
	GetUserID() uuid.UUID
	GetUser() models.User
}

type userSession struct {
	user models.User
}

func (s userSession) GetUserID() uuid.UUID {
	return s.user.ID
}

func (s userSession) GetUser() models.User {
	return s.user
}

func NewSession(user models.User) AuthSession {
	return userSession{user: user}
}

func SetSession(ctx Context, session AuthSession) {
	ctx.Set("session", session)
}

// GetSession returns the session set by the session middleware. It panics if
// no session is present - routes without the middleware must not call it.
func GetSession(ctx Context) AuthSession {
	return ctx.Get("session").(AuthSession)
}

func GetProjectID(ctx Context) (uuid.UUID, error) {
	projectID, err := uuid.Parse(SanitizeParam(ctx.Param("projectID")))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(400, "invalid project id").WithInternal(err)
	}
	return projectID, nil
}

type PageInfo struct {
	PageSize int `json:"pageSize"`
	Page     int `json:"page"`
}

func (p PageInfo) ApplyOnDB(db DB) DB {
	return db.Offset((p.Page - 1) * p.PageSize).Limit(p.PageSize)
}

type Paged[T any] struct {
	PageInfo
	Total int64 `json:"total"`
	Data  []T   `json:"data"`
}

func (p Paged[T]) Map(f func(T) any) Paged[any] {
	data := make([]any, len(p.Data))
	for i, d := range p.Data {
		data[i] = f(d)
	}
	return Paged[any]{
		PageInfo: p.PageInfo,
		Total:    p.Total,
		Data:     data,
	}
}

func NewPaged[T any](pageInfo PageInfo, total int64, data []T) Paged[T] {
	return Paged[T]{
		PageInfo: pageInfo,
		Total:    total,
		Data:     data,
	}
}

func GetPageInfo(ctx Context) PageInfo {
	page, _ := strconv.Atoi(ctx.QueryParam("page"))
	if page <= 0 {
		page = 1
	}

	pageSize, _ := strconv.Atoi(ctx.QueryParam("pageSize"))
	switch {
	case pageSize > 100:
		pageSize = 100
	case pageSize <= 0:
		pageSize = 10
	}

	return PageInfo{
		Page:     page,
		PageSize: pageSize,
	}
}
