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

package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/l3montree-dev/vulnwatch/dtos"
)

// sseSink writes events as server sent event frames onto the live response.
// Send is called from dispatcher goroutines and the heartbeat, so writes are
// serialized with a mutex.
type sseSink struct {
	mu  sync.Mutex
	ctx context.Context
	res *echo.Response
}

func newSSESink(ctx context.Context, res *echo.Response) *sseSink {
	return &sseSink{ctx: ctx, res: res}
}

func (s *sseSink) Send(event dtos.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(s.res, "data: %s\n\n", payload); err != nil {
		return err
	}
	s.res.Flush()
	return nil
}

func (s *sseSink) Close() {
	// nothing to release - the http connection closes when the stream
	// handler returns
}
