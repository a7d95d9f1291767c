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

package utils

import (
	"log/slog"
	"sync"
)

// FireAndForgetSynchronizer runs side effects that must never fail the
// triggering request (email delivery, realtime pushes). Tests swap in the
// synchronous implementation to assert on the side effects.
type FireAndForgetSynchronizer interface {
	FireAndForget(f func())
}

type fireAndForgetSynchronizer struct {
	wg sync.WaitGroup
}

func NewFireAndForgetSynchronizer() *fireAndForgetSynchronizer {
	return &fireAndForgetSynchronizer{}
}

func (s *fireAndForgetSynchronizer) FireAndForget(f func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("panic in fire and forget task", "panic", r)
			}
		}()
		f()
	}()
}

// Wait blocks until all started tasks finished. Used on shutdown.
func (s *fireAndForgetSynchronizer) Wait() {
	s.wg.Wait()
}

// SyncFireAndForgetSynchronizer executes inline. Only meant for tests.
type SyncFireAndForgetSynchronizer struct{}

func (SyncFireAndForgetSynchronizer) FireAndForget(f func()) {
	f()
}
