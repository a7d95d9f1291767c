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

import "github.com/pkg/errors"

// sentinel errors the controllers map to http status codes.
var (
	// ErrNotProjectOwner is also returned for projects that do not exist,
	// so the api does not leak which project ids are taken.
	ErrNotProjectOwner = errors.New("user does not own this project")
	ErrEmptyManifest   = errors.New("no dependencies found in manifest")
)
