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

	"github.com/pkg/errors"

	"github.com/l3montree-dev/vulnwatch/database/models"
	"github.com/l3montree-dev/vulnwatch/shared"
)

type tokenService struct {
	userRepository shared.UserRepository
}

// NewTokenService resolves bearer tokens against the mirrored user table.
// Token issuance and rotation happen in the external auth service.
func NewTokenService(userRepository shared.UserRepository) *tokenService {
	return &tokenService{userRepository: userRepository}
}

func (s *tokenService) VerifyToken(ctx context.Context, token string) (models.User, error) {
	if token == "" {
		return models.User{}, errors.New("empty token")
	}

	user, err := s.userRepository.ReadByAPIToken(token)
	if err != nil {
		return models.User{}, errors.Wrap(err, "could not resolve token")
	}
	return user, nil
}
