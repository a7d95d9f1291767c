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
	"io"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/l3montree-dev/vulnwatch/services"
	"github.com/l3montree-dev/vulnwatch/shared"
)

// manifests are small text files - reject anything bigger before parsing
const maxManifestSize = 5 << 20 // 5 MB

type ScanController struct {
	scanService shared.ScanService
}

func NewScanController(scanService shared.ScanService) *ScanController {
	return &ScanController{scanService: scanService}
}

// Scan accepts a dependency manifest as multipart upload and runs a full
// scan on it synchronously. The response contains one entry per declared
// dependency, in declaration order.
func (s *ScanController) Scan(c shared.Context) error {
	session := shared.GetSession(c)

	projectID, err := shared.GetProjectID(c)
	if err != nil {
		return err
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(400, "missing manifest file").WithInternal(err)
	}
	if fileHeader.Size > maxManifestSize {
		return echo.NewHTTPError(400, "manifest file too large")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(400, "could not open manifest file").WithInternal(err)
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxManifestSize))
	if err != nil {
		return echo.NewHTTPError(400, "could not read manifest file").WithInternal(err)
	}

	response, err := s.scanService.RunScan(c.Request().Context(), session.GetUserID(), projectID, fileHeader.Filename, content)
	if err != nil {
		return scanError(err)
	}

	return c.JSON(200, response)
}

func (s *ScanController) Results(c shared.Context) error {
	session := shared.GetSession(c)

	projectID, err := shared.GetProjectID(c)
	if err != nil {
		return err
	}

	results, err := s.scanService.GetScanResults(session.GetUserID(), projectID)
	if err != nil {
		return scanError(err)
	}

	return c.JSON(200, results)
}

func (s *ScanController) Stats(c shared.Context) error {
	session := shared.GetSession(c)

	projectID, err := shared.GetProjectID(c)
	if err != nil {
		return err
	}

	stats, err := s.scanService.GetScanStats(session.GetUserID(), projectID)
	if err != nil {
		return scanError(err)
	}

	return c.JSON(200, stats)
}

func (s *ScanController) History(c shared.Context) error {
	session := shared.GetSession(c)

	projectID, err := shared.GetProjectID(c)
	if err != nil {
		return err
	}

	history, err := s.scanService.GetScanHistory(session.GetUserID(), projectID)
	if err != nil {
		return scanError(err)
	}

	return c.JSON(200, history)
}

func scanError(err error) error {
	switch {
	case errors.Is(err, services.ErrNotProjectOwner):
		return echo.NewHTTPError(403, "you do not own this project")
	case errors.Is(err, services.ErrEmptyManifest):
		return echo.NewHTTPError(400, "no dependencies found in manifest")
	default:
		return echo.NewHTTPError(500, "could not process scan").WithInternal(err)
	}
}
