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

package vulndb

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/package-url/packageurl-go"
	"github.com/pkg/errors"

	"github.com/l3montree-dev/vulnwatch/dtos"
)

var osvQueryURL = "https://api.osv.dev/v1/query"

// lookupTimeout bounds a single advisory lookup so one slow upstream call
// cannot stall an entire scan.
const lookupTimeout = 8 * time.Second

// purl types per ecosystem, for the OSV purl based query form.
var purlTypes = map[string]string{
	"npm":       packageurl.TypeNPM,
	"PyPI":      packageurl.TypePyPi,
	"RubyGems":  packageurl.TypeGem,
	"Packagist": packageurl.TypeComposer,
	"Go":        packageurl.TypeGolang,
	"Maven":     packageurl.TypeMaven,
}

type osvClient struct {
	httpClient *http.Client
	queryURL   string
}

// NewOSVClient returns the advisory lookup client. It FAILS OPEN: any
// network, status or parse failure yields an empty result instead of an
// error. That is a deliberate product tradeoff - an incomplete scan beats
// an aborted one - and must not be silently converted to fail-closed.
func NewOSVClient() *osvClient {
	return &osvClient{
		httpClient: &http.Client{Timeout: lookupTimeout},
		queryURL:   osvQueryURL,
	}
}

// Lookup queries the advisory source for a single declared package version.
func (c *osvClient) Lookup(ctx context.Context, name, version, ecosystem string) []dtos.VulnInPackage {
	resp, err := c.query(ctx, name, version, ecosystem)
	if err != nil {
		slog.Warn("advisory lookup failed, treating dependency as having no known issues", "package", name, "version", version, "err", err)
		return []dtos.VulnInPackage{}
	}

	vulns := make([]dtos.VulnInPackage, 0, len(resp.Vulns))
	for _, osv := range resp.Vulns {
		vulns = append(vulns, normalizeOSV(osv))
	}
	return vulns
}

func (c *osvClient) query(ctx context.Context, name, version, ecosystem string) (dtos.OSVQueryResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	query := dtos.OSVQuery{Version: version}
	if purlType, ok := purlTypes[ecosystem]; ok {
		purl := packageurl.NewPackageURL(purlType, "", name, "", nil, "")
		query.Package = dtos.OSVPackage{Purl: purl.ToString()}
	} else {
		query.Package = dtos.OSVPackage{Name: name}
	}

	body, err := json.Marshal(query)
	if err != nil {
		return dtos.OSVQueryResponse{}, errors.Wrap(err, "could not marshal osv query")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.queryURL, bytes.NewReader(body))
	if err != nil {
		return dtos.OSVQueryResponse{}, errors.Wrap(err, "could not create request")
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return dtos.OSVQueryResponse{}, errors.Wrap(err, "could not query advisory source")
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return dtos.OSVQueryResponse{}, errors.Errorf("advisory source returned status %d", res.StatusCode)
	}

	var response dtos.OSVQueryResponse
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return dtos.OSVQueryResponse{}, errors.Wrap(err, "could not decode advisory response")
	}

	return response, nil
}

func normalizeOSV(osv dtos.OSV) dtos.VulnInPackage {
	title := osv.Summary
	if title == "" {
		title = osv.ID
	}

	return dtos.VulnInPackage{
		Title:       title,
		Description: osv.Details,
		Severity:    severityFromOSV(osv),
		CVEID:       osv.GetAssociatedCVE(),
	}
}
