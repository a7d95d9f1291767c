package dtos

import (
	"strings"
	"time"
)

type OSVPackage struct {
	Name      string `json:"name,omitempty"`
	Ecosystem string `json:"ecosystem,omitempty"`
	Purl      string `json:"purl,omitempty"`
}

// OSVQuery is the request body of POST https://api.osv.dev/v1/query.
type OSVQuery struct {
	Package OSVPackage `json:"package"`
	Version string     `json:"version,omitempty"`
}

type OSVSeverity struct {
	Type  string `json:"type"`
	Score string `json:"score"`
}

type OSV struct {
	ID               string         `json:"id"`
	Summary          string         `json:"summary"`
	Details          string         `json:"details"`
	Modified         time.Time      `json:"modified"`
	Published        time.Time      `json:"published"`
	Aliases          []string       `json:"aliases"`
	Severity         []OSVSeverity  `json:"severity"`
	DatabaseSpecific map[string]any `json:"database_specific"`
}

type OSVQueryResponse struct {
	Vulns []OSV `json:"vulns"`
}

func (osv OSV) GetAssociatedCVE() *string {
	if strings.HasPrefix(osv.ID, "CVE-") {
		id := osv.ID
		return &id
	}
	for _, alias := range osv.Aliases {
		if strings.HasPrefix(alias, "CVE-") {
			return &alias
		}
	}
	return nil
}
