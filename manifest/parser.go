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

// Package manifest normalizes ecosystem specific dependency manifests into
// plain name/version pairs. Parse never fails: malformed input yields an
// empty result. Version range specifiers (^1.2.3, ~2.0, >=1.0) are taken
// verbatim and NOT resolved - a documented limitation, not a bug.
package manifest

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"regexp"
	"strings"
)

// Dependency is one declared package. Ecosystem matches the OSV ecosystem
// naming (npm, PyPI, RubyGems, Packagist, Go, Maven); empty when the
// fallback line parser produced the entry.
type Dependency struct {
	Name      string
	Version   string
	Ecosystem string
}

// Parse dispatches on the filename hint and falls back to line based
// name==version parsing when no known format matches. An empty result is
// valid - rejecting it as "nothing to scan" is the caller's decision.
func Parse(content []byte, filenameHint string) []Dependency {
	switch {
	case strings.HasSuffix(filenameHint, "package.json"):
		return parseJSONManifest(content, "npm", "dependencies")
	case strings.HasSuffix(filenameHint, "requirements.txt"):
		return parseLineManifest(content, "PyPI")
	case strings.HasSuffix(filenameHint, "Gemfile"):
		return parseGemfile(content)
	case strings.HasSuffix(filenameHint, "composer.json"):
		return parseJSONManifest(content, "Packagist", "require")
	case strings.HasSuffix(filenameHint, "go.mod"):
		return parseGoMod(content)
	case strings.HasSuffix(filenameHint, "pom.xml"):
		return parsePomXML(content)
	case strings.HasPrefix(strings.TrimSpace(string(content)), "{"):
		// unnamed JSON upload - try both map keys
		return parseJSONManifest(content, "", "dependencies", "require")
	default:
		return parseLineManifest(content, "")
	}
}

// parseJSONManifest extracts the first present map out of keys, preserving
// the declaration order of the document.
func parseJSONManifest(content []byte, ecosystem string, keys ...string) []Dependency {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil
	}

	for _, key := range keys {
		raw, ok := doc[key]
		if !ok {
			continue
		}
		return decodeOrderedMap(raw, ecosystem)
	}
	return nil
}

// decodeOrderedMap walks the raw object token by token since unmarshalling
// into a Go map would destroy the declaration order the scan contract
// guarantees.
func decodeOrderedMap(raw json.RawMessage, ecosystem string) []Dependency {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil
	}

	var dependencies []Dependency
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return dependencies
		}
		name, ok := keyTok.(string)
		if !ok {
			return dependencies
		}

		valTok, err := dec.Token()
		if err != nil {
			return dependencies
		}
		// non-string values (nested objects in exotic manifests) are skipped
		version, ok := valTok.(string)
		if !ok {
			continue
		}

		dependencies = append(dependencies, Dependency{Name: name, Version: version, Ecosystem: ecosystem})
	}
	return dependencies
}

// parseLineManifest handles requirements.txt style name==version lines and
// doubles as the fallback heuristic for unrecognized uploads.
func parseLineManifest(content []byte, ecosystem string) []Dependency {
	var dependencies []Dependency
	for _, line := range strings.Split(string(content), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		name, version, _ := strings.Cut(line, "==")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		dependencies = append(dependencies, Dependency{
			Name:      name,
			Version:   strings.TrimSpace(version),
			Ecosystem: ecosystem,
		})
	}
	return dependencies
}

var gemLineRegex = regexp.MustCompile(`^gem ['"]([^'"]+)['"](?:,\s*['"]([^'"]*)['"])?`)

func parseGemfile(content []byte) []Dependency {
	var dependencies []Dependency
	for _, line := range strings.Split(string(content), "\n") {
		if !strings.HasPrefix(line, "gem ") {
			continue
		}
		match := gemLineRegex.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		dependencies = append(dependencies, Dependency{
			Name:      match[1],
			Version:   match[2],
			Ecosystem: "RubyGems",
		})
	}
	return dependencies
}

func parseGoMod(content []byte) []Dependency {
	var dependencies []Dependency
	for _, line := range strings.Split(string(content), "\n") {
		if !strings.HasPrefix(line, "require ") {
			continue
		}
		fields := strings.Fields(strings.TrimPrefix(line, "require "))
		if len(fields) == 0 {
			continue
		}
		dependency := Dependency{Name: fields[0], Ecosystem: "Go"}
		if len(fields) > 1 {
			dependency.Version = fields[1]
		}
		dependencies = append(dependencies, dependency)
	}
	return dependencies
}

type pomProject struct {
	XMLName      xml.Name `xml:"project"`
	Dependencies struct {
		Dependency []struct {
			ArtifactID string `xml:"artifactId"`
			Version    string `xml:"version"`
		} `xml:"dependency"`
	} `xml:"dependencies"`
}

func parsePomXML(content []byte) []Dependency {
	var project pomProject
	if err := xml.Unmarshal(content, &project); err != nil {
		return nil
	}

	var dependencies []Dependency
	for _, dep := range project.Dependencies.Dependency {
		// a node missing either child carries no usable coordinate
		if dep.ArtifactID == "" || dep.Version == "" {
			continue
		}
		dependencies = append(dependencies, Dependency{
			Name:      dep.ArtifactID,
			Version:   dep.Version,
			Ecosystem: "Maven",
		})
	}
	return dependencies
}
