// Package report renders check runs and run history for tools outside the
// terminal: SARIF for code-scanning uploads and TSV/JSON for trend charts.
package report

import (
	"encoding/json"
	"path/filepath"
	"sort"
	"strings"

	"kite/internal/core/app"
	"kite/internal/engine/checker"
	"kite/internal/engine/imports"
)

// SARIF v2.1.0 schema – see https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json

const (
	sarifSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
	sarifVersion = "2.1.0"

	ruleImportCycle = "import-cycle"
	ruleReadFailure = "read-failure"
)

var ruleDescriptions = map[string]string{
	checker.CodeUnresolved:           "A referenced name does not resolve to any declaration.",
	checker.CodeTypeMismatch:         "A value does not match its declared type.",
	checker.CodeShadowed:             "A declaration hides one from an enclosing scope.",
	imports.IssueBrokenPath.String(): "An import path does not resolve to a file.",
	imports.IssueEmptyPath.String():  "An import statement has an empty path.",
	imports.IssueOrder.String():      "An import appears after other statements.",
	imports.IssueUnused.String():     "An imported name is never used.",
	imports.IssueDuplicate.String():  "A file is imported more than once.",
	ruleImportCycle:                  "Files import each other in a cycle.",
	ruleReadFailure:                  "A file could not be read or analysed.",
}

type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string                 `json:"id"`
	ShortDescription sarifMessage           `json:"shortDescription"`
	DefaultConfig    sarifRuleDefaultConfig `json:"defaultConfiguration"`
}

type sarifRuleDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine,omitempty"`
	StartColumn int `json:"startColumn,omitempty"`
}

// SARIF builds a SARIF v2.1.0 document from a check report. File URIs are
// relative to projectRoot.
func SARIF(projectRoot, toolVersion string, r app.Report) ([]byte, error) {
	levels := map[string]string{}
	results := make([]sarifResult, 0, len(r.Findings)+len(r.Cycles)+len(r.Failures))

	for _, f := range r.Findings {
		level := sarifLevel(f.Severity)
		if prev, ok := levels[f.Code]; !ok || prev == "warning" {
			levels[f.Code] = level
		}
		results = append(results, sarifResult{
			RuleID:    f.Code,
			Level:     level,
			Message:   sarifMessage{Text: f.Message},
			Locations: []sarifLocation{fileLocation(projectRoot, f.Path, f.Line, f.Column)},
		})
	}

	for _, cycle := range r.Cycles {
		if len(cycle) == 0 {
			continue
		}
		levels[ruleImportCycle] = "warning"
		names := make([]string, len(cycle))
		for i, p := range cycle {
			names[i] = relativeURI(projectRoot, p)
		}
		results = append(results, sarifResult{
			RuleID:    ruleImportCycle,
			Level:     "warning",
			Message:   sarifMessage{Text: "Import cycle: " + strings.Join(names, " -> ")},
			Locations: []sarifLocation{fileLocation(projectRoot, cycle[0], 0, 0)},
		})
	}

	for _, fe := range r.Failures {
		levels[ruleReadFailure] = "error"
		results = append(results, sarifResult{
			RuleID:    ruleReadFailure,
			Level:     "error",
			Message:   sarifMessage{Text: fe.Err.Error()},
			Locations: []sarifLocation{fileLocation(projectRoot, fe.Path, 0, 0)},
		})
	}

	doc := sarifReport{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{{
			Tool: sarifTool{Driver: sarifDriver{
				Name:    "kite",
				Version: toolVersion,
				Rules:   buildRules(levels),
			}},
			Results: results,
		}},
	}
	return json.MarshalIndent(doc, "", "  ")
}

// buildRules returns only the rules that produced a result, ordered by id.
func buildRules(levels map[string]string) []sarifRule {
	ids := make([]string, 0, len(levels))
	for id := range levels {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	rules := make([]sarifRule, 0, len(ids))
	for _, id := range ids {
		desc, ok := ruleDescriptions[id]
		if !ok {
			desc = id
		}
		rules = append(rules, sarifRule{
			ID:               id,
			ShortDescription: sarifMessage{Text: desc},
			DefaultConfig:    sarifRuleDefaultConfig{Level: levels[id]},
		})
	}
	return rules
}

func sarifLevel(s checker.Severity) string {
	if s == checker.SeverityError {
		return "error"
	}
	return "warning"
}

func fileLocation(projectRoot, path string, line, column int) sarifLocation {
	loc := sarifLocation{PhysicalLocation: sarifPhysicalLocation{
		ArtifactLocation: sarifArtifactLocation{URI: relativeURI(projectRoot, path), URIBaseID: "%SRCROOT%"},
	}}
	if line > 0 {
		loc.PhysicalLocation.Region = &sarifRegion{StartLine: line, StartColumn: column}
	}
	return loc
}

// relativeURI converts an absolute file path to a forward-slash URI anchored
// at projectRoot. Paths outside the root are kept as they are.
func relativeURI(projectRoot, filePath string) string {
	if projectRoot != "" && filepath.IsAbs(filePath) {
		if rel, err := filepath.Rel(projectRoot, filePath); err == nil && !strings.HasPrefix(rel, "..") {
			filePath = rel
		}
	}
	return filepath.ToSlash(filePath)
}
