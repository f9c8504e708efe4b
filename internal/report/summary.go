// Package report builds the executive summary of a pipeline run.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ternarybob/condor/internal/models"
)

// Artifact is one table produced by the run.
type Artifact struct {
	Name string
	Path string
	Rows int
}

// Inputs carries what the summary reports on. Empty sections are omitted.
type Inputs struct {
	Title         string
	Artifacts     []Artifact
	Distribution  map[models.Personality]int
	Opportunities map[string]int
	Health        map[string]int
	TopPairs      []models.CorrelationPair
	Elbow         []models.ElbowPoint
}

var personalityOrder = []models.Personality{
	models.PersonalityTrendRocket,
	models.PersonalityValueTurtle,
	models.PersonalityUndecided,
}

// BuildSummary renders the markdown executive summary of run.
func BuildSummary(run *models.PipelineRun, in Inputs) string {
	var b strings.Builder

	title := in.Title
	if title == "" {
		title = "Executive Summary"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "- **Run:** `%s`\n", run.ID)
	fmt.Fprintf(&b, "- **Started:** %s\n", run.StartedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "- **Duration:** %s\n", run.Duration().Round(1e6))
	fmt.Fprintf(&b, "- **Stages completed:** %d of %d\n\n", run.Succeeded(), len(run.Stages))

	if len(run.Stages) > 0 {
		b.WriteString("## Stages\n\n")
		b.WriteString("| Stage | Status | Rows | Duration | Detail |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, s := range run.Stages {
			detail := s.Artifact
			if s.Error != "" {
				detail = s.Error
			}
			fmt.Fprintf(&b, "| %s | %s | %d | %s | %s |\n", s.Name, s.Status, s.Rows, s.Duration.Round(1e6), cell(detail))
		}
		b.WriteString("\n")
	}

	if len(in.Artifacts) > 0 {
		b.WriteString("## Artifacts\n\n")
		b.WriteString("| Table | File | Rows |\n")
		b.WriteString("|---|---|---|\n")
		for _, a := range in.Artifacts {
			fmt.Fprintf(&b, "| %s | %s | %d |\n", a.Name, cell(a.Path), a.Rows)
		}
		b.WriteString("\n")
	}

	if len(in.Distribution) > 0 {
		b.WriteString("## Personalities\n\n")
		b.WriteString("| Personality | Tickers |\n")
		b.WriteString("|---|---|\n")
		for _, p := range personalityOrder {
			fmt.Fprintf(&b, "| %s | %d |\n", p, in.Distribution[p])
		}
		b.WriteString("\n")
	}

	if len(in.Health) > 0 {
		b.WriteString("## Financial Health\n\n")
		b.WriteString("| Label | Records |\n")
		b.WriteString("|---|---|\n")
		for _, k := range sortedKeys(in.Health) {
			fmt.Fprintf(&b, "| %s | %d |\n", k, in.Health[k])
		}
		b.WriteString("\n")
	}

	if in.Opportunities != nil {
		b.WriteString("## Divergence Opportunities\n\n")
		if len(in.Opportunities) == 0 {
			b.WriteString("No opportunities matched any rule.\n\n")
		} else {
			b.WriteString("| Rule | Rows |\n")
			b.WriteString("|---|---|\n")
			for _, k := range sortedKeys(in.Opportunities) {
				fmt.Fprintf(&b, "| %s | %d |\n", k, in.Opportunities[k])
			}
			b.WriteString("\n")
		}
	}

	if len(in.TopPairs) > 0 {
		b.WriteString("## Strongest Correlations\n\n")
		b.WriteString("| A | B | r |\n")
		b.WriteString("|---|---|---|\n")
		for _, p := range in.TopPairs {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", p.A, p.B, decimal.NewFromFloat(p.R).StringFixed(4))
		}
		b.WriteString("\n")
	}

	if len(in.Elbow) > 0 {
		b.WriteString("## Elbow Curve\n\n")
		b.WriteString("| k | Inertia |\n")
		b.WriteString("|---|---|\n")
		for _, e := range in.Elbow {
			fmt.Fprintf(&b, "| %d | %s |\n", e.K, decimal.NewFromFloat(e.Inertia).StringFixed(2))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// cell escapes a value for a markdown table
func cell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", "/"), "\n", " ")
}
