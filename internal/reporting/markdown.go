package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders a report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# Experiment Report: %s\n\n", r.Experiment.Name))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	// Experiment summary
	sb.WriteString("## Experiment\n\n")
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| ID | %s |\n", r.Experiment.ShortID))
	sb.WriteString(fmt.Sprintf("| Name | %s |\n", r.Experiment.Name))
	if r.Experiment.Description != "" {
		sb.WriteString(fmt.Sprintf("| Description | %s |\n", r.Experiment.Description))
	}
	sb.WriteString(fmt.Sprintf("| Status | %s |\n", r.Experiment.Status))
	sb.WriteString(fmt.Sprintf("| Baseline | %s |\n", r.Experiment.BaselineID))
	sb.WriteString(fmt.Sprintf("| Variants | %d |\n", r.Experiment.VariantCount))
	sb.WriteString(fmt.Sprintf("| Created (ms) | %d |\n", r.Experiment.CreatedAt))
	sb.WriteString("\n")

	// Aggregates
	sb.WriteString("## Variant Aggregates\n\n")
	if len(r.Aggregates) > 0 {
		sb.WriteString("| Variant | Kind | N | Mean | Median | StdDev | Min | Max | P95 | P99 |\n")
		sb.WriteString("|---------|------|---|------|--------|--------|-----|-----|-----|-----|\n")
		for _, a := range r.Aggregates {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f |\n",
				a.VariantID, a.Kind, a.SampleCount,
				a.Mean, a.Median, a.StdDev, a.Min, a.Max, a.P95, a.P99))
		}
	} else {
		sb.WriteString("No aggregates available.\n")
	}
	sb.WriteString("\n")

	// Comparisons
	sb.WriteString("## Comparisons vs Baseline\n\n")
	if len(r.Comparisons) > 0 {
		sb.WriteString("| Candidate | Method | Kind | p | Effect | CI | P(cand>base) | Decision |\n")
		sb.WriteString("|-----------|--------|------|---|--------|----|--------------|----------|\n")
		for _, c := range r.Comparisons {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %.4f | %.4f | [%.4f, %.4f] | %.4f | %s |\n",
				c.CandidateID, c.Method, c.Kind,
				c.PValue, c.EffectSize, c.CILow, c.CIHigh,
				c.ProbCandidateBeats, c.Decision))
		}
	} else {
		sb.WriteString("No comparisons available.\n")
	}
	sb.WriteString("\n")

	// Verdicts
	sb.WriteString("## Promotion Verdicts\n\n")
	if len(r.Verdicts) > 0 {
		sb.WriteString("| Candidate | Verdict |\n")
		sb.WriteString("|-----------|--------|\n")
		for _, v := range r.Verdicts {
			sb.WriteString(fmt.Sprintf("| %s | %s |\n", v.CandidateID, v.Result.Outcome))
		}
	} else {
		sb.WriteString("No verdicts available.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}
