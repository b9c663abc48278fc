package decision

import (
	"fmt"
	"strings"
)

// RenderMarkdown renders a Result as a Markdown string.
func RenderMarkdown(result *Result) string {
	var sb strings.Builder

	sb.WriteString("# Promotion Gate Report\n\n")
	sb.WriteString(fmt.Sprintf("## Verdict: %s\n\n", result.Outcome))

	sb.WriteString("## Promote Criteria\n\n")
	sb.WriteString("| # | Criterion | Threshold | Actual | Pass |\n")
	sb.WriteString("|---|-----------|-----------|--------|------|\n")
	for i, c := range result.PromoteCriteria {
		passStr := "PASS"
		if !c.Pass {
			passStr = "FAIL"
		}
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n",
			i+1, c.Name, c.Threshold, c.Actual, passStr))
	}
	sb.WriteString("\n")

	passed := 0
	for _, c := range result.PromoteCriteria {
		if c.Pass {
			passed++
		}
	}
	sb.WriteString(fmt.Sprintf("Promote criteria: %d/%d passed\n\n", passed, len(result.PromoteCriteria)))

	sb.WriteString("## Keep Triggers\n\n")
	sb.WriteString("| # | Trigger | Condition | Actual | Status |\n")
	sb.WriteString("|---|---------|-----------|--------|--------|\n")
	for i, c := range result.KeepTriggers {
		statusStr := "NOT TRIGGERED"
		if !c.Pass { // Pass=false means triggered
			statusStr = "TRIGGERED"
		}
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n",
			i+1, c.Name, c.Threshold, c.Actual, statusStr))
	}
	sb.WriteString("\n")

	triggered := 0
	for _, c := range result.KeepTriggers {
		if !c.Pass {
			triggered++
		}
	}
	sb.WriteString(fmt.Sprintf("Keep triggers: %d/%d triggered\n\n", triggered, len(result.KeepTriggers)))

	sb.WriteString("## Summary\n\n")
	switch result.Outcome {
	case OutcomePromote:
		sb.WriteString("All promote criteria passed and no keep triggers fired.\n")
	case OutcomeKeep:
		sb.WriteString("Verdict is KEEP due to:\n")
		for _, c := range result.KeepTriggers {
			if !c.Pass {
				sb.WriteString(fmt.Sprintf("- Trigger fired: %s (actual: %s)\n", c.Name, c.Actual))
			}
		}
	default:
		sb.WriteString("Verdict is INCONCLUSIVE due to:\n")
		for _, c := range result.PromoteCriteria {
			if !c.Pass {
				sb.WriteString(fmt.Sprintf("- Criterion failed: %s (actual: %s)\n", c.Name, c.Actual))
			}
		}
	}

	return sb.String()
}
