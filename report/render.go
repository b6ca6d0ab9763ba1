package report

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RenderTable renders the report as a markdown table followed by the
// coverage summary, notes, and the final verdict line. Output is
// byte-identical across runs for identical input.
func (r *Report) RenderTable() string {
	var sb strings.Builder

	sb.WriteString("## Analysis Report\n\n")

	if len(r.Issues) == 0 {
		sb.WriteString("No issues found.\n\n")
	} else {
		sb.WriteString("| ID | Category | Severity | Location | Summary | Recommendation |\n")
		sb.WriteString("|----|----------|----------|----------|---------|----------------|\n")
		for _, issue := range r.Issues {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s |\n",
				issue.ID,
				issue.Category,
				issue.Severity,
				issue.Location,
				escapeCell(issue.Summary),
				escapeCell(issue.Recommendation)))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Coverage\n\n")
	sb.WriteString(fmt.Sprintf("- Requirements: %d/%d covered (%d%%)\n",
		r.Coverage.CoveredRequirements, r.Coverage.TotalRequirements, r.Coverage.Percentage))
	sb.WriteString(fmt.Sprintf("- Tasks: %d/%d mapped\n",
		r.Coverage.MappedTasks, r.Coverage.TotalTasks))
	sb.WriteString(fmt.Sprintf("- Threshold: %d%%\n", r.Threshold))
	sb.WriteString("\n")

	for _, note := range r.Notes {
		sb.WriteString(fmt.Sprintf("INFO: %s\n", note))
	}
	if len(r.Notes) > 0 {
		sb.WriteString("\n")
	}

	sb.WriteString(string(r.Verdict))
	sb.WriteString("\n")

	return sb.String()
}

// RenderJSON renders the report as indented canonical JSON.
func (r *Report) RenderJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// escapeCell keeps pipe characters from breaking the markdown table.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
