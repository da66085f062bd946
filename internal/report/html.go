package report

import (
	"fmt"
	"html/template"
	"os"
	"strings"

	"qmskit/internal/trace"
)

// reportTemplate mirrors the layout quality reviewers already know from the
// legacy PDF report: header, coverage table, orphan list, items summary.
var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"truncate": truncateTitle,
	"join":     joinComma,
	"pct":      func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<title>Traceability Matrix Report</title>
<style>
body { font-family: Arial, sans-serif; margin: 20px; }
.header { text-align: center; margin-bottom: 30px; }
.section { margin-bottom: 30px; }
table { width: 100%; border-collapse: collapse; }
th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
th { background-color: #f2f2f2; }
.orphaned { color: red; font-weight: bold; }
</style>
</head>
<body>
<div class="header">
<h1>Traceability Matrix Report</h1>
<p>Generated: {{.Metadata.GeneratedAt}}</p>
<p>Total Items: {{.Metadata.TotalItems}}</p>
</div>

<div class="section">
<h2>Coverage Analysis</h2>
<table>
<tr><th>Metric</th><th>Value</th></tr>
<tr><td>Requirements With Design</td><td>{{.Coverage.RequirementsWithDesign}}</td></tr>
<tr><td>Requirements With Verification</td><td>{{.Coverage.RequirementsWithVerification}}</td></tr>
<tr><td>Requirements With Validation</td><td>{{.Coverage.RequirementsWithValidation}}</td></tr>
<tr><td>Designs With Verification</td><td>{{.Coverage.DesignsWithVerification}}</td></tr>
<tr><td>Risks With Mitigation</td><td>{{.Coverage.RisksWithMitigation}}</td></tr>
<tr><td>Coverage Percentage</td><td>{{pct .Coverage.CoveragePercentage}}</td></tr>
</table>
{{if .Coverage.OrphanedItems}}
<h3 class="orphaned">Orphaned Items (No Traceability)</h3>
<ul>
{{range .Coverage.OrphanedItems}}<li class="orphaned">{{.}}</li>
{{end}}</ul>
{{end}}
</div>

<div class="section">
<h2>Items Summary</h2>
<table>
<tr><th>ID</th><th>Type</th><th>Title</th><th>Status</th><th>Linked Items</th></tr>
{{range .Items}}<tr>
<td>{{.ID}}</td>
<td>{{.Type}}</td>
<td>{{truncate .Title}}</td>
<td>{{.Status}}</td>
<td>{{join .LinkedItems}}</td>
</tr>
{{end}}</table>
</div>
</body>
</html>
`))

const maxTitleRunes = 50

func truncateTitle(s string) string {
	r := []rune(s)
	if len(r) <= maxTitleRunes {
		return s
	}
	return string(r[:maxTitleRunes]) + "..."
}

func joinComma(items []string) string {
	return strings.Join(items, ", ")
}

// WriteHTML renders the standalone HTML report to path.
func WriteHTML(path string, m *trace.Matrix) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := reportTemplate.Execute(f, m); err != nil {
		_ = f.Close()
		return fmt.Errorf("render report: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
