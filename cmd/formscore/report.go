package main

import (
	"fmt"
	"html/template"
	"io"
	"math"
	"os"

	"github.com/ayusman/formcheck/internal/posture"
)

var reportFuncs = template.FuncMap{
	"pct": func(n, total int) float64 {
		if total == 0 {
			return 0
		}
		return 100 * float64(n) / float64(total)
	},
	"tier": func(mean float64) string {
		return string(posture.Recommend(int(math.Round(mean))).Tier)
	},
}

var reportTemplate = template.Must(template.New("report").Funcs(reportFuncs).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Exercise}} form report</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem auto; max-width: 52rem; color: #222; }
.score { font-size: 3rem; font-weight: 700; }
.intensive { color: #c62828; } .moderate { color: #ef6c00; } .maintenance { color: #2e7d32; }
table { border-collapse: collapse; width: 100%; } td, th { padding: .4rem .6rem; border-bottom: 1px solid #ddd; text-align: left; }
.bars { display: flex; align-items: flex-end; gap: 1px; height: 6rem; }
.bars span { flex: 1; background: #90a4ae; }
</style>
</head>
<body>
<h1>{{.Exercise}}</h1>
<p>{{.Frames}} frames, {{.Scored}} scored, {{.Skipped}} not scorable, {{.Invalid}} invalid.</p>
{{if .Scored}}
<p class="score {{tier .Mean}}">{{printf "%.1f" .Mean}}</p>
<p>Range {{.Min}} to {{.Max}}.</p>
<div class="bars">{{range .Scores}}<span style="height: {{.}}%"></span>{{end}}</div>
{{else}}
<p>No frame could be scored. Check that the whole body is in view.</p>
{{end}}
{{if .Cues}}
<h2>Cues</h2>
<table>
<tr><th>Cue</th><th>Frames</th><th>Share</th></tr>
{{range .Cues}}<tr><td>{{.Cue}}</td><td>{{.Count}}</td><td>{{printf "%.0f" (pct .Count $.Frames)}}%</td></tr>
{{end}}</table>
{{end}}
{{with .Recommendation}}
<h2>Suggested plan</h2>
<p class="{{.Tier}}">{{.Tier}}: {{.DurationMinutes}} minutes, {{.Frequency}}</p>
<ul>{{range .Exercises}}<li>{{.}}</li>{{end}}</ul>
{{end}}
</body>
</html>
`))

// renderReport writes the HTML report for sum.
func renderReport(w io.Writer, sum Summary) error {
	return reportTemplate.Execute(w, sum)
}

// writeReport renders the report to path.
func writeReport(path string, sum Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer f.Close()

	if err := renderReport(f, sum); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return f.Close()
}
