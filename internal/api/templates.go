package api

import "html/template"

var indexTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>SEO Scout</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem auto; max-width: 720px; color: #1f2933; }
input[type=text], textarea { width: 100%; padding: 0.5rem; margin: 0.25rem 0 1rem; box-sizing: border-box; }
button { padding: 0.5rem 1.5rem; }
nav a { margin-right: 1rem; }
</style>
</head>
<body>
<h1>SEO Scout</h1>
<nav><a href="/">Analyze</a><a href="/history">History</a></nav>
<form method="post" action="/analyze">
<label for="url">URL</label>
<input type="text" id="url" name="url" placeholder="https://example.com">
<label for="batchUrls">Batch URLs (one per line)</label>
<textarea id="batchUrls" name="batchUrls" rows="4"></textarea>
<label><input type="checkbox" name="useAi" checked> Use AI analysis</label>
<p><button type="submit">Analyze</button></p>
</form>
</body>
</html>`))

var resultsTmpl = template.Must(template.New("results").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Analysis Results</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem auto; max-width: 960px; color: #1f2933; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #d2d6dc; padding: 0.5rem 0.75rem; text-align: left; }
th { background: #f5f7fa; }
.err { color: #db4437; }
</style>
</head>
<body>
<h1>Analysis Results</h1>
<p><a href="/">New analysis</a> | <a href="/history">History</a></p>
<table>
<tr><th>URL</th><th>Score</th><th>Critical</th><th>Warnings</th><th>Report</th></tr>
{{range .Rows}}
<tr>
<td>{{.URL}}</td>
{{if .Err}}<td colspan="4" class="err">{{.Err}}</td>
{{else}}<td>{{.Score}}</td><td>{{.Critical}}</td><td>{{.Warnings}}</td>
<td><a href="/report/{{.AnalysisID}}">view</a> | <a href="/download/{{.AnalysisID}}">download</a></td>
{{end}}
</tr>
{{end}}
</table>
</body>
</html>`))

var historyTmpl = template.Must(template.New("history").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Analysis History</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem auto; max-width: 960px; color: #1f2933; }
table { border-collapse: collapse; width: 100%; margin-top: 1rem; }
th, td { border: 1px solid #d2d6dc; padding: 0.5rem 0.75rem; text-align: left; }
th { background: #f5f7fa; }
.stats { display: flex; gap: 2rem; }
.stats div { background: #f5f7fa; padding: 1rem; border-radius: 6px; }
</style>
</head>
<body>
<h1>Analysis History</h1>
<p><a href="/">New analysis</a></p>
<div class="stats">
<div><strong>{{.Stats.Total}}</strong><br>total</div>
<div><strong>{{.Stats.Successful}}</strong><br>successful</div>
<div><strong>{{.Stats.Failed}}</strong><br>failed</div>
<div><strong>{{printf "%.1f" .Stats.AvgScore}}</strong><br>avg score</div>
<div><strong>{{.Stats.Today}}</strong><br>today</div>
</div>
<table>
<tr><th>URL</th><th>Score</th><th>Status</th><th>Mode</th><th>When</th><th>Report</th></tr>
{{range .Summaries}}
<tr>
<td>{{.URL}}</td>
<td>{{.SEOScore}}</td>
<td>{{.Status}}</td>
<td>{{if .UseAI}}AI{{else}}heuristic{{end}}</td>
<td>{{.Timestamp.Format "2006-01-02 15:04"}}</td>
<td><a href="/report/{{.ID}}">view</a></td>
</tr>
{{end}}
</table>
<form method="post" action="/clear_history" onsubmit="return confirm('Clear all history?')">
<p><button type="submit">Clear history</button></p>
</form>
</body>
</html>`))
