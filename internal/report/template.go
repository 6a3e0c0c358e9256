package report

const reportHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>TrustLogix Access Governance Report</title>
<style>
  body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; margin: 2rem auto; max-width: 72rem; color: #1f2733; }
  h1 { font-size: 1.5rem; }
  h2 { font-size: 1.2rem; border-bottom: 2px solid #e3e8ef; padding-bottom: .3rem; margin-top: 2rem; }
  h3 { font-size: 1rem; margin-bottom: .2rem; }
  .meta { color: #5b6b7f; font-size: .85rem; }
  .pill { display: inline-block; border-radius: 999px; padding: .15rem .6rem; font-size: .8rem; font-weight: 600; }
  .pill.ok { background: #e0f2ec; color: #047960; }
  .pill.warn { background: #fdf3dc; color: #8a6410; }
  .pill.bad { background: #fae3e3; color: #bf1b1b; }
  table { border-collapse: collapse; margin: .5rem 0 1rem; }
  th, td { text-align: left; padding: .3rem .8rem; border-bottom: 1px solid #e3e8ef; font-size: .85rem; }
  th { color: #5b6b7f; font-weight: 600; }
  ul.tree { list-style: none; padding-left: 1.2rem; border-left: 1px solid #e3e8ef; }
  ul.tree > li { margin: .2rem 0; font-size: .85rem; }
  .level { color: #5b6b7f; font-size: .75rem; text-transform: uppercase; margin-right: .4rem; }
  .grants { color: #5b6b7f; font-size: .8rem; }
  .warnings { background: #fdf3dc; border-radius: .4rem; padding: .8rem 1.2rem; font-size: .85rem; }
  .reportonly { background: #e8eef7; border-radius: .4rem; padding: .6rem 1rem; font-size: .85rem; }
</style>
</head>
<body>
<h1>TrustLogix Access Governance Report</h1>
<p class="meta">Run {{.RunID}} · generated {{.GeneratedAt.UTC.Format "2006-01-02 15:04:05 MST"}}</p>
{{if .ReportOnly}}<p class="reportonly">Report-only run: no catalog credentials were configured, nothing was written to Atlan.</p>{{end}}

{{with .Totals}}
<p><span class="pill {{statusClass .}}">{{status .}}</span></p>
<table>
  <tr><th>Total</th><th>High</th><th>Medium</th><th>Low</th></tr>
  <tr><td>{{.Total}}</td><td>{{.High}}</td><td>{{.Medium}}</td><td>{{.Low}}</td></tr>
</table>
{{end}}

{{range .Domains}}
<h2>{{.Name}} <span class="pill {{statusClass .Summary}}">{{status .Summary}}</span></h2>
{{range .Accounts}}
<h3>{{.Name}} <span class="meta">({{.Platform}})</span></h3>
<p class="meta">{{.MatchedAssets}} catalog asset(s) matched</p>
<table>
  <tr><th>Total</th><th>High</th><th>Medium</th><th>Low</th><th>Categories</th></tr>
  <tr>
    <td>{{.Summary.Total}}</td><td>{{.Summary.High}}</td><td>{{.Summary.Medium}}</td><td>{{.Summary.Low}}</td>
    <td>{{range $i, $c := .Summary.Categories}}{{if $i}}, {{end}}{{category $c}}{{end}}</td>
  </tr>
</table>
{{if .Tree}}{{template "node" .Tree}}{{end}}
{{end}}
{{end}}

{{if .Warnings}}
<h2>Warnings</h2>
<div class="warnings"><ul>{{range .Warnings}}<li>{{.}}</li>{{end}}</ul></div>
{{end}}
</body>
</html>

{{define "node"}}
<ul class="tree">
{{range .Children}}
  <li>
    <span class="level">{{.Level}}</span>{{.Name}}
    {{if .Entitlements}}<span class="grants">{{len .Entitlements}} grant(s):
      {{range $i, $e := .Entitlements}}{{if $i}}; {{end}}{{$e.PrincipalName}} ({{$e.PrincipalKind}}){{end}}</span>{{end}}
    {{if .Children}}{{template "node" .}}{{end}}
  </li>
{{end}}
</ul>
{{end}}`
