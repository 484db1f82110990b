package report

// ViewerTemplate is the HTML template of the viewer page.
const ViewerTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
  :root {
    --bg: #ffffff;
    --text: #1a1a2e;
    --muted: #6b7280;
    --border: #e5e7eb;
    --accent: #2563eb;
    --red: #dc2626;
    --section-bg: #f8fafc;
  }
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    color: var(--text);
    background: var(--bg);
    line-height: 1.6;
    max-width: 1100px;
    margin: 0 auto;
    padding: 20px;
  }
  h1 { font-size: 1.5rem; color: var(--accent); margin-bottom: 12px; }
  h2 { font-size: 1.1rem; margin: 24px 0 10px; padding-bottom: 6px; border-bottom: 2px solid var(--accent); }
  .muted { color: var(--muted); font-size: 0.85rem; }

  form.controls {
    display: flex;
    flex-wrap: wrap;
    gap: 12px;
    align-items: flex-end;
    background: var(--section-bg);
    padding: 12px;
    border-radius: 8px;
  }
  form.controls label { display: flex; flex-direction: column; font-size: 0.8rem; color: var(--muted); }
  form.controls label.inline { flex-direction: row; gap: 6px; align-items: center; }
  form.controls input, form.controls select { font-size: 0.95rem; padding: 4px 6px; }
  form.controls button { padding: 6px 16px; background: var(--accent); color: white; border: 0; border-radius: 4px; }

  .error {
    margin: 16px 0;
    padding: 10px 14px;
    border-left: 4px solid var(--red);
    background: #fef2f2;
    color: var(--red);
  }
  .chart { margin: 12px 0; overflow-x: auto; }

  table { width: 100%; border-collapse: collapse; font-size: 0.8rem; }
  th, td { padding: 4px 8px; border-bottom: 1px solid var(--border); text-align: left; white-space: nowrap; }
  th { background: var(--section-bg); font-weight: 600; }
  .table-wrap { overflow-x: auto; }

  ul.notices { list-style: none; }
  ul.notices li { padding: 6px 0; border-bottom: 1px solid var(--border); }

  .footer { margin-top: 30px; font-size: 0.75rem; color: var(--muted); }
</style>
</head>
<body>

<h1>{{.Title}}</h1>

<form class="controls" method="get" action="/">
  <label>Date
    <input type="date" name="date" value="{{.Date}}" min="{{.MinDate}}" max="{{.MaxDate}}" required>
  </label>
  <label>Bond name
    <select name="issue">
      {{range .Issues}}<option value="{{.}}"{{if eq . $.Issue}} selected{{end}}>{{.}}</option>
      {{else}}<option value="">(no bonds)</option>{{end}}
    </select>
  </label>
  <label class="inline"><input type="checkbox" name="prefix" value="1"{{if .Prefix}} checked{{end}}> match by prefix</label>
  <button type="submit">Show</button>
</form>

{{if .Error}}
<div class="error" role="alert">{{.Error}}</div>
{{end}}

{{if .Chart}}
<h2>Average Compound Yield</h2>
<div class="chart">{{.Chart}}</div>
{{end}}

{{if .Columns}}
<h2>Data</h2>
<p class="muted">Showing {{len .Rows}} of {{.TotalRows}} rows{{if .SourceURL}} from <a href="{{.SourceURL}}">{{.SourceURL}}</a>{{end}}.</p>
{{if .Unmapped}}<p class="muted">Columns without an English name: {{range $i, $c := .Unmapped}}{{if $i}}, {{end}}{{$c}}{{end}}</p>{{end}}
<div class="table-wrap">
  <table>
    <thead><tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
    <tbody>
    {{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
    {{end}}
    </tbody>
  </table>
</div>
{{end}}

{{if .Notices}}
<h2>Notices</h2>
<ul class="notices">
  {{range .Notices}}
  <li>{{if not .Published.IsZero}}<span class="muted">{{date .Published}}</span> {{end}}<a href="{{.Link}}">{{.Title}}</a>
  {{if .Summary}}<div class="muted">{{trunc .Summary 160}}</div>{{end}}</li>
  {{end}}
</ul>
{{end}}

<div class="footer">
  <p>Source: Japan Securities Dealers Association, Reference Statistical Prices for OTC Bond Transactions. Generated on {{.GeneratedAt}}.</p>
</div>

</body>
</html>`
