// Package templates renders the expense form page and the troubleshooting
// fragments. Pages are html/template trees exposed as templ components so
// handlers render everything through one path.
package templates

import (
	"context"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"github.com/mgulati3/ASU-BMF-FILLER/internal/domain"
)

var baseTmpl = template.Must(template.New("base").Funcs(funcs).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>ASU Business Meals Form Filler</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<link rel="preconnect" href="https://fonts.googleapis.com">
<link rel="preconnect" href="https://fonts.gstatic.com" crossorigin>
<link href="https://fonts.googleapis.com/css2?family=IBM+Plex+Mono:wght@400;500;600&family=IBM+Plex+Sans:wght@300;400;500;600&display=swap" rel="stylesheet">
<style>
  :root {
    --ink: #191919;
    --paper: #fafafa;
    --ledger: #e8e8e8;
    --accent: #8c1d40;
    --gold: #ffc627;
    --ok: #2c6e49;
    --muted: #5c5c5c;
    --rule: #c8c8c8;
  }
  * { box-sizing: border-box; }
  body { background: var(--paper); color: var(--ink); font-family: 'IBM Plex Sans', sans-serif; margin: 0; }
  .mono { font-family: 'IBM Plex Mono', monospace; }
  .card { background: white; border: 1px solid var(--ledger); border-left: 4px solid var(--accent); padding: 24px; margin-bottom: 24px; }
  .section-header {
    font-family: 'IBM Plex Mono', monospace; font-size: 0.7rem; font-weight: 600; letter-spacing: 0.18em;
    text-transform: uppercase; color: var(--muted); border-bottom: 1px solid var(--rule);
    padding-bottom: 4px; margin: 20px 0 16px;
  }
  .field-label {
    font-family: 'IBM Plex Mono', monospace; font-size: 0.6rem; font-weight: 600; letter-spacing: 0.1em;
    text-transform: uppercase; color: var(--muted); display: block; margin-bottom: 2px;
  }
  input, select, textarea {
    background: white; border: 1px solid var(--rule); border-bottom: 2px solid var(--ink);
    padding: 6px 8px; font-size: 0.85rem; width: 100%; outline: none;
  }
  input:focus, select:focus, textarea:focus { border-bottom-color: var(--accent); }
  input[type=radio] { width: auto; }
  .grid2 { display: grid; grid-template-columns: 1fr 1fr; gap: 12px; }
  .grid3 { display: grid; grid-template-columns: 1fr 1fr 1fr; gap: 8px; margin-bottom: 6px; }
  .btn {
    font-family: 'IBM Plex Mono', monospace; font-weight: 600; font-size: 0.8rem; letter-spacing: 0.08em;
    padding: 8px 18px; border: 2px solid var(--ink); cursor: pointer; text-transform: uppercase; background: white;
  }
  .btn-primary { background: var(--accent); border-color: var(--accent); color: white; }
  .btn-primary:hover { filter: brightness(1.1); }
  .notice { padding: 8px 12px; margin: 12px 0; font-size: 0.85rem; }
  .notice-error { border-left: 4px solid var(--accent); background: #fbeef2; }
  .notice-warn { border-left: 4px solid var(--gold); background: #fff8e1; }
  table.fields { width: 100%; border-collapse: collapse; font-size: 0.8rem; }
  table.fields td, table.fields th { border-bottom: 1px solid var(--ledger); padding: 4px 6px; text-align: left; }
  table.fields tr.mapped td:last-child { background: #e3f1e3; }
</style>
</head>
<body>
<div style="max-width:1100px;margin:0 auto;padding:32px 24px;">
<div style="margin-bottom:32px;">
  <div class="mono" style="font-size:0.65rem;letter-spacing:0.2em;color:var(--muted);margin-bottom:4px;">
    ARIZONA STATE UNIVERSITY · FINANCIAL SERVICES
  </div>
  <h1 class="mono" style="font-size:1.6rem;font-weight:600;margin:0;">Business Meals &amp; Related Expenses</h1>
  <div style="font-size:0.85rem;color:var(--muted);margin-top:4px;">Fill the official form from one screen.</div>
</div>

{{template "content" .}}

<div class="mono" style="margin-top:48px;padding-top:16px;border-top:1px solid var(--rule);font-size:0.6rem;color:var(--muted);text-align:center;">
  ASU BMF FILLER · NO FORM VALUES ARE STORED
</div>
</div>
</body>
</html>`))

var indexTmpl = template.Must(template.Must(baseTmpl.Clone()).Parse(`
{{define "content"}}
<form id="expense-form" class="card">
  <div class="section-header" style="margin-top:0;">Template</div>
  <div class="grid2">
    <div>
      <label class="field-label" for="templateId">Form template</label>
      <select id="templateId" name="templateId">
        <option value="builtin">ASU Business Meals (built-in)</option>
        {{range .Templates}}<option value="{{.ID}}">{{.OriginalName}} · {{.FieldCount}} fields · {{size .Size}}</option>{{end}}
      </select>
    </div>
    <div>
      <label class="field-label" for="upload">Upload a template</label>
      <input id="upload" type="file" accept="application/pdf">
    </div>
  </div>

  <div class="section-header">Event</div>
  <div class="grid2">
    <div>
      <label class="field-label" for="expenseType">Type of Expense</label>
      <input id="expenseType" name="expenseType" placeholder="{{.DefaultExpenseType}}">
    </div>
    <div>
      <label class="field-label" for="location">Location of Event</label>
      <input id="location" name="location">
    </div>
    <div>
      <label class="field-label" for="eventDate">Event Date</label>
      <input id="eventDate" name="eventDate" type="date">
    </div>
    <div>
      <label class="field-label" for="costCenter">Cost Center plus Program</label>
      <input id="costCenter" name="costCenter" class="mono">
    </div>
    <div style="grid-column:1/-1;">
      <label class="field-label" for="businessPurpose">Business (Public) Purpose</label>
      <textarea id="businessPurpose" name="businessPurpose" rows="3"></textarea>
    </div>
    <div>
      <label class="field-label" for="poNumber">PO # (if applicable)</label>
      <input id="poNumber" name="poNumber" class="mono">
    </div>
    <div>
      <label class="field-label" for="totalAmount">Total Amount</label>
      <input id="totalAmount" name="totalAmount" class="mono">
    </div>
  </div>

  <div class="section-header">ASU Faculty, Staff or Students</div>
  {{range rows .MaxAttendees}}
  <div class="grid3">
    <input name="{{field "asu" . "name"}}" placeholder="Name {{seq .}}">
    <input name="{{field "asu" . "department"}}" placeholder="Department">
    <input name="{{field "asu" . "title"}}" placeholder="Title">
  </div>
  {{end}}

  <div class="section-header">Other Attendees</div>
  {{range rows .MaxAttendees}}
  <div class="grid3">
    <input name="{{field "other" . "name"}}" placeholder="Name {{seq .}}">
    <input name="{{field "other" . "affiliation"}}" placeholder="Affiliation">
    <input name="{{field "other" . "title"}}" placeholder="Title">
  </div>
  {{end}}
  <label class="field-label" for="largeGroupInfo">Large group information</label>
  <textarea id="largeGroupInfo" name="largeGroupInfo" rows="2"></textarea>

  <div class="section-header">Payment</div>
  <div class="grid2">
    <div>
      <label><input type="radio" name="paymentMethod" value="1" checked> Paid by ASU Purchasing Card</label><br>
      <label><input type="radio" name="paymentMethod" value="2"> Direct supplier invoice</label>
    </div>
    <div>
      <label class="field-label" for="supplierName">Name of Supplier</label>
      <input id="supplierName" name="supplierName">
    </div>
  </div>

  <div class="section-header">Requester</div>
  <div class="grid2">
    <div>
      <label class="field-label" for="requesterName">Requester's Name</label>
      <input id="requesterName" name="requesterName">
    </div>
    <div>
      <label class="field-label" for="requesterPhone">Phone No.</label>
      <input id="requesterPhone" name="requesterPhone">
    </div>
    <div>
      <label class="field-label" for="requesterDate">Date</label>
      <input id="requesterDate" name="requesterDate" type="date">
    </div>
    <div>
      <label class="field-label" for="textSignature">Signature</label>
      <input id="textSignature" name="textSignature" style="font-family:'Times New Roman',serif;font-style:italic;">
    </div>
  </div>

  <div style="margin-top:24px;display:flex;gap:12px;align-items:center;">
    <button type="submit" class="btn btn-primary">Generate PDF</button>
    <a id="download" class="btn" style="display:none;">Download</a>
    <a class="btn" href="/api/templates/builtin/report.pdf" id="report-link" target="_blank">Field report</a>
  </div>
  <div id="messages"></div>
</form>

<div class="card">
  <div class="section-header" style="margin-top:0;">Preview</div>
  <iframe id="preview" style="width:100%;height:800px;border:1px solid var(--ledger);display:none;"></iframe>
</div>

<div class="card">
  <div class="section-header" style="margin-top:0;">Template fields</div>
  <div id="field-list" hx-get="/api/templates/builtin/fields.html" hx-trigger="load"></div>
</div>

<script>
(function () {
  const form = document.getElementById('expense-form');
  const select = document.getElementById('templateId');
  const messages = document.getElementById('messages');

  function notice(kind, text) {
    const div = document.createElement('div');
    div.className = 'notice notice-' + kind;
    div.textContent = text;
    messages.appendChild(div);
  }

  function collect(group, cols) {
    const out = [];
    for (let i = 0; i < {{.MaxAttendees}}; i++) {
      const row = {};
      let any = false;
      for (const c of cols) {
        row[c] = form.elements[group + '-' + i + '-' + c].value;
        any = any || row[c] !== '';
      }
      if (any) out.push(row);
    }
    return out;
  }

  select.addEventListener('change', function () {
    document.getElementById('report-link').href = '/api/templates/' + select.value + '/report.pdf';
    htmx.ajax('GET', '/api/templates/' + select.value + '/fields.html', '#field-list');
  });

  document.getElementById('upload').addEventListener('change', async function (ev) {
    const file = ev.target.files[0];
    if (!file) return;
    const body = new FormData();
    body.append('file', file);
    const res = await fetch('/api/upload-template', { method: 'POST', body: body });
    const data = await res.json();
    if (!data.success) { notice('error', data.error); return; }
    const opt = new Option(file.name, data.id, true, true);
    select.add(opt);
    select.dispatchEvent(new Event('change'));
  });

  form.addEventListener('submit', async function (ev) {
    ev.preventDefault();
    messages.replaceChildren();
    const fields = ['expenseType', 'location', 'eventDate', 'businessPurpose', 'costCenter', 'poNumber',
      'totalAmount', 'supplierName', 'largeGroupInfo', 'requesterName', 'requesterPhone', 'requesterDate', 'textSignature'];
    const payload = {};
    for (const f of fields) payload[f] = form.elements[f].value;
    payload.paymentMethod = form.elements['paymentMethod'].value;
    payload.asuAttendees = collect('asu', ['name', 'department', 'title']);
    payload.otherAttendees = collect('other', ['name', 'affiliation', 'title']);

    const body = new FormData();
    body.append('formData', JSON.stringify(payload));
    if (select.value === 'builtin') body.append('useBuiltInTemplate', 'true');
    else body.append('templateId', select.value);

    const res = await fetch('/api/fill', { method: 'POST', body: body });
    const data = await res.json();
    if (!data.success) { notice('error', data.error || 'Failed to generate PDF'); return; }
    if (data.warning) notice('warn', data.warning);

    const preview = document.getElementById('preview');
    preview.src = data.url || data.base64;
    preview.style.display = 'block';
    const dl = document.getElementById('download');
    dl.href = data.base64 || data.url;
    dl.download = data.filename || 'filled_form.pdf';
    dl.style.display = 'inline-block';
  });
})();
</script>
{{end}}`))

var fieldsTmpl = template.Must(template.New("fields").Funcs(funcs).Parse(`
<div class="mono" style="font-size:0.75rem;color:var(--muted);margin-bottom:8px;">
  {{.TemplateName}} · {{len .Rows}} fields
</div>
{{if .Rows}}
<table class="fields">
  <thead><tr><th>#</th><th>Field name</th><th>Normalized</th><th>Resolved keys</th></tr></thead>
  <tbody>
  {{range $i, $r := .Rows}}
    <tr{{if $r.Keys}} class="mapped"{{end}}>
      <td>{{seq $i}}</td><td class="mono">{{$r.Name}}</td><td class="mono">{{$r.Normalized}}</td><td>{{join $r.Keys ", "}}</td>
    </tr>
  {{end}}
  </tbody>
</table>
{{else}}
<div class="notice notice-warn">No fillable form fields found in this template.</div>
{{end}}
{{if .Unmapped}}
<div class="notice notice-warn">Keys without a field: {{join .Unmapped ", "}}</div>
{{end}}`))

type indexData struct {
	Templates          []domain.TemplateRecord
	MaxAttendees       int
	DefaultExpenseType string
}

// Index is the expense form page. uploaded fills the template selector.
func Index(uploaded []domain.TemplateRecord) templ.Component {
	return component(indexTmpl, indexData{
		Templates:          uploaded,
		MaxAttendees:       domain.MaxAttendees,
		DefaultExpenseType: domain.DefaultExpenseType,
	})
}

// FieldList is the field table fragment of one template.
func FieldList(r *domain.FieldReport) templ.Component {
	return component(fieldsTmpl, r)
}

func component(t *template.Template, data any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return t.Execute(w, data)
	})
}
