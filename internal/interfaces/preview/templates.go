package preview

import "html/template"

// Record fields reach the page only through these templates, so every
// value is escaped as text. Badges and layout are the only markup.
var dialogTemplates = template.Must(template.New("dialog").Parse(`
{{define "header"}}<div class="modal-header {{.HeaderClass}} text-white">
<h5 class="modal-title"><i class="bi {{.Icon}} me-2"></i> {{.Title}}</h5>
<button type="button" class="btn-close btn-close-white" data-bs-dismiss="modal" data-action="dismiss"></button>
</div>{{end}}

{{define "summary"}}<div class="alert alert-info border-0 shadow-sm d-flex align-items-center">
<i class="bi {{.Layout.SummaryIcon}} fs-4 me-3"></i>
<div>{{.Layout.SummaryLead}} <strong>{{.Total}}</strong> {{.Layout.SummaryTail}}</div>
</div>{{end}}

{{define "badge"}}<span class="badge {{.Class}}">{{.Text}}</span>{{end}}

{{define "customers"}}{{template "header" .Layout}}
<div class="modal-body p-4">
{{template "summary" .}}
<div class="table-responsive" style="max-height: 500px;">
<table class="table table-sm table-hover align-middle">
<thead class="table-light sticky-top"><tr><th>Nome</th><th>CPF/CNPJ</th><th>Telefone</th><th>Endereço</th><th>Status</th></tr></thead>
<tbody>
{{- range .Rows}}
<tr><td class="fw-bold">{{.Name}}</td><td><code>{{.Document}}</code></td><td>{{.Phone}}</td><td><small class="text-muted">{{.Address}}</small></td><td>{{template "badge" .Status}}</td></tr>
{{- end}}
</tbody>
</table>
</div>
</div>{{end}}

{{define "contracts"}}{{template "header" .Layout}}
<div class="modal-body p-4">
{{template "summary" .}}
<div class="table-responsive" style="max-height: 500px;">
<table class="table table-sm table-hover align-middle">
<thead class="table-light sticky-top"><tr><th>Nº Contrato</th><th>Tipo</th><th>Cliente</th><th>Vigência</th><th>Valor</th><th>Status</th></tr></thead>
<tbody>
{{- range .Rows}}
<tr><td><code>{{.Number}}</code></td><td><small>{{.Type}}</small></td><td class="fw-bold">{{.Customer}}</td><td><small>{{.Term.Start}}{{if .Term.OpenEnded}}<br>(Indeterminado){{else}}<br>até {{.Term.End}}{{end}}</small></td><td class="text-success fw-bold">{{.Monthly}}</td><td>{{template "badge" .Status}}</td></tr>
{{- end}}
</tbody>
</table>
</div>
</div>{{end}}
`))

// layout holds the per-kind dialog wording and styling
type layout struct {
	HeaderClass  string
	Icon         string
	Title        string
	SummaryIcon  string
	SummaryLead  string
	SummaryTail  string
	DismissLabel string
	ConfirmLabel string
	ConfirmClass string
	BusyLabel    string
}

var customerLayout = layout{
	HeaderClass:  "bg-primary",
	Icon:         "bi-people",
	Title:        "Preview de Clientes Extraídos",
	SummaryIcon:  "bi-info-circle",
	SummaryLead:  "Foram extraídos",
	SummaryTail:  "clientes com inteligência artificial.",
	DismissLabel: "Cancelar",
	ConfirmLabel: "Confirmar Importação",
	ConfirmClass: "btn-primary",
	BusyLabel:    "Importando...",
}

var contractLayout = layout{
	HeaderClass:  "bg-dark",
	Icon:         "bi-file-earmark-text",
	Title:        "Preview de Contratos Detectados",
	SummaryIcon:  "bi-robot",
	SummaryLead:  "Foram estruturados",
	SummaryTail:  "contratos encontrados na planilha.",
	DismissLabel: "Fechar",
	ConfirmLabel: "Confirmar Processamento",
	ConfirmClass: "btn-dark",
	BusyLabel:    "Processando...",
}

type dialogData struct {
	Layout layout
	Total  int
	Rows   any
}
