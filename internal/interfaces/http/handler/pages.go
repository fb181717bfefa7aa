package handler

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/erp/importer/internal/domain/bulk"
	"github.com/erp/importer/internal/infrastructure/logger"
	"github.com/erp/importer/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var moduleTitle = cases.Title(language.BrazilianPortuguese)

var pageTemplates = template.Must(template.New("pages").Funcs(template.FuncMap{
	"module": func(m bulk.ModuleType) string { return moduleTitle.String(string(m)) },
}).Parse(`
{{define "top"}}<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/bootstrap@5.3.3/dist/css/bootstrap.min.css">
<link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/bootstrap-icons@1.11.3/font/bootstrap-icons.min.css">
</head>
<body>
<nav class="navbar navbar-dark bg-dark mb-4"><div class="container">
<a class="navbar-brand" href="{{.Nav.UploadPath}}">Importador</a>
<a class="nav-link text-white" href="{{.Nav.HistoryPath}}">Histórico</a>
</div></nav>
<main class="container">{{end}}

{{define "bottom"}}</main>
<footer class="container text-muted small mt-4">{{with .RequestID}}req {{.}}{{end}}</footer>
</body>
</html>{{end}}

{{define "upload"}}{{template "top" .}}
<h1 class="h4 mb-3">{{.Page.Title}}</h1>
<form method="post" action="{{.Nav.UploadPath}}" enctype="multipart/form-data" class="card card-body">
<input type="hidden" name="csrfmiddlewaretoken" value="{{.CSRFToken}}">
<div class="mb-3"><label class="form-label" for="module_type">Módulo</label>
<select class="form-select" id="module_type" name="module_type">
{{- range .Page.Modules}}<option value="{{.}}">{{module .}}</option>{{end -}}
</select></div>
<div class="mb-3"><label class="form-label" for="file">Planilha (CSV)</label>
<input class="form-control" type="file" id="file" name="file" accept=".csv,.txt"></div>
<button type="submit" class="btn btn-primary">Enviar</button>
</form>
{{template "bottom" .}}{{end}}

{{define "status"}}{{if .Running}}<span class="badge bg-info status-processing">{{.Status}}</span>
{{- else}}<span class="badge {{.StatusClass}}">{{.Status}}</span>{{end}}{{end}}

{{define "progress"}}<div class="progress" style="height: 1.25rem;">
{{- if .Running}}<div class="progress-bar progress-bar-striped progress-bar-animated" role="progressbar" style="width: 100%">{{.Status}}</div>
{{- else}}<div class="progress-bar {{.StatusClass}}" role="progressbar" style="width: {{.Progress}}%">{{.Progress}}%</div>{{end -}}
</div>{{end}}

{{define "history"}}{{template "top" .}}
<h1 class="h4 mb-3">{{.Page.Title}}</h1>
{{- if .Page.Jobs}}
<table class="table table-hover align-middle">
<thead><tr><th>Módulo</th><th>Arquivo</th><th>Linhas</th><th>Criada em</th><th>Status</th><th>Progresso</th></tr></thead>
<tbody>
{{- range .Page.Jobs}}
<tr><td>{{module .Module}}</td><td><a href="{{.URL}}">{{.File}}</a></td><td>{{.TotalRows}}</td><td>{{.Created}}</td><td>{{template "status" .}}</td><td style="min-width: 10rem;">{{template "progress" .}}</td></tr>
{{- end}}
</tbody>
</table>
{{- else}}
<div class="alert alert-secondary">Nenhuma importação realizada.</div>
{{- end}}
{{template "bottom" .}}{{end}}

{{define "detail"}}{{template "top" .}}
{{with .Page.Job}}
<h1 class="h4 mb-3">Importação de {{module .Module}} {{template "status" .}}</h1>
<dl class="row">
<dt class="col-sm-3">Arquivo</dt><dd class="col-sm-9">{{.File}}</dd>
<dt class="col-sm-3">Linhas</dt><dd class="col-sm-9">{{.TotalRows}}</dd>
<dt class="col-sm-3">Criada em</dt><dd class="col-sm-9">{{.Created}}</dd>
<dt class="col-sm-3">Concluída em</dt><dd class="col-sm-9">{{.Finished}}</dd>
{{- with .Error}}<dt class="col-sm-3">Erro</dt><dd class="col-sm-9 text-danger">{{.}}</dd>{{end}}
</dl>
{{template "progress" .}}
{{- if .Running}}
<form method="post" action="{{.CancelURL}}" class="mt-3">
<input type="hidden" name="csrfmiddlewaretoken" value="{{$.CSRFToken}}">
<button type="submit" class="btn btn-outline-danger btn-sm">Cancelar importação</button>
</form>
{{- end}}
{{end}}
<a class="btn btn-link mt-3" href="{{.Nav.HistoryPath}}">Voltar ao histórico</a>
{{template "bottom" .}}{{end}}

{{define "notfound"}}{{template "top" .}}
<div class="alert alert-warning">{{.Page.Message}}</div>
{{template "bottom" .}}{{end}}
`))

// Nav holds the paths every page links to
type Nav struct {
	UploadPath  string
	HistoryPath string
}

// Pages renders the server-side HTML pages
type Pages struct {
	nav Nav
}

// NewPages creates a renderer linking to nav
func NewPages(nav Nav) *Pages {
	return &Pages{nav: nav}
}

type layoutData struct {
	Title     string
	Nav       Nav
	CSRFToken string
	RequestID string
	Page      any
}

type titled interface {
	pageTitle() string
}

type uploadPage struct {
	Title   string
	Modules []bulk.ModuleType
}

func (p uploadPage) pageTitle() string { return p.Title }

type messagePage struct {
	Title   string
	Message string
}

func (p messagePage) pageTitle() string { return p.Title }

// Render executes the named page template
func (p *Pages) Render(c *gin.Context, status int, name string, page titled) {
	data := layoutData{
		Title:     page.pageTitle(),
		Nav:       p.nav,
		CSRFToken: middleware.GetCSRFToken(c),
		RequestID: getRequestID(c),
		Page:      page,
	}

	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		logger.GetGinLogger(c).Error("Failed to render page", zap.String("page", name), zap.Error(err))
		c.String(http.StatusInternalServerError, DetailInternal)
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

// NotFound renders the not-found page
func (p *Pages) NotFound(c *gin.Context, message string) {
	p.Render(c, http.StatusNotFound, "notfound", messagePage{Title: "Não encontrado", Message: message})
}
