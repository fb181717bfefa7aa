package csvimport

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/erp/importer/internal/domain/bulk"
	"github.com/erp/importer/internal/infrastructure/format"
	"github.com/shopspring/decimal"
)

// DefaultMaxErrors caps the row errors kept per file
const DefaultMaxErrors = 100

// Canonical columns and the header spellings accepted for them
var (
	customerColumns = map[string][]string{
		"nome":     {"nome_completo", "razao_social", "cliente", "name"},
		"cpf_cnpj": {"cpf", "cnpj", "documento", "cpf_ou_cnpj"},
		"telefone": {"fone", "celular", "telefone_celular", "phone"},
		"endereco": {"endereco_completo", "logradouro", "address"},
		"status":   {"situacao"},
	}
	contractColumns = map[string][]string{
		"numero_contrato": {"n_contrato", "n_do_contrato", "numero_do_contrato", "numero", "contrato"},
		"tipo_contrato":   {"tipo", "tipo_do_contrato"},
		"cliente":         {"nome_cliente", "nome"},
		"data_inicio":     {"inicio", "data_de_inicio", "vigencia_inicio"},
		"data_fim":        {"fim", "termino", "data_de_termino", "vigencia_fim"},
		"valor_mensal":    {"valor", "mensalidade", "valor_mes"},
		"status":          {"situacao"},
	}
	requiredColumns = map[bulk.ModuleType][]string{
		bulk.ModuleCustomers: {"nome"},
		bulk.ModuleContracts: {"numero_contrato"},
	}
)

// Preview is what an extraction yields: the payload the client renders plus
// bookkeeping for the backend
type Preview struct {
	// Payload is a *bulk.CustomerPayload or *bulk.ContractPayload
	Payload any
	Total   int
	Errors  *ErrorCollection
}

// Extractor turns a header-mapped spreadsheet into a preview payload
type Extractor struct {
	formatter *format.Formatter
	limit     int
	maxErrors int
}

// NewExtractor creates an extractor keeping at most limit preview rows. A
// non-positive limit keeps every row.
func NewExtractor(f *format.Formatter, limit int) *Extractor {
	if f == nil {
		f = format.Default()
	}
	return &Extractor{formatter: f, limit: limit, maxErrors: DefaultMaxErrors}
}

// Extract reads r as a spreadsheet of the given module type. filePath is the
// server-side handle echoed in the payload.
func (e *Extractor) Extract(kind bulk.ModuleType, r io.Reader, filePath string) (*Preview, error) {
	switch kind {
	case bulk.ModuleCustomers:
		return extract(e, kind, r, filePath, customerColumns, e.customer)
	case bulk.ModuleContracts:
		return extract(e, kind, r, filePath, contractColumns, e.contract)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedModule, kind)
}

func extract[R bulk.Record](
	e *Extractor,
	kind bulk.ModuleType,
	r io.Reader,
	filePath string,
	columns map[string][]string,
	build func(*Row, *ErrorCollection) R,
) (*Preview, error) {
	p, err := NewParser(r)
	if err != nil {
		return nil, err
	}
	if err := p.ParseHeader(); err != nil {
		return nil, err
	}
	p.Rename(columns)
	if missing := p.Missing(requiredColumns[kind]...); len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	errs := NewErrorCollection(e.maxErrors)
	payload := &bulk.Payload[R]{FilePath: filePath, Preview: []R{}}
	for {
		row, err := p.ReadRow()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			errs.Add(RowError{Row: p.line, Code: ErrCodeMalformedRow, Message: err.Error()})
			continue
		}
		if row.IsBlank() {
			continue
		}
		payload.Total++
		record := build(row, errs)
		if e.limit <= 0 || len(payload.Preview) < e.limit {
			payload.Preview = append(payload.Preview, record)
		}
	}
	if payload.Total == 0 {
		return nil, ErrNoDataRows
	}
	return &Preview{Payload: payload, Total: payload.Total, Errors: errs}, nil
}

func (e *Extractor) customer(row *Row, _ *ErrorCollection) bulk.CustomerRecord {
	return bulk.CustomerRecord{
		Nome:     cell(row, "nome"),
		CPFCNPJ:  cell(row, "cpf_cnpj"),
		Telefone: cell(row, "telefone"),
		Endereco: cell(row, "endereco"),
		Status:   upper(cell(row, "status")),
	}
}

func (e *Extractor) contract(row *Row, errs *ErrorCollection) bulk.ContractRecord {
	rec := bulk.ContractRecord{
		NumeroContrato: cell(row, "numero_contrato"),
		TipoContrato:   cell(row, "tipo_contrato"),
		Cliente:        cell(row, "cliente"),
		DataInicio:     e.date(cell(row, "data_inicio")),
		DataFim:        e.date(cell(row, "data_fim")),
		Status:         title(cell(row, "status")),
	}
	if raw := row.Get("valor_mensal"); raw != "" {
		amount, err := ParseAmount(raw)
		if err != nil {
			errs.Add(RowError{
				Row:     row.Line,
				Column:  "valor_mensal",
				Code:    ErrCodeInvalidAmount,
				Message: "invalid monetary amount",
				Value:   raw,
			})
		} else {
			rec.ValorMensal = &amount
		}
	}
	return rec
}

// date renders an ISO date the way the server shows dates; other text is kept
func (e *Extractor) date(s *string) *string {
	if s == nil {
		return nil
	}
	return bulk.Str(e.formatter.Date(*s))
}

func cell(row *Row, column string) *string {
	v := row.Get(column)
	if v == "" {
		return nil
	}
	return &v
}

// Customer statuses are stored upper-case ("ATIVO")
func upper(s *string) *string {
	if s == nil {
		return nil
	}
	return bulk.Str(strings.ToUpper(*s))
}

// Contract statuses are stored capitalised ("Ativo", "Expirado")
func title(s *string) *string {
	if s == nil {
		return nil
	}
	lower := []rune(strings.ToLower(*s))
	return bulk.Str(strings.ToUpper(string(lower[:1])) + string(lower[1:]))
}

// ParseAmount reads a monetary cell written either in Brazilian notation
// ("R$ 1.234,50") or with a decimal point ("1234.50")
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "R$")
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\u00a0' {
			return -1
		}
		return r
	}, s)
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return d, nil
}
