package preview

import (
	"github.com/erp/importer/internal/domain/bulk"
	"github.com/erp/importer/internal/infrastructure/format"
	"github.com/shopspring/decimal"
)

// MaxTextLength is the longest free text shown in a cell before truncation
const MaxTextLength = 50

// Ellipsis marks truncated text
const Ellipsis = "..."

// NotAvailable is shown in a status badge when the record has no status
const NotAvailable = "N/A"

// Badge classes
const (
	BadgePositive = "bg-success"
	BadgeWarning  = "bg-warning"
	BadgeNeutral  = "bg-secondary"
)

// Status values that get a dedicated badge
const (
	CustomerStatusActive  = "ATIVO"
	ContractStatusActive  = "Ativo"
	ContractStatusExpired = "Expirado"
)

// Badge is a rendered status
type Badge struct {
	Class string
	Text  string
}

// text returns the value or the placeholder when it is absent or empty
func text(s *string) string {
	if s == nil || *s == "" {
		return format.Placeholder
	}
	return *s
}

// truncate shortens s to MaxTextLength characters plus an ellipsis. The
// input is never modified.
func truncate(s *string) string {
	v := text(s)
	if v == format.Placeholder {
		return v
	}
	r := []rune(v)
	if len(r) <= MaxTextLength {
		return v
	}
	return string(r[:MaxTextLength]) + Ellipsis
}

// amount renders a currency cell; a zero amount counts as absent
func amount(f *format.Formatter, d *decimal.Decimal) string {
	if d == nil || d.IsZero() {
		return format.Placeholder
	}
	return f.Currency(d)
}

func neutral(s *string) Badge {
	if s == nil || *s == "" {
		return Badge{Class: BadgeNeutral, Text: NotAvailable}
	}
	return Badge{Class: BadgeNeutral, Text: *s}
}

// CustomerBadge maps a customer status to its badge
func CustomerBadge(status *string) Badge {
	if status != nil && *status == CustomerStatusActive {
		return Badge{Class: BadgePositive, Text: CustomerStatusActive}
	}
	return neutral(status)
}

// ContractBadge maps a contract status to its badge
func ContractBadge(status *string) Badge {
	if status != nil {
		switch *status {
		case ContractStatusActive:
			return Badge{Class: BadgePositive, Text: ContractStatusActive}
		case ContractStatusExpired:
			return Badge{Class: BadgeWarning, Text: ContractStatusExpired}
		}
	}
	return neutral(status)
}

// Term is the validity period of a contract. An absent end date means the
// contract is open-ended, which is a normal state.
type Term struct {
	Start     string
	End       string
	OpenEnded bool
}

type customerRow struct {
	Name     string
	Document string
	Phone    string
	Address  string
	Status   Badge
}

type contractRow struct {
	Number   string
	Type     string
	Customer string
	Term     Term
	Monthly  string
	Status   Badge
}

func customerRows(records []bulk.CustomerRecord) []customerRow {
	rows := make([]customerRow, len(records))
	for i, c := range records {
		rows[i] = customerRow{
			Name:     text(c.Nome),
			Document: text(c.CPFCNPJ),
			Phone:    text(c.Telefone),
			Address:  truncate(c.Endereco),
			Status:   CustomerBadge(c.Status),
		}
	}
	return rows
}

func contractRows(f *format.Formatter, records []bulk.ContractRecord) []contractRow {
	rows := make([]contractRow, len(records))
	for i, c := range records {
		term := Term{Start: text(c.DataInicio)}
		if c.DataFim != nil && *c.DataFim != "" {
			term.End = *c.DataFim
		} else {
			term.OpenEnded = true
		}
		rows[i] = contractRow{
			Number:   text(c.NumeroContrato),
			Type:     text(c.TipoContrato),
			Customer: text(c.Cliente),
			Term:     term,
			Monthly:  amount(f, c.ValorMensal),
			Status:   ContractBadge(c.Status),
		}
	}
	return rows
}
