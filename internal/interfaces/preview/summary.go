package preview

import (
	"fmt"

	"github.com/erp/importer/internal/domain/bulk"
	"github.com/erp/importer/internal/infrastructure/format"
)

// OpenEndedTerm is shown as the end of a contract without an end date
const OpenEndedTerm = "Indeterminado"

// Summary is a plain-text rendition of a preview, with the same cell
// values the dialog shows
type Summary struct {
	Module bulk.ModuleType
	Total  int
	Header []string
	Rows   [][]string
}

// Caption describes how many records the summary holds
func (s *Summary) Caption() string {
	return fmt.Sprintf("%d %s na planilha, exibindo %d", s.Total, s.Module.Noun(), len(s.Rows))
}

// Summarize decodes raw as the payload of moduleType and builds its summary
func Summarize(f *format.Formatter, moduleType bulk.ModuleType, raw []byte) (*Summary, error) {
	switch moduleType {
	case bulk.ModuleCustomers:
		p, err := bulk.DecodeCustomerPayload(raw)
		if err != nil {
			return nil, err
		}
		s := &Summary{Module: moduleType, Total: p.Total, Header: []string{"NOME", "CPF/CNPJ", "TELEFONE", "STATUS"}}
		for _, r := range customerRows(p.Preview) {
			s.Rows = append(s.Rows, []string{r.Name, r.Document, r.Phone, r.Status.Text})
		}
		return s, nil
	case bulk.ModuleContracts:
		p, err := bulk.DecodeContractPayload(raw)
		if err != nil {
			return nil, err
		}
		s := &Summary{Module: moduleType, Total: p.Total, Header: []string{"CONTRATO", "CLIENTE", "INÍCIO", "FIM", "VALOR MENSAL", "STATUS"}}
		for _, r := range contractRows(f, p.Preview) {
			end := r.Term.End
			if r.Term.OpenEnded {
				end = OpenEndedTerm
			}
			s.Rows = append(s.Rows, []string{r.Number, r.Customer, r.Term.Start, end, r.Monthly, r.Status.Text})
		}
		return s, nil
	}
	return nil, bulk.ErrInvalidModuleType(string(moduleType))
}
