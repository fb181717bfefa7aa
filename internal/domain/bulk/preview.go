package bulk

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/erp/importer/internal/domain/shared"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ErrCodeInvalidPreview is the domain error code for preview payloads that
// fail to decode or validate
const ErrCodeInvalidPreview = "INVALID_PREVIEW_PAYLOAD"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON names so errors match what the backend sent
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// CustomerRecord is one extracted customer row. No field is guaranteed present.
type CustomerRecord struct {
	Nome     *string `json:"nome,omitempty"`
	CPFCNPJ  *string `json:"cpf_cnpj,omitempty"`
	Telefone *string `json:"telefone,omitempty"`
	Endereco *string `json:"endereco,omitempty"`
	Status   *string `json:"status,omitempty"`
}

// ContractRecord is one extracted contract row. DataInicio and DataFim are
// server-formatted date text; a nil DataFim means an open-ended contract.
type ContractRecord struct {
	NumeroContrato *string          `json:"numero_contrato,omitempty"`
	TipoContrato   *string          `json:"tipo_contrato,omitempty"`
	Cliente        *string          `json:"cliente,omitempty"`
	DataInicio     *string          `json:"data_inicio,omitempty"`
	DataFim        *string          `json:"data_fim,omitempty"`
	ValorMensal    *decimal.Decimal `json:"valor_mensal,omitempty"`
	Status         *string          `json:"status,omitempty"`
}

// Record is the set of per-kind preview record types
type Record interface {
	CustomerRecord | ContractRecord
}

// Payload is the server-computed preview of an uploaded file. Preview may hold
// fewer rows than Total. FilePath is an opaque server-side handle and must be
// sent back unchanged when the import is confirmed.
type Payload[R Record] struct {
	Total    int    `json:"total" validate:"gte=0"`
	FilePath string `json:"file_path" validate:"required"`
	Preview  []R    `json:"preview" validate:"required"`
}

type (
	CustomerPayload = Payload[CustomerRecord]
	ContractPayload = Payload[ContractRecord]
)

// DecodeCustomerPayload parses and validates a customer preview payload
func DecodeCustomerPayload(data []byte) (*CustomerPayload, error) {
	return decodePayload[CustomerRecord](data)
}

// DecodeContractPayload parses and validates a contract preview payload
func DecodeContractPayload(data []byte) (*ContractPayload, error) {
	return decodePayload[ContractRecord](data)
}

func decodePayload[R Record](data []byte) (*Payload[R], error) {
	var p Payload[R]
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, invalidPreview("malformed JSON: " + err.Error())
	}
	if err := validate.Struct(&p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return nil, invalidPreview(fmt.Sprintf("field '%s' failed '%s' validation", fe.Field(), fe.Tag()))
		}
		return nil, invalidPreview(err.Error())
	}
	return &p, nil
}

func invalidPreview(msg string) error {
	return shared.NewDomainError(ErrCodeInvalidPreview, "invalid preview payload: "+msg)
}

// IsValidationError reports whether err is a preview payload validation error
func IsValidationError(err error) bool {
	var de *shared.DomainError
	return errors.As(err, &de) && de.Code == ErrCodeInvalidPreview
}

// Str returns a pointer to s, for building records with present fields
func Str(s string) *string {
	return &s
}
