package csvimport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRowError_Error(t *testing.T) {
	assert.Equal(t, "row 3, column 'valor_mensal': invalid monetary amount",
		RowError{Row: 3, Column: "valor_mensal", Message: "invalid monetary amount"}.Error())
	assert.Equal(t, "row 4: bare quote", RowError{Row: 4, Message: "bare quote"}.Error())
}

func TestErrorCollection(t *testing.T) {
	ec := NewErrorCollection(2)
	assert.Equal(t, "no errors", ec.String())

	ec.Add(RowError{Row: 2, Message: "a"})
	ec.Add(RowError{Row: 3, Message: "b"})
	ec.Add(RowError{Row: 4, Message: "c"})

	assert.Len(t, ec.Errors(), 2)
	assert.Equal(t, 3, ec.TotalCount())
	assert.True(t, ec.IsTruncated())
	assert.Equal(t, "row 2: a; row 3: b (and 1 more)", ec.String())
}

func TestErrorCollection_Unlimited(t *testing.T) {
	ec := NewErrorCollection(0)
	for i := 0; i < 5; i++ {
		ec.Add(RowError{Row: i})
	}
	assert.Len(t, ec.Errors(), 5)
	assert.False(t, ec.IsTruncated())
}

func TestMissingColumnsError(t *testing.T) {
	var err error = &MissingColumnsError{Columns: []string{"nome", "cpf_cnpj"}}

	assert.ErrorIs(t, err, ErrMissingColumns)
	assert.Equal(t, "CSV file missing required columns: nome, cpf_cnpj", err.Error())
}
