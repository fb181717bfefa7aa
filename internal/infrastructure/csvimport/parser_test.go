package csvimport

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParser(t *testing.T) {
	t.Run("UTF-8 BOM is stripped", func(t *testing.T) {
		p, err := NewParser(strings.NewReader("\xEF\xBB\xBFnome,cpf\nAna,123"))
		require.NoError(t, err)
		require.NoError(t, p.ParseHeader())
		assert.Equal(t, []string{"nome", "cpf"}, p.Columns())
	})

	t.Run("Empty file returns error", func(t *testing.T) {
		p, err := NewParser(strings.NewReader(""))
		assert.ErrorIs(t, err, ErrEmptyFile)
		assert.Nil(t, p)
	})

	t.Run("Whitespace only file returns error", func(t *testing.T) {
		_, err := NewParser(strings.NewReader(" \n\n"))
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("Latin-1 file is rejected", func(t *testing.T) {
		_, err := NewParser(strings.NewReader("endere\xe7o\nRua A"))
		assert.ErrorIs(t, err, ErrInvalidEncoding)
	})

	t.Run("Semicolon delimiter is detected", func(t *testing.T) {
		p, err := ParseBytes([]byte("nome;valor\nAna;1.234,50"))
		require.NoError(t, err)
		assert.Equal(t, ';', p.Delimiter())
	})

	t.Run("Explicit delimiter wins", func(t *testing.T) {
		p, err := ParseBytes([]byte("nome;valor\nAna;1"), WithDelimiter('|'))
		require.NoError(t, err)
		assert.Equal(t, '|', p.Delimiter())
	})
}

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		name   string
		sample string
		want   rune
	}{
		{"comma", "a,b,c\n1;2", ','},
		{"semicolon", "a;b;c\n1,2,3,4,5", ';'},
		{"tab", "a\tb\tc", '\t'},
		{"quoted commas ignored", `"a,b,c";d;e`, ';'},
		{"single column", "nome", ','},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectDelimiter([]byte(tt.sample)))
		})
	}
}

func TestNormalizeColumn(t *testing.T) {
	tests := map[string]string{
		"Endereço":         "endereco",
		"  NOME  ":         "nome",
		"CPF/CNPJ":         "cpf_cnpj",
		"Nº do Contrato":   "n_do_contrato",
		"Data de Início":   "data_de_inicio",
		"valor_mensal":     "valor_mensal",
		"Situação (atual)": "situacao_atual",
		"***":              "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeColumn(in), in)
	}
}

func TestParseHeader(t *testing.T) {
	t.Run("Blank header is missing", func(t *testing.T) {
		p, err := ParseBytes([]byte(",,\n1,2,3"))
		require.NoError(t, err)
		assert.ErrorIs(t, p.ParseHeader(), ErrMissingHeader)
	})

	t.Run("First duplicate column wins", func(t *testing.T) {
		p, err := ParseBytes([]byte("nome,Nome\nAna,Bia"))
		require.NoError(t, err)
		require.NoError(t, p.ParseHeader())
		row, err := p.ReadRow()
		require.NoError(t, err)
		assert.Equal(t, "Ana", row.Get("nome"))
	})
}

func TestRenameAndMissing(t *testing.T) {
	p, err := ParseBytes([]byte("Razão Social,Documento,Fone\nACME,123,555"))
	require.NoError(t, err)
	require.NoError(t, p.ParseHeader())

	assert.Equal(t, []string{"nome", "cpf_cnpj"}, p.Missing("nome", "cpf_cnpj"))
	p.Rename(customerColumns)
	assert.Empty(t, p.Missing("nome", "cpf_cnpj", "telefone"))

	row, err := p.ReadRow()
	require.NoError(t, err)
	assert.Equal(t, "ACME", row.Get("nome"))
	assert.Equal(t, "123", row.Get("cpf_cnpj"))
	assert.Equal(t, "555", row.Get("telefone"))
}

func TestRenameKeepsCanonicalColumn(t *testing.T) {
	p, err := ParseBytes([]byte("cliente,nome\nACME,Ana"))
	require.NoError(t, err)
	require.NoError(t, p.ParseHeader())
	p.Rename(customerColumns)

	row, err := p.ReadRow()
	require.NoError(t, err)
	assert.Equal(t, "Ana", row.Get("nome"))
}

func TestReadRow(t *testing.T) {
	p, err := ParseBytes([]byte("nome,telefone\n  Ana , 555 \nBia\n,\n"))
	require.NoError(t, err)
	require.NoError(t, p.ParseHeader())

	row, err := p.ReadRow()
	require.NoError(t, err)
	assert.Equal(t, 2, row.Line)
	assert.Equal(t, "Ana", row.Get("nome"))
	assert.Equal(t, "555", row.Get("telefone"))

	row, err = p.ReadRow()
	require.NoError(t, err)
	assert.Equal(t, "Bia", row.Get("nome"))
	assert.Equal(t, "", row.Get("telefone"))
	assert.False(t, row.IsBlank())

	row, err = p.ReadRow()
	require.NoError(t, err)
	assert.True(t, row.IsBlank())

	_, err = p.ReadRow()
	assert.Equal(t, io.EOF, err)
}
