package csvimport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const sniffSize = 4096

// Delimiters tried when none is configured, in order of preference on ties
var candidateDelimiters = []rune{',', ';', '\t'}

// Parser reads a spreadsheet export with a header row. Column names are
// normalised so "Endereço", "ENDERECO" and "endereco" name the same column.
type Parser struct {
	delimiter rune
	detect    bool
	reader    *csv.Reader
	columns   []string
	index     map[string]int
	line      int
}

// Option configures a Parser
type Option func(*Parser)

// WithDelimiter fixes the field delimiter and turns off detection
func WithDelimiter(d rune) Option {
	return func(p *Parser) {
		p.delimiter = d
		p.detect = false
	}
}

// NewParser prepares r for reading. A UTF-8 BOM is dropped and the delimiter
// is detected from the first line unless WithDelimiter is given.
func NewParser(r io.Reader, opts ...Option) (*Parser, error) {
	p := &Parser{delimiter: ',', detect: true, index: make(map[string]int)}
	for _, opt := range opts {
		opt(p)
	}

	buf := bufio.NewReaderSize(r, sniffSize)
	if bom, _ := buf.Peek(3); bytes.Equal(bom, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = buf.Discard(3)
	}

	head, err := buf.Peek(sniffSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(bytes.TrimSpace(head)) == 0 {
		return nil, ErrEmptyFile
	}
	if !validUTF8Prefix(head) {
		return nil, ErrInvalidEncoding
	}
	if p.detect {
		p.delimiter = DetectDelimiter(head)
	}

	p.reader = csv.NewReader(buf)
	p.reader.Comma = p.delimiter
	p.reader.LazyQuotes = true
	p.reader.TrimLeadingSpace = true
	p.reader.FieldsPerRecord = -1
	return p, nil
}

// ParseBytes is NewParser over an in-memory file
func ParseBytes(data []byte, opts ...Option) (*Parser, error) {
	return NewParser(bytes.NewReader(data), opts...)
}

// validUTF8Prefix allows a multi-byte rune cut at the end of the sniffed block
func validUTF8Prefix(b []byte) bool {
	for i := 0; i < utf8.UTFMax && len(b) > 0; i++ {
		if utf8.Valid(b) {
			return true
		}
		b = b[:len(b)-1]
	}
	return utf8.Valid(b)
}

// DetectDelimiter picks the candidate delimiter occurring most often on the
// first line, ignoring quoted text. Comma wins when nothing is found.
func DetectDelimiter(sample []byte) rune {
	if i := bytes.IndexByte(sample, '\n'); i >= 0 {
		sample = sample[:i]
	}
	counts := make(map[rune]int, len(candidateDelimiters))
	quoted := false
	for _, r := range string(sample) {
		if r == '"' {
			quoted = !quoted
			continue
		}
		if !quoted {
			counts[r]++
		}
	}
	best, bestCount := ',', 0
	for _, d := range candidateDelimiters {
		if counts[d] > bestCount {
			best, bestCount = d, counts[d]
		}
	}
	return best
}

// Delimiter returns the delimiter in use
func (p *Parser) Delimiter() rune {
	return p.delimiter
}

// ParseHeader reads the header row
func (p *Parser) ParseHeader() error {
	record, err := p.reader.Read()
	if err == io.EOF {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}
	p.line = 1

	p.columns = make([]string, len(record))
	named := 0
	for i, h := range record {
		name := NormalizeColumn(h)
		p.columns[i] = name
		if name == "" {
			continue
		}
		named++
		if _, dup := p.index[name]; !dup {
			p.index[name] = i
		}
	}
	if named == 0 {
		return ErrMissingHeader
	}
	return nil
}

// Columns returns the normalised header names in file order
func (p *Parser) Columns() []string {
	return p.columns
}

// Has reports whether the normalised column exists
func (p *Parser) Has(column string) bool {
	_, ok := p.index[column]
	return ok
}

// Rename maps header aliases onto canonical column names. Aliases are tried
// in order and only when the canonical name is not already present.
func (p *Parser) Rename(aliases map[string][]string) {
	for canonical, names := range aliases {
		if p.Has(canonical) {
			continue
		}
		for _, alias := range names {
			if i, ok := p.index[alias]; ok {
				p.index[canonical] = i
				break
			}
		}
	}
}

// Missing returns the required columns that are not present
func (p *Parser) Missing(required ...string) []string {
	var missing []string
	for _, c := range required {
		if !p.Has(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// Row is one data line keyed by normalised column
type Row struct {
	Line   int
	values map[string]string
}

// Get returns the trimmed cell for column, or "" when absent
func (r *Row) Get(column string) string {
	return r.values[column]
}

// IsBlank reports whether every cell is empty
func (r *Row) IsBlank() bool {
	for _, v := range r.values {
		if v != "" {
			return false
		}
	}
	return true
}

// ReadRow returns the next data line, or io.EOF
func (p *Parser) ReadRow() (*Row, error) {
	record, err := p.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	p.line++
	if err != nil {
		return nil, fmt.Errorf("error reading row %d: %w", p.line, err)
	}

	row := &Row{Line: p.line, values: make(map[string]string, len(p.index))}
	for column, i := range p.index {
		if i < len(record) {
			row.values[column] = strings.TrimSpace(record[i])
		}
	}
	return row, nil
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeColumn folds a header cell to lower-case ASCII words joined by
// underscores: "Nº do Contrato" becomes "n_do_contrato".
func NormalizeColumn(header string) string {
	folded, _, err := transform.String(stripMarks, header)
	if err != nil {
		folded = header
	}
	folded = strings.ToLower(strings.TrimSpace(folded))

	var b strings.Builder
	pendingSep := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}
