// Package format turns raw preview values into locale display strings.
// A Formatter is immutable after construction and safe for concurrent use.
package format

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // timezone database for minimal containers

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Placeholder is shown for any absent value
const Placeholder = "-"

// Locale describes how values are displayed
type Locale struct {
	Language       string // BCP 47 tag, e.g. pt-BR
	Currency       string // ISO 4217 code, e.g. BRL
	CurrencySymbol string // prefix for currency amounts, e.g. R$
	Timezone       string // IANA zone used for date-times carrying an offset
}

// DefaultLocale returns the deployment locale
func DefaultLocale() Locale {
	return Locale{
		Language:       "pt-BR",
		Currency:       "BRL",
		CurrencySymbol: "R$",
		Timezone:       "America/Sao_Paulo",
	}
}

// Formatter formats dates and currency amounts for one locale
type Formatter struct {
	tag        language.Tag
	printer    *message.Printer
	unit       currency.Unit
	symbol     string
	location   *time.Location
	dateLayout string
	groupSep   string
	decimalSep string
}

// New creates a Formatter for the given locale
func New(l Locale) (*Formatter, error) {
	tag, err := language.Parse(l.Language)
	if err != nil {
		return nil, fmt.Errorf("invalid locale language %q: %w", l.Language, err)
	}
	unit, err := currency.ParseISO(l.Currency)
	if err != nil {
		return nil, fmt.Errorf("invalid locale currency %q: %w", l.Currency, err)
	}
	loc, err := time.LoadLocation(l.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid locale timezone %q: %w", l.Timezone, err)
	}

	symbol := l.CurrencySymbol
	if symbol == "" {
		symbol = unit.String()
	}

	printer := message.NewPrinter(tag)
	group, dec := separators(printer)

	return &Formatter{
		tag:        tag,
		printer:    printer,
		unit:       unit,
		symbol:     symbol,
		location:   loc,
		dateLayout: shortDateLayout(tag),
		groupSep:   group,
		decimalSep: dec,
	}, nil
}

// separators reads the grouping and decimal separators p uses by printing a
// known value. Locales with non-Latin digits fall back to "," and ".".
func separators(p *message.Printer) (group, dec string) {
	sample := p.Sprint(number.Decimal(1234.5, number.Scale(2)))
	i := strings.Index(sample, "234")
	j := strings.LastIndex(sample, "50")
	if !strings.HasPrefix(sample, "1") || i < 1 || j < i+3 {
		return ",", "."
	}
	return sample[1:i], sample[i+3 : j]
}

// Default returns a Formatter for DefaultLocale
func Default() *Formatter {
	f, err := New(DefaultLocale())
	if err != nil {
		panic("format: default locale: " + err.Error())
	}
	return f
}

// shortDateLayout returns the zero-padded numeric date layout for tag
func shortDateLayout(tag language.Tag) string {
	region, _ := tag.Region()
	if region.String() == "US" {
		return "01/02/2006"
	}
	base, _ := tag.Base()
	switch base.String() {
	case "zh", "ja", "ko":
		return "2006/01/02"
	}
	return "02/01/2006"
}

// Accepted input layouts, most specific first. Values without an offset are
// read as wall-clock time and are not shifted between zones.
var inputLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseTime(value string) (time.Time, bool, bool) {
	for i, layout := range inputLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, i == 0, true
		}
	}
	return time.Time{}, false, false
}

// Date formats an ISO-like date as the locale's short date.
// Unparseable input is returned unchanged.
func (f *Formatter) Date(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return Placeholder
	}
	t, zoned, ok := parseTime(value)
	if !ok {
		return value
	}
	if zoned {
		t = t.In(f.location)
	}
	return t.Format(f.dateLayout)
}

// DateTime formats an ISO-like timestamp as the locale's date and time.
// Unparseable input is returned unchanged.
func (f *Formatter) DateTime(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return Placeholder
	}
	t, zoned, ok := parseTime(value)
	if !ok {
		return value
	}
	if zoned {
		t = t.In(f.location)
	}
	return t.Format(f.dateLayout + " 15:04:05")
}

// Number formats d with exactly two fractional digits and locale separators.
// Digits come from the decimal itself, so amounts of any size stay exact.
func (f *Formatter) Number(d decimal.Decimal) string {
	fixed := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	b.WriteString(sign)
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteString(f.groupSep)
		}
		b.WriteRune(r)
	}
	b.WriteString(f.decimalSep)
	b.WriteString(frac)
	return b.String()
}

// Currency formats amount in the locale currency, or Placeholder if nil
func (f *Formatter) Currency(amount *decimal.Decimal) string {
	if amount == nil {
		return Placeholder
	}
	return f.symbol + " " + f.Number(*amount)
}

// CurrencyCode returns the ISO code of the locale currency
func (f *Formatter) CurrencyCode() string {
	return f.unit.String()
}

// Language returns the locale tag, e.g. for the html lang attribute
func (f *Formatter) Language() string {
	return f.tag.String()
}
