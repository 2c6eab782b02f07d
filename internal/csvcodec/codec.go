// Package csvcodec converts transaction lists to and from the ledger's CSV
// import/export format:
//
//	date,type,category,note,amount
//	2024-01-15,income,salary,"Monthly pay",50000
//
// The note column is always quoted on export. Other columns are written
// unquoted and must not contain commas or line breaks. Quoting is optional
// on import.
package csvcodec

import (
	"errors"
	"strings"

	"finexpress/internal/core"
)

// Header is the canonical first line of every export.
const Header = "date,type,category,note,amount"

// ErrInvalidHeader rejects an import whose first line is not Header.
var ErrInvalidHeader = errors.New("invalid CSV header")

// Result is the outcome of a best-effort import.
type Result struct {
	Added   []core.Transaction
	Skipped int
}

// Encode renders list as CSV with the header line first. Lines are joined
// by "\n" without a trailing newline.
func Encode(list []core.Transaction) string {
	var b strings.Builder
	b.WriteString(Header)
	for _, t := range list {
		b.WriteByte('\n')
		b.WriteString(t.Date)
		b.WriteByte(',')
		b.WriteString(string(t.Type))
		b.WriteByte(',')
		b.WriteString(t.Category)
		b.WriteByte(',')
		b.WriteString(QuoteField(t.Note))
		b.WriteByte(',')
		b.WriteString(t.Amount.String())
	}
	return b.String()
}

// QuoteField wraps s in double quotes, doubling any quote inside it.
func QuoteField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Decode parses CSV text produced by Encode or a compatible tool.
//
// A leading byte order mark is dropped and empty lines are ignored. The
// first remaining line must equal Header, ignoring case and surrounding
// whitespace, otherwise ErrInvalidHeader is returned and nothing is added.
// Each data line needs at least five fields, a non-empty date, a category
// without commas, a known type and a positive amount. Lines failing any
// check are skipped and counted. Accepted lines get fresh IDs and keep
// file order.
func Decode(text string) (Result, error) {
	lines := splitLines(strings.TrimPrefix(text, "\ufeff"))
	if len(lines) == 0 || strings.ToLower(strings.TrimSpace(lines[0])) != Header {
		return Result{}, ErrInvalidHeader
	}

	var res Result
	for _, line := range lines[1:] {
		t, ok := decodeLine(line)
		if !ok {
			res.Skipped++
			continue
		}
		res.Added = append(res.Added, t)
	}
	return res, nil
}

func decodeLine(line string) (core.Transaction, bool) {
	fields := ParseLine(line)
	if len(fields) < 5 {
		return core.Transaction{}, false
	}
	date, typ, category, note, amountStr := fields[0], fields[1], fields[2], fields[3], fields[4]
	if date == "" || core.ValidateCategory(category) != nil {
		return core.Transaction{}, false
	}
	txType, err := core.ParseTxType(typ)
	if err != nil {
		return core.Transaction{}, false
	}
	amount, err := core.ParseAmount(amountStr)
	if err != nil {
		return core.Transaction{}, false
	}
	return core.Transaction{
		ID:       core.NewID(),
		Date:     date,
		Type:     txType,
		Category: category,
		Note:     note,
		Amount:   amount,
	}, true
}

// splitLines splits on "\n" or "\r\n" and drops empty lines.
func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSuffix(l, "\r")
		if l == "" {
			continue
		}
		out = append(out, l)
	}
	return out
}

// ParseLine splits a single CSV line into trimmed fields.
//
// A double quote toggles quoted mode, except that inside quotes a doubled
// quote produces one literal quote. Commas outside quotes end a field.
// The last field ends at the end of the line.
func ParseLine(line string) []string {
	var (
		out    []string
		cur    strings.Builder
		inside bool
	)
	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '"':
			if inside && i+1 < len(line) && line[i+1] == '"' {
				cur.WriteByte('"')
				i++
			} else {
				inside = !inside
			}
		case ch == ',' && !inside:
			out = append(out, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(ch)
		}
	}
	out = append(out, strings.TrimSpace(cur.String()))
	return out
}
