// Package csvimport reads bank statement CSV files: encoding fallback,
// delimiter sniffing, bank format detection, column mapping suggestion and
// cell parsing. It never touches the database.
package csvimport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	apperrors "gastos/internal/errors"

	"golang.org/x/text/encoding/charmap"
)

// Encoding names reported for a decoded file.
const (
	EncodingUTF8   = "utf-8"
	EncodingLatin1 = "latin-1"
)

const sniffBytes = 1024

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// delimiters are the sniffing candidates; the order breaks ties.
var delimiters = []rune{',', ';', '\t'}

// Table is a decoded CSV file. Every row has exactly len(Columns) cells:
// short rows are padded with empty strings and extra cells are dropped.
type Table struct {
	Columns   []string
	Rows      [][]string
	Delimiter rune
	Encoding  string

	index map[string]int
}

// Has reports whether the table has a column with the given name.
func (t *Table) Has(column string) bool {
	_, ok := t.index[column]
	return ok
}

// Cell returns the trimmed value of column in row, or "" when the column is
// unknown or empty.
func (t *Table) Cell(row []string, column string) string {
	if column == "" {
		return ""
	}
	i, ok := t.index[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

type decoder struct {
	name   string
	decode func([]byte) (string, bool)
}

var decoders = []decoder{
	{EncodingUTF8, func(raw []byte) (string, bool) {
		raw = bytes.TrimPrefix(raw, utf8BOM)
		if !utf8.Valid(raw) {
			return "", false
		}
		return string(raw), true
	}},
	{EncodingLatin1, func(raw []byte) (string, bool) {
		out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			return "", false
		}
		return string(out), true
	}},
}

// Read decodes raw CSV bytes. Encodings are tried in order (UTF-8, then
// Latin-1) and the first one that yields a parseable table with a header
// wins. ErrDecode is returned when none does.
func Read(raw []byte) (*Table, error) {
	var lastErr error
	for _, dec := range decoders {
		text, ok := dec.decode(raw)
		if !ok {
			continue
		}
		table, err := parse(text)
		if err != nil {
			lastErr = err
			continue
		}
		table.Encoding = dec.name
		return table, nil
	}
	if lastErr == nil {
		lastErr = errors.New("no encoding candidate could decode the input")
	}
	return nil, apperrors.Wrap(apperrors.ErrDecode, lastErr)
}

func parse(text string) (*Table, error) {
	delim := SniffDelimiter(text)

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, errors.New("empty file: no header row")
	}
	if err != nil {
		return nil, err
	}

	columns := make([]string, len(header))
	index := make(map[string]int, len(header))
	for i, name := range header {
		columns[i] = strings.TrimSpace(name)
		if _, dup := index[columns[i]]; !dup {
			index[columns[i]] = i
		}
	}
	if len(columns) == 1 && columns[0] == "" {
		return nil, errors.New("header row is blank")
	}

	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make([]string, len(columns))
		copy(row, record)
		rows = append(rows, row)
	}

	return &Table{Columns: columns, Rows: rows, Delimiter: delim, index: index}, nil
}

// SniffDelimiter picks the delimiter among comma, semicolon and tab from the
// first KiB of text. Occurrences inside double quotes are ignored. The
// delimiter whose per-record count is consistent across the most records
// wins, then the one with the larger count, then candidate order. Comma is
// returned when no candidate occurs at all.
func SniffDelimiter(text string) rune {
	sample := text
	if len(sample) > sniffBytes {
		sample = sample[:sniffBytes]
		// drop the trailing partial record
		if i := strings.LastIndexByte(sample, '\n'); i > 0 {
			sample = sample[:i]
		}
	}

	best, bestHits, bestCount := ',', 0, 0
	for _, d := range delimiters {
		count, hits := modalCount(recordCounts(sample, d))
		if count == 0 {
			continue
		}
		if hits > bestHits || (hits == bestHits && count > bestCount) {
			best, bestHits, bestCount = d, hits, count
		}
	}
	return best
}

// recordCounts counts d outside quotes for each non-blank record. A quote
// only opens a quoted field at the start of a field, so a bare quote such as
// `27" LG` is plain text.
func recordCounts(sample string, d rune) []int {
	var (
		counts     []int
		n          int
		inQuotes   bool
		justClosed bool
		fieldStart = true
		nonBlank   bool
	)
	flush := func() {
		if nonBlank {
			counts = append(counts, n)
		}
		n, nonBlank = 0, false
	}
	for _, r := range sample {
		if inQuotes {
			if r == '"' {
				inQuotes, justClosed = false, true
			}
			continue
		}
		reopened := justClosed && r == '"'
		justClosed = false
		switch {
		case reopened:
			// escaped "" inside a quoted field
			inQuotes = true
		case r == '"' && fieldStart:
			inQuotes, fieldStart, nonBlank = true, false, true
		case r == '\n':
			flush()
			fieldStart = true
		case r == '\r':
		case r == d:
			n++
			nonBlank, fieldStart = true, true
		default:
			nonBlank, fieldStart = true, false
		}
	}
	flush()
	return counts
}

// modalCount returns the most frequent nonzero count and how many records
// share it. Larger counts win frequency ties.
func modalCount(counts []int) (count, hits int) {
	freq := make(map[int]int)
	for _, c := range counts {
		if c > 0 {
			freq[c]++
		}
	}
	for c, f := range freq {
		if f > hits || (f == hits && c > count) {
			count, hits = c, f
		}
	}
	return count, hits
}
