package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
)

// DefaultMinColumns is the smallest column count accepted from a download.
const DefaultMinColumns = 5

// Options controls header detection and validation.
type Options struct {
	// MinColumns rejects narrower tables. Zero means DefaultMinColumns.
	MinColumns int
	// IsHeader reports whether a cell is a known column header. When any cell
	// of the first record matches, that record is used as the header row.
	IsHeader func(cell string) bool
	// DefaultColumns names columns by position for headerless payloads.
	DefaultColumns []string
}

func (o Options) minColumns() int {
	if o.MinColumns <= 0 {
		return DefaultMinColumns
	}
	return o.MinColumns
}

// Parse turns a downloaded payload into a Table. contentType is the
// response Content-Type and may be empty.
func Parse(payload []byte, contentType string, opts Options) (*Table, error) {
	format := "csv"
	if isHTML(payload, contentType) {
		format = "html"
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, parseErr(format, ErrEmptyPayload, "")
	}

	text, err := Decode(payload, contentType)
	if err != nil {
		return nil, parseErr(format, err, "decode")
	}

	var records [][]string
	var header []string
	if format == "html" {
		header, records, err = readHTML(text, opts.minColumns())
	} else {
		header, records, err = readCSV(text, opts)
	}
	if err != nil {
		return nil, parseErr(format, err, "")
	}
	if len(records) == 0 {
		return nil, parseErr(format, ErrNoTable, "no data rows")
	}

	t := build(header, records, opts)
	if n := len(t.Columns); n < opts.minColumns() {
		return nil, parseErr(format, ErrTooFewColumns, "got %d, need at least %d", n, opts.minColumns())
	}
	return t, nil
}

// Decode converts payload to UTF-8 text. A charset declared in contentType,
// a BOM, or an HTML meta tag wins. Otherwise valid UTF-8 is kept as is and
// anything else is read as Shift-JIS.
func Decode(payload []byte, contentType string) (string, error) {
	var enc encoding.Encoding
	e, name, certain := charset.DetermineEncoding(payload, contentType)
	switch {
	case certain || name != "windows-1252":
		enc = e
	case !utf8.Valid(payload):
		enc = japanese.ShiftJIS
	}

	out := payload
	if enc != nil {
		var err error
		out, err = enc.NewDecoder().Bytes(payload)
		if err != nil {
			return "", err
		}
	}
	return strings.TrimPrefix(string(out), "\ufeff"), nil
}

func isHTML(payload []byte, contentType string) bool {
	if strings.Contains(strings.ToLower(contentType), "html") {
		return true
	}
	trimmed := bytes.TrimLeft(payload, " \t\r\n")
	trimmed = bytes.TrimPrefix(trimmed, []byte("\xef\xbb\xbf"))
	return len(trimmed) > 0 && trimmed[0] == '<'
}

// --- CSV ---

func readCSV(text string, opts Options) ([]string, [][]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = sniffDelimiter(text)
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var header []string
	var records [][]string
	first := true
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		rec = trimCells(rec)
		if blank(rec) {
			continue
		}
		if first {
			first = false
			if looksLikeHeader(rec, opts.IsHeader) {
				header = rec
				continue
			}
		}
		records = append(records, rec)
	}
	return header, records, nil
}

// sniffDelimiter picks tab when the first non-blank line contains one.
func sniffDelimiter(text string) rune {
	for _, line := range strings.SplitN(text, "\n", 8) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.Contains(line, "\t") {
			return '\t'
		}
		return ','
	}
	return ','
}

func looksLikeHeader(rec []string, isHeader func(string) bool) bool {
	if isHeader == nil {
		return false
	}
	for _, c := range rec {
		if c != "" && isHeader(c) {
			return true
		}
	}
	return false
}

// --- HTML ---

func readHTML(text string, minColumns int) ([]string, [][]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return nil, nil, err
	}

	// First table with data rows and at least minColumns wins. Failing
	// that, the first table with data rows.
	var header []string
	var records [][]string
	doc.Find("table").EachWithBreak(func(_ int, tbl *goquery.Selection) bool {
		h, rows := htmlTable(tbl)
		if len(rows) == 0 {
			return true
		}
		if records == nil {
			header, records = h, rows
		}
		if width(h, rows) >= minColumns {
			header, records = h, rows
			return false
		}
		return true
	})
	if records == nil {
		return nil, nil, ErrNoTable
	}
	return header, records, nil
}

func htmlTable(tbl *goquery.Selection) ([]string, [][]string) {
	var header []string
	var rows [][]string

	if head := tbl.Find("thead tr").First(); head.Length() > 0 {
		header = cellTexts(head.Find("th, td"))
	}
	tbl.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if tr.ParentsFiltered("thead").Length() > 0 {
			return
		}
		tds := tr.Find("td")
		if tds.Length() == 0 {
			if header == nil {
				header = cellTexts(tr.Find("th"))
			}
			return
		}
		row := cellTexts(tr.Find("th, td"))
		if !blank(row) {
			rows = append(rows, row)
		}
	})
	return header, rows
}

func cellTexts(sel *goquery.Selection) []string {
	out := make([]string, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, strings.TrimSpace(s.Text()))
	})
	return out
}

// --- shaping ---

func width(header []string, records [][]string) int {
	w := len(header)
	for _, r := range records {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}

// build names the columns and pads every row to the same width.
func build(header []string, records [][]string, opts Options) *Table {
	n := width(header, records)

	cols := make([]string, n)
	for i := range cols {
		switch {
		case i < len(header) && header[i] != "":
			cols[i] = header[i]
		case header == nil && i < len(opts.DefaultColumns):
			cols[i] = opts.DefaultColumns[i]
		default:
			cols[i] = PositionalName(i + 1)
		}
	}

	rows := make([][]string, len(records))
	for i, r := range records {
		row := make([]string, n)
		copy(row, r)
		rows[i] = row
	}
	return &Table{Columns: cols, Rows: rows}
}

func trimCells(rec []string) []string {
	for i, c := range rec {
		rec[i] = strings.TrimSpace(c)
	}
	return rec
}

func blank(rec []string) bool {
	for _, c := range rec {
		if c != "" {
			return false
		}
	}
	return true
}
