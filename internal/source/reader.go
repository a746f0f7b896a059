package source

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Reader decodes delimited source files. The regulator publishes
// semicolon-delimited files, frequently in Latin-1; both the delimiter
// and the encoding are handled here so downstream code only ever sees
// normalized UTF-8 rows.
type Reader struct {
	comma  rune
	latin1 bool
	sniff  bool
}

// Option configures a Reader.
type Option func(*Reader)

// WithComma fixes the field delimiter instead of sniffing it from the
// header line.
func WithComma(c rune) Option {
	return func(r *Reader) {
		r.comma = c
		r.sniff = false
	}
}

// WithLatin1 decodes the input as ISO 8859-1 instead of UTF-8.
func WithLatin1() Option {
	return func(r *Reader) { r.latin1 = true }
}

// NewReader builds a Reader. By default the delimiter is sniffed from
// the header line (';' wins over ',') and the input is read as UTF-8.
func NewReader(opts ...Option) *Reader {
	r := &Reader{comma: ';', sniff: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open reads the header line and returns a RowReader streaming the
// remaining records. Rows with fewer cells than the header are padded
// with empty strings; surplus cells are dropped.
func (r *Reader) Open(rd io.Reader) (RowReader, error) {
	if r.latin1 {
		rd = transform.NewReader(rd, charmap.ISO8859_1.NewDecoder())
	}
	buf := bufio.NewReader(rd)

	comma := r.comma
	if r.sniff {
		comma = sniffComma(buf)
	}

	cr := csv.NewReader(buf)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("source file is empty")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = NormalizeHeader(h)
	}
	return &csvRows{cr: cr, cols: cols}, nil
}

// sniffComma inspects the buffered header line and picks ';' when it
// appears, otherwise ','.
func sniffComma(buf *bufio.Reader) rune {
	peek, _ := buf.Peek(4096)
	for _, b := range peek {
		switch b {
		case ';':
			return ';'
		case '\n':
			return ','
		}
	}
	return ','
}

type csvRows struct {
	cr   *csv.Reader
	cols []string
}

func (c *csvRows) Next() (Row, error) {
	record, err := c.cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read record: %w", err)
	}
	row := make(Row, len(c.cols))
	for i, col := range c.cols {
		if col == "" {
			continue
		}
		if i < len(record) {
			row[col] = record[i]
		} else {
			row[col] = ""
		}
	}
	return row, nil
}
