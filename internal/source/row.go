// Package source reads the regulator's tabular open-data files into
// column-normalized rows the loaders consume.
package source

import (
	"io"
	"strings"
)

// Column is a logical field the pipeline cares about, independent of how
// a particular file vintage spells its header.
type Column string

const (
	ColIdentifier   Column = "identifier"
	ColRegistryCode Column = "registry_code"
	ColName         Column = "name"
	ColAmount       Column = "amount"
	ColYear         Column = "year"
	ColQuarter      Column = "quarter"
	ColStatus       Column = "status"
	ColCategory     Column = "category"
	ColRegion       Column = "region"
)

// aliases maps each logical column to the header spellings observed
// across published vintages of the source files, in precedence order.
// The first header present in a row wins. Headers are matched after
// upper-casing and trimming, so case variants collapse to one entry.
//
// Keeping this an explicit table makes source-format drift a reviewable
// change instead of an ad hoc fallback chain.
var aliases = map[Column][]string{
	ColIdentifier:   {"CNPJ", "CD_CNPJ", "NR_CNPJ"},
	ColRegistryCode: {"REGISTRO_ANS", "REGISTRO_OPERADORA", "REG_ANS", "CD_OPERADORA"},
	ColName:         {"RAZAO_SOCIAL", "NM_RAZAO_SOCIAL", "NOME_FANTASIA"},
	ColAmount:       {"VALOR", "VL_SALDO_FINAL", "VL_DESPESA"},
	ColYear:         {"ANO", "NR_ANO"},
	ColQuarter:      {"TRIMESTRE", "NR_TRIMESTRE"},
	ColStatus:       {"STATUS", "STATUS_QUALIDADE"},
	ColCategory:     {"MODALIDADE", "NM_MODALIDADE"},
	ColRegion:       {"UF", "SG_UF"},
}

// Row is one source record keyed by normalized (upper-cased, trimmed)
// header name.
type Row map[string]string

// Lookup resolves a logical column against the row's headers using the
// declared alias order and reports whether any alias was present.
func (r Row) Lookup(c Column) (string, bool) {
	for _, name := range aliases[c] {
		if v, ok := r[name]; ok {
			return v, true
		}
	}
	return "", false
}

// Get is Lookup without the presence flag; absent columns read as "".
func (r Row) Get(c Column) string {
	v, _ := r.Lookup(c)
	return v
}

// NormalizeHeader canonicalizes a raw header cell for Row keys.
func NormalizeHeader(h string) string {
	return strings.ToUpper(strings.TrimSpace(h))
}

// RowReader streams rows from a source file. Next returns io.EOF once
// the input is exhausted.
type RowReader interface {
	Next() (Row, error)
}

type sliceReader struct {
	rows []Row
	pos  int
}

// FromRows adapts an in-memory slice to a RowReader, mainly for tests
// and fixtures.
func FromRows(rows []Row) RowReader {
	return &sliceReader{rows: rows}
}

func (s *sliceReader) Next() (Row, error) {
	if s.pos >= len(s.rows) {
		return nil, io.EOF
	}
	r := s.rows[s.pos]
	s.pos++
	return r, nil
}
