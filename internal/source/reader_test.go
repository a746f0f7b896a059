package source

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func readAll(t *testing.T, rr RowReader) []Row {
	t.Helper()
	var rows []Row
	for {
		row, err := rr.Next()
		if err == io.EOF {
			return rows
		}
		require.NoError(t, err)
		rows = append(rows, row)
	}
}

func TestOpenSemicolonFile(t *testing.T) {
	input := "CNPJ;RAZAO_SOCIAL;VALOR\n00394460000141;UNIMED BH;100,50\n343889;OUTRA;7\n"

	rr, err := NewReader().Open(strings.NewReader(input))
	require.NoError(t, err)

	rows := readAll(t, rr)
	require.Len(t, rows, 2)
	require.Equal(t, "00394460000141", rows[0].Get(ColIdentifier))
	require.Equal(t, "UNIMED BH", rows[0].Get(ColName))
	require.Equal(t, "100,50", rows[0].Get(ColAmount))
}

func TestOpenSniffsCommaDelimiter(t *testing.T) {
	input := "CNPJ,VALOR\n123,45.6\n"

	rr, err := NewReader().Open(strings.NewReader(input))
	require.NoError(t, err)

	rows := readAll(t, rr)
	require.Len(t, rows, 1)
	require.Equal(t, "123", rows[0].Get(ColIdentifier))
	require.Equal(t, "45.6", rows[0].Get(ColAmount))
}

func TestOpenLatin1(t *testing.T) {
	// "SAÚDE" encoded as ISO 8859-1.
	enc := charmap.ISO8859_1.NewEncoder()
	encoded, err := enc.String("CNPJ;RAZAO_SOCIAL\n1;OPERADORA SAÚDE\n")
	require.NoError(t, err)

	rr, err := NewReader(WithLatin1()).Open(strings.NewReader(encoded))
	require.NoError(t, err)

	rows := readAll(t, rr)
	require.Len(t, rows, 1)
	require.Equal(t, "OPERADORA SAÚDE", rows[0].Get(ColName))
}

func TestOpenPadsShortRecords(t *testing.T) {
	input := "CNPJ;RAZAO_SOCIAL;UF\n123;NAME ONLY\n"

	rr, err := NewReader().Open(strings.NewReader(input))
	require.NoError(t, err)

	rows := readAll(t, rr)
	require.Len(t, rows, 1)
	require.Equal(t, "", rows[0].Get(ColRegion))
}

func TestOpenEmptyInput(t *testing.T) {
	_, err := NewReader().Open(strings.NewReader(""))
	require.Error(t, err)
}

func TestRowLookupAliasOrder(t *testing.T) {
	// First present alias wins.
	row := Row{"REGISTRO_OPERADORA": "999", "REGISTRO_ANS": "343889"}
	v, ok := row.Lookup(ColRegistryCode)
	require.True(t, ok)
	require.Equal(t, "343889", v)

	row = Row{"REGISTRO_OPERADORA": "999"}
	v, ok = row.Lookup(ColRegistryCode)
	require.True(t, ok)
	require.Equal(t, "999", v)

	_, ok = Row{}.Lookup(ColRegistryCode)
	require.False(t, ok)
}

func TestHeaderCaseInsensitive(t *testing.T) {
	input := "Cnpj;Razao_Social\n1;X\n"

	rr, err := NewReader().Open(strings.NewReader(input))
	require.NoError(t, err)

	rows := readAll(t, rr)
	require.Equal(t, "1", rows[0].Get(ColIdentifier))
	require.Equal(t, "X", rows[0].Get(ColName))
}
