package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sample() Dataset {
	return Dataset{
		Title:   "Requests by team",
		Headers: []string{"Team", "Count", "Open"},
		Rows: []map[string]string{
			{"Team": "Mechanics Team", "Count": "4", "Open": "1"},
			{"Team": "IT Support Team", "Count": "2"},
		},
	}
}

func TestForFormat(t *testing.T) {
	for _, format := range []string{"csv", "PDF", "xlsx", "excel"} {
		r, err := ForFormat(format)
		require.NoError(t, err, format)
		assert.NotEmpty(t, r.ContentType())
	}
	_, err := ForFormat("docx")
	assert.Error(t, err)
}

func TestCSVRendererOrdersColumnsByHeader(t *testing.T) {
	out, err := CSVRenderer{}.Render(sample())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Team,Count,Open", lines[0])
	assert.Equal(t, "IT Support Team,2,", lines[2])
}

func TestXLSXRendererWritesRows(t *testing.T) {
	out, err := XLSXRenderer{}.Render(sample())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	rows, err := f.GetRows(xlsxSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Mechanics Team", "4", "1"}, rows[1])
}

func TestPDFRendererProducesDocument(t *testing.T) {
	out, err := PDFRenderer{}.Render(sample())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderersRequireHeaders(t *testing.T) {
	for _, r := range []Renderer{CSVRenderer{}, PDFRenderer{}, XLSXRenderer{}} {
		_, err := r.Render(Dataset{})
		assert.Error(t, err)
	}
}
