package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	exporter := NewCSVExporter()
	data := Dataset{
		Headers: []string{"ID", "Description"},
		Rows: []map[string]string{
			{"ID": "c-1", "Description": "water leak\nin room B-14"},
			{"ID": "c-2", "Description": "broken fan"},
		},
	}

	payload, err := exporter.Render(data)
	require.NoError(t, err)

	body := string(payload)
	assert.True(t, strings.HasPrefix(body, "\xef\xbb\xbf"), "expected UTF-8 BOM prefix")
	assert.Contains(t, body, "water leak in room B-14")

	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(body, "\xef\xbb\xbf")), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "ID,Description", strings.TrimSpace(lines[0]))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	exporter := NewPDFExporter()
	data := Dataset{
		Headers: []string{"ID", "Status"},
		Rows:    []map[string]string{{"ID": "o-1", "Status": "approved"}},
	}

	payload, err := exporter.Render(data, "Outing Register")
	require.NoError(t, err)
	require.True(t, len(payload) > 4)
	assert.Equal(t, "%PDF-", string(payload[:5]))
}

func TestPDFExporterClipsLongCells(t *testing.T) {
	long := strings.Repeat("x", 400)
	clipped := clip(long)
	assert.True(t, len([]rune(clipped)) <= maxCellRunes)
	assert.True(t, strings.HasSuffix(clipped, "..."))
}
