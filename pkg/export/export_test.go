package export

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"StudentID", "Name", "PendingFeeINR"},
		Rows: []map[string]string{
			{"StudentID": "STU1", "Name": "Anu, K", "PendingFeeINR": "600"},
			{"StudentID": "STU2", "PendingFeeINR": "0"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "StudentID,Name,PendingFeeINR\nSTU1,\"Anu, K\",600\nSTU2,,0\n", string(out))

	_, err = NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestCSVExporterNeutralizesFormulas(t *testing.T) {
	data := Dataset{
		Headers: []string{"Name", "PendingFeeINR"},
		Rows: []map[string]string{
			{"Name": "=HYPERLINK(\"x\")", "PendingFeeINR": "-500"},
			{"Name": "@cmd", "PendingFeeINR": "+12.5"},
		},
	}
	var buf strings.Builder
	require.NoError(t, NewCSVExporter().Write(&buf, data))
	assert.Equal(t, "Name,PendingFeeINR\n\"'=HYPERLINK(\"\"x\"\")\",-500\n'@cmd,+12.5\n", buf.String())
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset(), "Pending Fees Report")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "%PDF"))

	wide := Dataset{Headers: []string{"A", "B", "C", "D", "E", "F", "G", "H"}}
	wide.Rows = []map[string]string{{"A": strings.Repeat("long text ", 20)}}
	out, err = NewPDFExporter().Render(wide, "")
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	_, err = NewPDFExporter().Render(Dataset{}, "x")
	assert.Error(t, err)
}

func TestPDFExporterPaginates(t *testing.T) {
	data := Dataset{Headers: []string{"StudentID", "PendingFeeINR"}}
	for i := 0; i < 120; i++ {
		data.Rows = append(data.Rows, map[string]string{"StudentID": fmt.Sprintf("STU%03d", i), "PendingFeeINR": "500"})
	}
	out, err := NewPDFExporter().Render(data, "Pending Fees Report")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, strings.Count(string(out), "/Type /Page\n"), 3)
}

func TestNumericColumns(t *testing.T) {
	data := Dataset{
		Headers: []string{"Name", "Fee", "Blank"},
		Rows: []map[string]string{
			{"Name": "Anu", "Fee": "600"},
			{"Name": "42", "Fee": "-12.5"},
		},
	}
	assert.Equal(t, []bool{false, true, false}, numericColumns(data))
}
