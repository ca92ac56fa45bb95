package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/aman-zulfiqar/token-ratio-chart/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var points = []models.RatioPoint{
	{TimestampMs: 1_700_006_400_000, Ratio: 150.5, PriceA: 150.5, PriceB: 1},
	{TimestampMs: 1_700_092_800_000, Ratio: 0.000012345, PriceA: 0.000024690, PriceB: 2},
}

const want = "timestamp,ratio,price_a,price_b\n" +
	"2023-11-15T00:00:00Z,150.5,150.5,1\n" +
	"2023-11-16T00:00:00Z,1.2345e-05,2.469e-05,2\n"

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, points))
	assert.Equal(t, want, buf.String())
}

func TestWriteCSV_HeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "timestamp,ratio,price_a,price_b\n", buf.String())
}

func TestWriteCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratio.csv")
	require.NoError(t, WriteCSVFile(path, points))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, string(got))

	err = WriteCSVFile(filepath.Join(t.TempDir(), "missing", "ratio.csv"), points)
	assert.Error(t, err)
}
