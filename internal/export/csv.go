// Package export writes ratio series to flat files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/aman-zulfiqar/token-ratio-chart/internal/models"
)

var header = []string{"timestamp", "ratio", "price_a", "price_b"}

// WriteCSV writes one row per point with an RFC3339 UTC timestamp.
func WriteCSV(w io.Writer, points []models.RatioPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, p := range points {
		err := cw.Write([]string{
			time.UnixMilli(p.TimestampMs).UTC().Format(time.RFC3339),
			f(p.Ratio),
			f(p.PriceA),
			f(p.PriceB),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile creates or truncates path and writes points to it.
func WriteCSVFile(path string, points []models.RatioPoint) error {
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteCSV(fh, points); err != nil {
		fh.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return fh.Close()
}

func f(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
