package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/STTM-NSU/portfolio-alerts/internal/model"
)

// Zerodha console export headers that the normalizer doesn't know.
var _consoleHeaders = map[string]string{
	"Instrument": "instrument",
	"Qty.":       "qty",
	"Avg. cost":  "avg_cost",
	"LTP":        "ltp",
	"Invested":   "invested",
	"Cur. val":   "cur_val",
	"P&L":        "pl",
	"Net chg.":   "net_chg",
	"Day chg.":   "day_chg",
}

// CSVSource reads a holdings export file. Cells stay strings; the
// normalizer parses them.
type CSVSource struct {
	name string
	path string
}

func NewCSVSource(name, path string) *CSVSource {
	return &CSVSource{name: name, path: path}
}

func (s *CSVSource) Name() string {
	return s.name
}

func (s *CSVSource) Fetch(ctx context.Context) (model.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return model.RawTable{}, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return model.RawTable{}, fmt.Errorf("%w: can't open %s", err, s.path)
	}
	defer f.Close()

	return ReadCSV(f)
}

func ReadCSV(r io.Reader) (model.RawTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return model.RawTable{}, nil
	}
	if err != nil {
		return model.RawTable{}, fmt.Errorf("%w: can't read csv header", err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if renamed, ok := _consoleHeaders[h]; ok {
			h = renamed
		}
		columns[i] = h
	}

	var rows []map[string]any
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return model.RawTable{}, fmt.Errorf("%w: can't read csv record", err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}

	return model.RawTable{Columns: columns, Rows: rows}, nil
}
