// Package spreadsheet extracts raw catalog rows from uploaded CSV and Excel files
package spreadsheet

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/pharmavoz/backend/internal/domain"
)

// Config describes where the catalog fields live. Columns are zero-based; a negative
// StockColumn means the file carries no stock.
type Config struct {
	NameColumn   int
	PriceColumn  int
	StockColumn  int
	HasHeader    bool
	CSVDelimiter string
	Logger       *zerolog.Logger
}

// DefaultConfig is name, price, stock with a header row
func DefaultConfig() Config {
	return Config{
		NameColumn:   0,
		PriceColumn:  1,
		StockColumn:  2,
		HasHeader:    true,
		CSVDelimiter: ",",
	}
}

// Reader implements domain.CatalogReader
type Reader struct {
	cfg       Config
	delimiter rune
	logger    zerolog.Logger
}

// NewReader validates cfg and creates a reader
func NewReader(cfg Config) (*Reader, error) {
	if cfg.NameColumn < 0 || cfg.PriceColumn < 0 {
		return nil, errors.New("name and price columns must not be negative")
	}
	if cfg.NameColumn == cfg.PriceColumn || cfg.StockColumn == cfg.NameColumn || cfg.StockColumn == cfg.PriceColumn {
		return nil, errors.New("catalog columns must be distinct")
	}

	delimiter := ','
	if cfg.CSVDelimiter != "" {
		r, size := utf8.DecodeRuneInString(cfg.CSVDelimiter)
		if size != len(cfg.CSVDelimiter) || r == '"' || r == '\r' || r == '\n' {
			return nil, fmt.Errorf("invalid csv delimiter %q", cfg.CSVDelimiter)
		}
		delimiter = r
	}

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Reader{cfg: cfg, delimiter: delimiter, logger: logger}, nil
}

// ReadRows picks the format from the file extension and returns the data rows
func (r *Reader) ReadRows(ctx context.Context, filename string, src io.Reader) ([]domain.RawRow, error) {
	var (
		records [][]string
		err     error
	)

	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".csv":
		records, err = r.readCSV(src)
	case ".xlsx", ".xlsm", ".xltx":
		records, err = r.readExcel(src)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFile, ext)
	}
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if r.cfg.HasHeader && len(records) > 0 {
		records = records[1:]
	}

	rows := make([]domain.RawRow, 0, len(records))
	for _, record := range records {
		row := domain.RawRow{
			Name:     cell(record, r.cfg.NameColumn),
			PriceRaw: cell(record, r.cfg.PriceColumn),
		}
		if r.cfg.StockColumn >= 0 {
			row.StockRaw = cell(record, r.cfg.StockColumn)
		}
		if row.Name == "" && row.PriceRaw == "" && row.StockRaw == "" {
			continue
		}
		rows = append(rows, row)
	}

	r.logger.Debug().Str("file", filename).Int("rows", len(rows)).Msg("catalog file read")
	return rows, nil
}

func (r *Reader) readCSV(src io.Reader) ([][]string, error) {
	cr := csv.NewReader(src)
	cr.Comma = r.delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: read csv: %v", domain.ErrUnsupportedFile, err)
	}
	return records, nil
}

func (r *Reader) readExcel(src io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", domain.ErrUnsupportedFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", domain.ErrUnsupportedFile)
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", domain.ErrUnsupportedFile, sheets[0], err)
	}
	return records, nil
}

func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
