package spreadsheet

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pharmavoz/backend/internal/domain"
)

func workbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cellRef, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestNewReader(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"no stock column", func(c *Config) { c.StockColumn = -1 }, false},
		{"semicolon delimiter", func(c *Config) { c.CSVDelimiter = ";" }, false},
		{"negative name column", func(c *Config) { c.NameColumn = -1 }, true},
		{"same name and price column", func(c *Config) { c.PriceColumn = 0 }, true},
		{"stock overlaps price", func(c *Config) { c.StockColumn = 1 }, true},
		{"multi character delimiter", func(c *Config) { c.CSVDelimiter = ";;" }, true},
		{"quote delimiter", func(c *Config) { c.CSVDelimiter = `"` }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := NewReader(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestReader_CSV(t *testing.T) {
	ctx := context.Background()

	t.Run("reads fixed columns after header", func(t *testing.T) {
		r, err := NewReader(DefaultConfig())
		require.NoError(t, err)

		input := "producto,precio,stock\n" +
			"Paracetamol 500mg,1.50,12\n" +
			"\"Ibuprofeno 400mg, caja\",\"Ref 2,10$\",None\n" +
			",,\n" +
			"Loratadina 10mg,3\n"

		rows, err := r.ReadRows(ctx, "inventario.CSV", strings.NewReader(input))
		require.NoError(t, err)
		assert.Equal(t, []domain.RawRow{
			{Name: "Paracetamol 500mg", PriceRaw: "1.50", StockRaw: "12"},
			{Name: "Ibuprofeno 400mg, caja", PriceRaw: "Ref 2,10$", StockRaw: "None"},
			{Name: "Loratadina 10mg", PriceRaw: "3"},
		}, rows)
	})

	t.Run("custom delimiter without header", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.CSVDelimiter = ";"
		cfg.HasHeader = false
		cfg.StockColumn = -1
		r, err := NewReader(cfg)
		require.NoError(t, err)

		rows, err := r.ReadRows(ctx, "lista.csv", strings.NewReader("Omeprazol 20mg;1,234.56;99\n"))
		require.NoError(t, err)
		assert.Equal(t, []domain.RawRow{{Name: "Omeprazol 20mg", PriceRaw: "1,234.56"}}, rows)
	})

	t.Run("reordered columns", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.NameColumn, cfg.PriceColumn, cfg.StockColumn = 1, 2, 0
		r, err := NewReader(cfg)
		require.NoError(t, err)

		rows, err := r.ReadRows(ctx, "a.csv", strings.NewReader("stock,nombre,precio\n4,Gasas,0.75\n"))
		require.NoError(t, err)
		assert.Equal(t, []domain.RawRow{{Name: "Gasas", PriceRaw: "0.75", StockRaw: "4"}}, rows)
	})

	t.Run("header only", func(t *testing.T) {
		r, _ := NewReader(DefaultConfig())
		rows, err := r.ReadRows(ctx, "a.csv", strings.NewReader("producto,precio\n"))
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

func TestReader_Excel(t *testing.T) {
	ctx := context.Background()
	r, err := NewReader(DefaultConfig())
	require.NoError(t, err)

	buf := workbook(t, [][]any{
		{"Producto", "Precio", "Stock"},
		{"Acetaminofén 650mg", "1.75", 20},
		{"Vitamina C 1G", 4.5, nil},
	})

	rows, err := r.ReadRows(ctx, "inventario.xlsx", buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, domain.RawRow{Name: "Acetaminofén 650mg", PriceRaw: "1.75", StockRaw: "20"}, rows[0])
	assert.Equal(t, "Vitamina C 1G", rows[1].Name)
	assert.Equal(t, "4.5", rows[1].PriceRaw)
	assert.Equal(t, "", rows[1].StockRaw)
}

func TestReader_Errors(t *testing.T) {
	ctx := context.Background()
	r, err := NewReader(DefaultConfig())
	require.NoError(t, err)

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := r.ReadRows(ctx, "inventario.pdf", strings.NewReader("x"))
		assert.ErrorIs(t, err, domain.ErrUnsupportedFile)
	})

	t.Run("no extension", func(t *testing.T) {
		_, err := r.ReadRows(ctx, "inventario", strings.NewReader("x"))
		assert.ErrorIs(t, err, domain.ErrUnsupportedFile)
	})

	t.Run("corrupt workbook", func(t *testing.T) {
		_, err := r.ReadRows(ctx, "inventario.xlsx", strings.NewReader("not a zip"))
		assert.ErrorIs(t, err, domain.ErrUnsupportedFile)
	})
}
