package files

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/wms-platform/fulfillment-simulator/internal/domain"
	shared "github.com/wms-platform/fulfillment-simulator/pkg/domain"
	"github.com/wms-platform/fulfillment-simulator/pkg/logging"
)

// ErrInvalidRow is returned for a csv row with the wrong shape
var ErrInvalidRow = errors.New("invalid csv row")

// ReadLines reads a simulator input file, dropping comments and lines
// shorter than two characters
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readLines(f)
}

func readRecords(path string, fields int) ([][]string, error) {
	lines, err := ReadLines(path)
	if err != nil {
		return nil, err
	}
	return parseRecords(path, lines, fields)
}

func parseRecords(name string, lines []string, fields int) ([][]string, error) {
	reader := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if len(record) < fields {
			return nil, fmt.Errorf("%w: %s line %d has %d fields, want %d", ErrInvalidRow, name, len(records)+1, len(record), fields)
		}
		records = append(records, record)
	}
	return records, nil
}

// ReadTranslation reads colour,model,front,rear rows after a header row
func ReadTranslation(path string) (domain.TranslationTable, error) {
	lines, err := ReadLines(path)
	if err != nil {
		return nil, err
	}
	if len(lines) > 0 {
		lines = lines[1:]
	}
	records, err := parseRecords(path, lines, 4)
	if err != nil {
		return nil, err
	}

	table := make(domain.TranslationTable, 0, len(records))
	for _, r := range records {
		table = append(table, domain.TranslationRow{Colour: r[0], Model: r[1], FrontSKU: r[2], RearSKU: r[3]})
	}
	return table, nil
}

// ReadTraversal reads zone,aisle,rack,level,sku rows in traversal order
func ReadTraversal(path string) ([]domain.TraversalRow, error) {
	records, err := readRecords(path, 5)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.TraversalRow, 0, len(records))
	for i, r := range records {
		loc, err := shared.ParseLocation(r[:4]...)
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", ErrInvalidRow, path, i+1, err)
		}
		rows = append(rows, domain.TraversalRow{Location: loc, SKU: strings.TrimSpace(r[4])})
	}
	return rows, nil
}

// ReadInitial reads zone,aisle,rack,level,quantity rows
func ReadInitial(path string) ([]domain.StockRow, error) {
	records, err := readRecords(path, 5)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.StockRow, 0, len(records))
	for i, r := range records {
		loc, err := shared.ParseLocation(r[:4]...)
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", ErrInvalidRow, path, i+1, err)
		}
		qty, err := strconv.Atoi(strings.TrimSpace(r[4]))
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: quantity %q is not a number", ErrInvalidRow, path, i+1, r[4])
		}
		rows = append(rows, domain.StockRow{Location: loc, Quantity: qty})
	}
	return rows, nil
}

// Input is everything needed to simulate one warehouse
type Input struct {
	Tables domain.Tables
	Script []string
}

// Load validates the settings and reads every input file of one warehouse.
// A missing initial stock file is not an error: every shelf starts fully
// stocked.
func Load(ws WarehouseSettings, logger *logging.Logger) (*Input, error) {
	if err := ws.Validate(); err != nil {
		return nil, err
	}

	script, err := ReadLines(ws.Path(ws.Events))
	if err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	traversal, err := ReadTraversal(ws.Path(ws.Traversal))
	if err != nil {
		return nil, fmt.Errorf("failed to read traversal table: %w", err)
	}
	translation, err := ReadTranslation(ws.Path(ws.Translation))
	if err != nil {
		return nil, fmt.Errorf("failed to read translation table: %w", err)
	}

	initial, err := ReadInitial(ws.Path(ws.Initial))
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Warn("No initial stock file, assuming all shelves are fully stocked", "path", ws.Path(ws.Initial))
		initial = nil
	case err != nil:
		return nil, fmt.Errorf("failed to read initial stock: %w", err)
	}

	return &Input{
		Tables: domain.Tables{Translation: translation, Traversal: traversal, Initial: initial},
		Script: script,
	}, nil
}
