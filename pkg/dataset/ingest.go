package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// insertBatchSize bounds the number of rows per INSERT statement. SQLite
// caps bound parameters per statement; 200 rows stays well under the limit
// for wide tables.
const insertBatchSize = 200

var identSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_]+`)

// IngestSummary reports what an ingestion produced.
type IngestSummary struct {
	Table   string
	Columns []string
	Rows    int
}

// IngestCSVFile loads the CSV file at path into the session's data table.
func IngestCSVFile(ctx context.Context, s *Session, path string) (IngestSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("failed to open dataset file %q: %w", path, err)
	}
	defer f.Close()

	return IngestCSV(ctx, s, f)
}

// IngestCSV loads CSV content into the session's data table. The first
// record is the header; column names are sanitized to valid identifiers.
// All values are stored as TEXT, matching the string-typed metric-row
// contract downstream.
func IngestCSV(ctx context.Context, s *Session, r io.Reader) (IngestSummary, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return IngestSummary{}, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if len(header) == 0 {
		return IngestSummary{}, fmt.Errorf("CSV header is empty")
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = sanitizeColumn(h, i)
	}

	// Recreate the table so re-ingestion replaces the dataset wholesale.
	if err := s.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s;", QuoteIdent(s.table))); err != nil {
		return IngestSummary{}, fmt.Errorf("failed to reset table: %w", err)
	}

	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = fmt.Sprintf("%s TEXT", QuoteIdent(c))
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s);", QuoteIdent(s.table), strings.Join(defs, ", "))
	if err := s.Exec(ctx, create); err != nil {
		return IngestSummary{}, fmt.Errorf("failed to create table: %w", err)
	}

	placeholders := "(" + strings.TrimRight(strings.Repeat("?,", len(columns)), ",") + ")"
	insertPrefix := fmt.Sprintf("INSERT INTO %s VALUES ", QuoteIdent(s.table))

	total := 0
	batch := make([]any, 0, insertBatchSize*len(columns))
	batchRows := 0

	flush := func() error {
		if batchRows == 0 {
			return nil
		}
		stmt := insertPrefix + strings.TrimRight(strings.Repeat(placeholders+",", batchRows), ",") + ";"
		if err := s.Exec(ctx, stmt, batch...); err != nil {
			return fmt.Errorf("failed to insert rows: %w", err)
		}
		total += batchRows
		batch = batch[:0]
		batchRows = 0
		return nil
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return IngestSummary{}, fmt.Errorf("failed to read CSV record: %w", err)
		}

		for i := range columns {
			if i < len(record) {
				batch = append(batch, record[i])
			} else {
				batch = append(batch, "")
			}
		}
		batchRows++

		if batchRows >= insertBatchSize {
			if err := flush(); err != nil {
				return IngestSummary{}, err
			}
		}
	}
	if err := flush(); err != nil {
		return IngestSummary{}, err
	}

	return IngestSummary{Table: s.table, Columns: columns, Rows: total}, nil
}

// sanitizeColumn turns a raw CSV header cell into a usable SQL identifier.
func sanitizeColumn(name string, index int) string {
	cleaned := strings.TrimSpace(name)
	cleaned = identSanitizer.ReplaceAllString(cleaned, "_")
	cleaned = strings.Trim(cleaned, "_")
	if cleaned == "" {
		return fmt.Sprintf("col_%d", index)
	}
	return cleaned
}
