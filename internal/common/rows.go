package common

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"wallet-reconcile-go/internal/models"

	"github.com/google/uuid"
)

const maxRowBytes = 4 * 1024 * 1024

// ReadRows decodes one RawRow per line. Blank lines are skipped; rows without
// an id get a fresh one and rows without a timestamp take their record's.
func ReadRows(r io.Reader) ([]*models.RawRow, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxRowBytes)

	var rows []*models.RawRow
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var row models.RawRow
		if err := json.Unmarshal([]byte(text), &row); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if row.Feed == "" {
			return nil, fmt.Errorf("line %d: %w: feed", line, models.ErrMissingColumn)
		}
		if row.Id == "" {
			row.Id = uuid.New().String()
		}
		if row.Timestamp.IsZero() && row.Record != nil {
			row.Timestamp = row.Record.Timestamp
		}
		rows = append(rows, &row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return rows, nil
}

func LoadRows(file string) ([]*models.RawRow, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s: %w", file, err)
	}
	defer f.Close()
	return ReadRows(f)
}

// WriteRows encodes rows one per line, deleted legs included
func WriteRows(w io.Writer, rows []*models.RawRow) error {
	enc := json.NewEncoder(w)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("failed to write row %s: %w", row.Id, err)
		}
	}
	return nil
}
