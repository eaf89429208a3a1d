package records

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNoHeader wird geliefert, wenn einer CSV-Datei die Kopfzeile fehlt.
var ErrNoHeader = errors.New("csv without header row")

// ReadCSV liest eine CSV-Datei mit Kopfzeile. Die Zeilen behalten ihre Reihenfolge;
// fehlende Zellen am Zeilenende gelten als nicht vorhanden.
func ReadCSV(r io.Reader) ([]*Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var out []*Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", len(out)+1, err)
		}
		rec := &Record{Index: len(out), fields: make(map[string]any, len(header))}
		for i, name := range header {
			if i >= len(row) || name == "" {
				continue
			}
			rec.Set(name, row[i])
		}
		out = append(out, rec)
	}
	return out, nil
}
