package records

import (
	"errors"
	"fmt"
	"io"

	"github.com/tidwall/gjson"
)

// ErrInvalidJSON wird für Dateien geliefert, die kein gültiges JSON enthalten.
var ErrInvalidJSON = errors.New("invalid json")

// ReadJSON liest ein JSON-Objekt (Werte in Dokumentreihenfolge) oder ein Array.
func ReadJSON(r io.Reader) ([]*Record, error) {
	root, err := Parse(r)
	if err != nil {
		return nil, err
	}
	return FromJSON(root)
}

// Parse liest und validiert ein JSON-Dokument.
func Parse(r io.Reader) (gjson.Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, ErrInvalidJSON
	}
	return gjson.ParseBytes(data), nil
}

// FromJSON wandelt ein bereits geparstes Objekt oder Array in Records um.
// Bei Objekten bleibt der Schlüssel in Record.Key erhalten.
func FromJSON(value gjson.Result) ([]*Record, error) {
	if !value.IsObject() && !value.IsArray() {
		return nil, fmt.Errorf("%w: expected object or array, got %s", ErrInvalidJSON, value.Type)
	}
	var (
		out     []*Record
		elemErr error
	)
	value.ForEach(func(key, element gjson.Result) bool {
		rec, err := FromObject(element)
		if err != nil {
			elemErr = fmt.Errorf("element %d: %w", len(out), err)
			return false
		}
		rec.Index = len(out)
		if value.IsObject() {
			rec.Key = key.String()
		}
		out = append(out, rec)
		return true
	})
	if elemErr != nil {
		return nil, elemErr
	}
	return out, nil
}

// FromObject wandelt ein einzelnes JSON-Objekt in einen Record um.
func FromObject(value gjson.Result) (*Record, error) {
	if !value.IsObject() {
		return nil, fmt.Errorf("%w: expected object, got %s", ErrInvalidJSON, value.Type)
	}
	rec := &Record{Raw: value.Raw, fields: map[string]any{}}
	value.ForEach(func(key, field gjson.Result) bool {
		rec.Set(key.String(), field.Value())
		return true
	})
	return rec, nil
}
