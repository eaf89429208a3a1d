// Package records liest Import-Dateien (CSV, JSON) in geordnete Datensätze.
package records

import (
	"fmt"
	"strconv"
	"strings"
)

// Record ist eine Zeile bzw. ein Objekt aus einer Import-Datei.
// Feldreihenfolge und Position in der Quelle bleiben erhalten.
type Record struct {
	// Key ist der Objektschlüssel, unter dem der Datensatz in einer JSON-Datei stand.
	Key string
	// Index ist die 0-basierte Position in der Quelle.
	Index int
	// Raw ist der unveränderte JSON-Text, leer bei CSV.
	Raw string

	fields map[string]any
	order  []string
}

// New erzeugt einen Record aus einer Map; die Feldreihenfolge folgt fields.
func New(fields map[string]any, order ...string) *Record {
	r := &Record{fields: map[string]any{}}
	for _, key := range order {
		if v, ok := fields[key]; ok {
			r.Set(key, v)
		}
	}
	for key, v := range fields {
		if _, ok := r.fields[key]; !ok {
			r.Set(key, v)
		}
	}
	return r
}

// Set setzt ein Feld; neue Felder werden hinten angehängt.
func (r *Record) Set(key string, value any) {
	if _, ok := r.fields[key]; !ok {
		r.order = append(r.order, key)
	}
	r.fields[key] = value
}

// Has meldet, ob das Feld vorhanden ist (auch wenn es leer ist).
func (r *Record) Has(key string) bool {
	_, ok := r.fields[key]
	return ok
}

// Fields gibt die Feldnamen in Quellreihenfolge zurück.
func (r *Record) Fields() []string {
	return append([]string(nil), r.order...)
}

// Map gibt die Felder als Map zurück.
func (r *Record) Map() map[string]any {
	out := make(map[string]any, len(r.fields))
	for k, v := range r.fields {
		out[k] = v
	}
	return out
}

// Get liefert den Wert des ersten vorhandenen Schlüssels. Kurzname vor Langname:
// Get("period", "period_name").
func (r *Record) Get(keys ...string) (any, bool) {
	for _, key := range keys {
		if v, ok := r.fields[key]; ok {
			return v, true
		}
	}
	return nil, false
}

// String wie Get, aber als Text.
func (r *Record) String(keys ...string) (string, bool) {
	v, ok := r.Get(keys...)
	if !ok {
		return "", false
	}
	return Stringify(v), true
}

// StringOr liefert den Text des ersten vorhandenen Schlüssels oder def.
func (r *Record) StringOr(def string, keys ...string) string {
	if s, ok := r.String(keys...); ok {
		return s
	}
	return def
}

// Ref liefert einen Verweis (Name einer anderen Entität). Leere Zellen gelten
// als nicht vorhanden, damit der nächste Alias bzw. der Platzhalter greift.
func (r *Record) Ref(keys ...string) (string, bool) {
	for _, key := range keys {
		v, ok := r.fields[key]
		if !ok || v == nil {
			continue
		}
		if s := strings.TrimSpace(Stringify(v)); s != "" {
			return s, true
		}
	}
	return "", false
}

// Stringify wandelt einen Feldwert in Text um.
func Stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return fmt.Sprint(s)
	}
}
