package services

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrMissingInput: die Eingabedatei einer Stufe fehlt.
	ErrMissingInput = errors.New("missing import input")
	// ErrUnknownEntity: unbekannte Entitätsart für einen Einzelimport.
	ErrUnknownEntity = errors.New("unknown entity kind")

	ErrVariableNotFound   = errors.New("variable not found")
	ErrDatasetNotFound    = errors.New("dataset not found")
	ErrConceptNotFound    = errors.New("concept not found")
	ErrInstrumentNotFound = errors.New("instrument not found")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrStudyNotFound      = errors.New("study not found")

	// ErrInvalidRecord: ein Datensatz ist unvollständig oder hat ein falsches Format.
	ErrInvalidRecord = errors.New("invalid record")
)

// StageError ordnet einen Fehler der Import-Stufe zu, in der er auftrat.
type StageError struct {
	Entity string
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("import %s: %v", e.Entity, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
