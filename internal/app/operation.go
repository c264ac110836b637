package app

import (
	"errors"

	"feedgrid/internal/gallery"
)

// Journal statuses.
const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusWarning = "warning" // applied, but the order was not persisted
	StatusError   = "error"
)

// Operation tracks one mutating command for the journal.
// Operations are created in memory with ID=0 and get an auto-increment ID
// once recorded in the database.
type Operation struct {
	ID         int64
	Name       string
	Parameters string
	Status     string
}

// NewOperation creates a new in-memory operation.
func NewOperation(name, parameters string) *Operation {
	return &Operation{
		Name:       name,
		Parameters: parameters,
		Status:     StatusRunning,
	}
}

// Persisted returns true if this operation has been saved to the database.
func (op *Operation) Persisted() bool {
	return op.ID != 0
}

// Finish sets the final status from the outcome of the command.
func (op *Operation) Finish(err error) {
	switch {
	case err == nil:
		op.Status = StatusSuccess
	case errors.Is(err, gallery.ErrOrderNotPersisted):
		op.Status = StatusWarning
	default:
		op.Status = StatusError
	}
}
