package table

import "errors"

var (
	// ErrUnknownField indicates a field name that is not one of the row columns.
	ErrUnknownField = errors.New("unknown row field")
	// ErrUnknownDirection indicates a move direction other than up or down.
	ErrUnknownDirection = errors.New("unknown move direction")
)
