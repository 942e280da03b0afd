// Package errx holds the uniform error taxonomy every lifecycle operation
// returns. The HTTP layer maps these to status codes; nothing else interprets
// them.
package errx

import (
	"fmt"
	"strings"
)

type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

func Invalidf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

type InvalidStateError struct{ Msg string }

func (e *InvalidStateError) Error() string { return e.Msg }

// Shortage reports one product an order could not be satisfied from.
type Shortage struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

type InsufficientStockError struct{ Shortages []Shortage }

func (e *InsufficientStockError) Error() string {
	names := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		names = append(names, s.Name)
	}
	return "insufficient stock: " + strings.Join(names, ", ")
}

// ExternalError marks a collaborator failure (blob storage, mail relay).
type ExternalError struct {
	Op  string
	Err error
}

func (e *ExternalError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *ExternalError) Unwrap() error { return e.Err }
