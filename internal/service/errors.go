package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation error")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrTransactionFailure = errors.New("transaction failed")

	ErrProductNotFound         = errors.New("product not found")
	ErrCustomerNotFound        = errors.New("customer not found")
	ErrInvoiceNotFound         = errors.New("invoice not found")
	ErrDocumentNotReady        = errors.New("invoice document not rendered yet")
	ErrCustomerInUse           = errors.New("customer is referenced by invoices")
	ErrDuplicateCode           = errors.New("product code already registered")
	ErrDuplicateIdentification = errors.New("identification already registered")
)

// ValidationError reports a malformed request. Field names the offending
// input (e.g. "lines[2].quantity").
type ValidationError struct {
	Field  string
	Detail string
}

func newValidation(field, detail string) *ValidationError {
	return &ValidationError{Field: field, Detail: detail}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Detail
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Detail)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// InsufficientStockError reports the product that could not cover a request.
type InsufficientStockError struct {
	ProductID   uint
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q (id %d): available %d, requested %d",
		e.ProductName, e.ProductID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// TransactionFailure wraps a persistence error that aborted a unit of work.
// The cause is kept for logs; callers should show a generic retry message.
type TransactionFailure struct {
	Err error
}

func (e *TransactionFailure) Error() string {
	return fmt.Sprintf("transaction failed: %v", e.Err)
}

func (e *TransactionFailure) Unwrap() []error { return []error{ErrTransactionFailure, e.Err} }

// classifyTxError maps whatever aborted a transaction onto the three kinds a
// caller is expected to handle.
func classifyTxError(err error) error {
	if err == nil {
		return nil
	}
	var vErr *ValidationError
	var sErr *InsufficientStockError
	var tErr *TransactionFailure
	switch {
	case errors.As(err, &vErr):
		return vErr
	case errors.As(err, &sErr):
		return sErr
	case errors.As(err, &tErr):
		return tErr
	default:
		return &TransactionFailure{Err: err}
	}
}
