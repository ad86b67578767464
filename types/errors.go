package types

import (
	"errors"
	"fmt"
)

// Codespace namespaces the ABCI codes returned by the escrow application.
const Codespace = "escrow"

// ABCI response codes. Zero is success, as required by Tendermint.
const (
	CodeTypeOK uint32 = iota
	CodeTypeEncodingError
	CodeTypeMalformedInput
	CodeTypeOrderNotFound
	CodeTypeInvalidState
	CodeTypeUnauthorized
	CodeTypeInsufficientFunds
	CodeTypeInternalError
)

// Error is an escrow failure that maps onto a stable ABCI code.
type Error struct {
	code uint32
	desc string
}

func newError(code uint32, desc string) *Error {
	return &Error{code: code, desc: desc}
}

func (e *Error) Error() string { return e.desc }

// Code returns the ABCI code for e.
func (e *Error) Code() uint32 { return e.code }

var (
	ErrEncoding          = newError(CodeTypeEncodingError, "tx encoding error")
	ErrMalformedInput    = newError(CodeTypeMalformedInput, "malformed input")
	ErrOrderNotFound     = newError(CodeTypeOrderNotFound, "order not found")
	ErrInvalidState      = newError(CodeTypeInvalidState, "invalid order state")
	ErrUnauthorized      = newError(CodeTypeUnauthorized, "unauthorized")
	ErrInsufficientFunds = newError(CodeTypeInsufficientFunds, "insufficient funds")
	ErrInternal          = newError(CodeTypeInternalError, "internal error")
)

// CodeOf returns the ABCI code carried by err. Errors outside the escrow
// taxonomy (store I/O and the like) are reported as internal errors.
func CodeOf(err error) uint32 {
	if err == nil {
		return CodeTypeOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.code
	}
	return CodeTypeInternalError
}

// ErrOrder wraps sentinel with the id of the order it concerns.
func ErrOrder(sentinel *Error, id uint64) error {
	return fmt.Errorf("order %d: %w", id, sentinel)
}
