package database

import (
	"errors"
	"fmt"
)

var (
	ErrLowOutOfRange   = errors.New("low attribute out of range")
	ErrHighOutOfRange  = errors.New("high attribute out of range")
	ErrLowAboveHigh    = errors.New("low is greater than high")
	ErrBooleanWidth    = errors.New("booleans should be 1 bit fields")
	ErrFloatWidth      = errors.New("floats should be 16 or 32 bit fields")
	ErrUnknownType     = errors.New("unknown type")
	ErrMissingRadix    = errors.New("fixed point fields require a radix")
	ErrDuplicateValue  = errors.New("duplicate enum value name")
	ErrVariantSize     = errors.New("variants must be same size")
	ErrUnknownVariant  = errors.New("unknown variant name")
	ErrUnknownVarset   = errors.New("unknown varset")
	ErrNoVarset        = errors.New("variants declared without a varset")
	ErrInvalidInteger  = errors.New("invalid integer")
	ErrShrOutOfRange   = errors.New("shr attribute out of range")
	ErrRadixOutOfRange = errors.New("radix attribute out of range")
)

// Pos is a position in a description unit.
type Pos struct {
	File string
	Line int
	Col  int
}

func (p Pos) String() string {
	if p.File == "" {
		return "-"
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

// Error is a fatal error tied to a position in a description unit.
type Error struct {
	Pos Pos
	Err error
}

func Errorf(pos Pos, format string, args ...any) *Error {
	return &Error{Pos: pos, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Pos, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
