package repository

import "errors"

var (
	// ErrStaleWrite is returned when a conditional update matched no row
	// because the record changed since it was read.
	ErrStaleWrite = errors.New("record changed concurrently")
	// ErrInsufficientStock is returned when a deduction would make stock negative.
	ErrInsufficientStock = errors.New("insufficient stock")
)
