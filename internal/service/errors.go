package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrPermissionDenied  = errors.New("permission denied")
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrConflict          = errors.New("conflict")
	ErrInvalidStatus     = errors.New("invalid status transition")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrOdometerDecrease  = errors.New("odometer reading cannot decrease")
	ErrIncompleteTasks   = errors.New("work order has incomplete tasks")

	ErrScanInProgress = fmt.Errorf("%w: alert scan already running", ErrConflict)
)

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
