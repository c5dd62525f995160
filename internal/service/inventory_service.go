package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"maintenance-service/internal/model"
	"maintenance-service/internal/repository"
)

type PartStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Part, error)
	Deduct(ctx context.Context, id uuid.UUID, quantity int64) error
	Restock(ctx context.Context, id uuid.UUID, quantity int64) error
	LogMovement(ctx context.Context, movement *model.PartMovement) error
}

var _ PartStore = (*repository.PartRepository)(nil)

// MovementRef identifies who moved stock and for which work order.
type MovementRef struct {
	WorkOrderID *uuid.UUID
	Actor       *uuid.UUID
}

// InventoryLedger owns part stock. Stock never goes below zero and every
// change is recorded as a part movement.
type InventoryLedger struct {
	tx    Transactor
	parts PartStore
}

func NewInventoryLedger(tx Transactor, parts PartStore) *InventoryLedger {
	return &InventoryLedger{tx: tx, parts: parts}
}

// Deduct removes quantity units from stock and returns the part as it was
// priced at the moment of deduction, with the updated stock.
func (l *InventoryLedger) Deduct(ctx context.Context, partID uuid.UUID, quantity int64, ref MovementRef) (*model.Part, error) {
	if quantity <= 0 {
		return nil, ErrInvalidInput
	}

	var part *model.Part
	err := l.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		part, err = l.parts.GetByID(ctx, partID)
		if err != nil {
			return notFound(err)
		}
		if quantity > part.Stock {
			return ErrInsufficientStock
		}

		if err := l.parts.Deduct(ctx, partID, quantity); err != nil {
			if errors.Is(err, repository.ErrInsufficientStock) {
				return ErrInsufficientStock
			}
			return err
		}
		part.Stock -= quantity

		return l.parts.LogMovement(ctx, &model.PartMovement{
			PartID:      partID,
			Type:        model.MovementDeduct,
			Quantity:    -quantity,
			WorkOrderID: ref.WorkOrderID,
			CreatedBy:   ref.Actor,
		})
	})
	if err != nil {
		return nil, err
	}
	return part, nil
}

func (l *InventoryLedger) Restock(ctx context.Context, partID uuid.UUID, quantity int64, ref MovementRef) (*model.Part, error) {
	if quantity <= 0 {
		return nil, ErrInvalidInput
	}

	var part *model.Part
	err := l.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := l.parts.Restock(ctx, partID, quantity); err != nil {
			return notFound(err)
		}
		if err := l.parts.LogMovement(ctx, &model.PartMovement{
			PartID:      partID,
			Type:        model.MovementRestock,
			Quantity:    quantity,
			WorkOrderID: ref.WorkOrderID,
			CreatedBy:   ref.Actor,
		}); err != nil {
			return err
		}

		var err error
		part, err = l.parts.GetByID(ctx, partID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return part, nil
}
