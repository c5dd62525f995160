package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"maintenance-service/internal/model"
	"maintenance-service/internal/repository"
)

type PartCatalog interface {
	Create(ctx context.Context, part *model.Part) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Part, error)
	List(ctx context.Context, filter repository.PartFilter) ([]model.Part, error)
	ListMovements(ctx context.Context, partID uuid.UUID) ([]model.PartMovement, error)
	Archive(ctx context.Context, id uuid.UUID) error
}

var _ PartCatalog = (*repository.PartRepository)(nil)

type PartService struct {
	parts  PartCatalog
	ledger *InventoryLedger
}

func NewPartService(parts PartCatalog, ledger *InventoryLedger) *PartService {
	return &PartService{parts: parts, ledger: ledger}
}

type CreatePartInput struct {
	Code      string
	Name      string
	UnitPrice decimal.Decimal
	Stock     int64
}

type ListPartsOptions struct {
	Search   string
	LowStock *int64
	Limit    int
	Offset   int
}

type PartDetails struct {
	Part      model.Part           `json:"part"`
	Movements []model.PartMovement `json:"movements"`
}

func (s *PartService) Create(ctx context.Context, principal model.Principal, input CreatePartInput) (*model.Part, error) {
	if !principal.IsSupervisor() {
		return nil, ErrPermissionDenied
	}

	code := strings.ToUpper(strings.TrimSpace(input.Code))
	name := strings.TrimSpace(input.Name)
	if code == "" || name == "" || input.UnitPrice.IsNegative() || input.Stock < 0 {
		return nil, ErrInvalidInput
	}

	part := &model.Part{
		Code:      code,
		Name:      name,
		UnitPrice: input.UnitPrice,
		Stock:     input.Stock,
	}
	if err := s.parts.Create(ctx, part); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return part, nil
}

func (s *PartService) Get(ctx context.Context, principal model.Principal, id uuid.UUID) (*PartDetails, error) {
	part, err := s.parts.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}

	details := &PartDetails{Part: *part}
	if principal.IsSupervisor() {
		details.Movements, err = s.parts.ListMovements(ctx, id)
		if err != nil {
			return nil, err
		}
	}
	return details, nil
}

func (s *PartService) List(ctx context.Context, opts ListPartsOptions) ([]model.Part, error) {
	return s.parts.List(ctx, repository.PartFilter{
		Search:   opts.Search,
		LowStock: opts.LowStock,
		Limit:    opts.Limit,
		Offset:   opts.Offset,
	})
}

func (s *PartService) Restock(ctx context.Context, principal model.Principal, id uuid.UUID, quantity int64) (*model.Part, error) {
	if !principal.IsSupervisor() {
		return nil, ErrPermissionDenied
	}
	actor := principal.UserID
	return s.ledger.Restock(ctx, id, quantity, MovementRef{Actor: &actor})
}

func (s *PartService) Archive(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	if !principal.IsSupervisor() {
		return ErrPermissionDenied
	}
	return notFound(s.parts.Archive(ctx, id))
}
