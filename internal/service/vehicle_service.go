package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"maintenance-service/internal/model"
	"maintenance-service/internal/repository"
)

type VehicleStore interface {
	Create(ctx context.Context, vehicle *model.Vehicle) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Vehicle, error)
	List(ctx context.Context, filter repository.VehicleFilter) ([]model.Vehicle, error)
	UpdateOdometer(ctx context.Context, id uuid.UUID, odometer int64) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.VehicleStatus) error
	MarkServiced(ctx context.Context, id uuid.UUID, at time.Time) error
	Archive(ctx context.Context, id uuid.UUID) error
}

var _ VehicleStore = (*repository.VehicleRepository)(nil)

type VehicleService struct {
	vehicles VehicleStore
}

func NewVehicleService(vehicles VehicleStore) *VehicleService {
	return &VehicleService{vehicles: vehicles}
}

type RegisterVehicleInput struct {
	PlateNumber string
	Make        string
	Model       string
	Year        int
	Odometer    int64
}

type ListVehiclesOptions struct {
	Statuses []model.VehicleStatus
	Search   string
	Limit    int
	Offset   int
}

func (s *VehicleService) Register(ctx context.Context, principal model.Principal, input RegisterVehicleInput) (*model.Vehicle, error) {
	if !principal.IsSupervisor() {
		return nil, ErrPermissionDenied
	}

	plate := strings.ToUpper(strings.TrimSpace(input.PlateNumber))
	if plate == "" || input.Odometer < 0 || input.Year < 0 {
		return nil, ErrInvalidInput
	}

	vehicle := &model.Vehicle{
		PlateNumber: plate,
		Make:        strings.TrimSpace(input.Make),
		Model:       strings.TrimSpace(input.Model),
		Year:        input.Year,
		Odometer:    input.Odometer,
		Status:      model.VehicleStatusActive,
	}
	if err := s.vehicles.Create(ctx, vehicle); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return vehicle, nil
}

func (s *VehicleService) Get(ctx context.Context, id uuid.UUID) (*model.Vehicle, error) {
	vehicle, err := s.vehicles.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return vehicle, nil
}

func (s *VehicleService) List(ctx context.Context, opts ListVehiclesOptions) ([]model.Vehicle, error) {
	return s.vehicles.List(ctx, repository.VehicleFilter{
		Statuses: opts.Statuses,
		Search:   opts.Search,
		Limit:    opts.Limit,
		Offset:   opts.Offset,
	})
}

// UpdateOdometer records a new reading. Readings below the stored value fail
// with ErrOdometerDecrease.
func (s *VehicleService) UpdateOdometer(ctx context.Context, principal model.Principal, id uuid.UUID, odometer int64) (*model.Vehicle, error) {
	if !(principal.IsSupervisor() || principal.IsDriver()) {
		return nil, ErrPermissionDenied
	}
	if err := updateOdometer(ctx, s.vehicles, id, odometer); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *VehicleService) Archive(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	if !principal.IsSupervisor() {
		return ErrPermissionDenied
	}
	return notFound(s.vehicles.Archive(ctx, id))
}

func updateOdometer(ctx context.Context, vehicles VehicleStore, id uuid.UUID, odometer int64) error {
	if odometer < 0 {
		return ErrInvalidInput
	}

	vehicle, err := vehicles.GetByID(ctx, id)
	if err != nil {
		return notFound(err)
	}
	if odometer < vehicle.Odometer {
		return ErrOdometerDecrease
	}

	if err := vehicles.UpdateOdometer(ctx, id, odometer); err != nil {
		if errors.Is(err, repository.ErrStaleWrite) {
			return ErrOdometerDecrease
		}
		return err
	}
	return nil
}
