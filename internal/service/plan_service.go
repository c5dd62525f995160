package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"maintenance-service/internal/model"
	"maintenance-service/internal/repository"
)

type PlanStore interface {
	GetByVehicleID(ctx context.Context, vehicleID uuid.UUID) (*model.PreventivePlan, error)
	Create(ctx context.Context, plan *model.PreventivePlan) error
	Update(ctx context.Context, plan *model.PreventivePlan) error
	UpdateThreshold(ctx context.Context, plan *model.PreventivePlan) error
	Deactivate(ctx context.Context, vehicleID uuid.UUID) error
}

var _ PlanStore = (*repository.PlanRepository)(nil)

type PlanService struct {
	plans    PlanStore
	vehicles VehicleStore
	clock    Clock
	location *time.Location
}

func NewPlanService(plans PlanStore, vehicles VehicleStore, clock Clock, location *time.Location) *PlanService {
	return &PlanService{
		plans:    plans,
		vehicles: vehicles,
		clock:    clock,
		location: location,
	}
}

type SetPlanInput struct {
	Kind         model.IntervalKind
	IntervalKm   int64
	IntervalDays int
}

// SetPlan creates or replaces the vehicle's plan and computes its first
// threshold from the current odometer or today's date.
func (s *PlanService) SetPlan(ctx context.Context, principal model.Principal, vehicleID uuid.UUID, input SetPlanInput) (*model.PreventivePlan, error) {
	if !principal.IsSupervisor() {
		return nil, ErrPermissionDenied
	}
	if !input.Kind.Valid() {
		return nil, ErrInvalidInput
	}
	if input.Kind == model.IntervalKindDistance && input.IntervalKm <= 0 {
		return nil, ErrInvalidInput
	}
	if input.Kind == model.IntervalKindTime && input.IntervalDays <= 0 {
		return nil, ErrInvalidInput
	}

	vehicle, err := s.vehicles.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, notFound(err)
	}

	plan, err := s.plans.GetByVehicleID(ctx, vehicleID)
	creating := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !creating {
		return nil, err
	}
	if creating {
		plan = &model.PreventivePlan{VehicleID: vehicleID}
	}

	plan.Kind = input.Kind
	plan.IntervalKm = 0
	plan.IntervalDays = 0
	if input.Kind == model.IntervalKindDistance {
		plan.IntervalKm = input.IntervalKm
	} else {
		plan.IntervalDays = input.IntervalDays
	}
	plan.IsActive = true
	plan.Recalculate(vehicle.Odometer, dateOf(s.clock.Now(), s.location))

	if creating {
		err = s.plans.Create(ctx, plan)
	} else {
		err = s.plans.Update(ctx, plan)
	}
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *PlanService) Get(ctx context.Context, vehicleID uuid.UUID) (*model.PreventivePlan, error) {
	plan, err := s.plans.GetByVehicleID(ctx, vehicleID)
	if err != nil {
		return nil, notFound(err)
	}
	return plan, nil
}

func (s *PlanService) Deactivate(ctx context.Context, principal model.Principal, vehicleID uuid.UUID) error {
	if !principal.IsSupervisor() {
		return ErrPermissionDenied
	}
	return notFound(s.plans.Deactivate(ctx, vehicleID))
}

// Recalculate moves the next-due threshold of the vehicle's plan one interval
// past its current state. Vehicles without an active plan are left alone.
func (s *PlanService) Recalculate(ctx context.Context, vehicle *model.Vehicle) (*model.PreventivePlan, error) {
	plan, err := s.plans.GetByVehicleID(ctx, vehicle.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, nil
	}

	plan.Recalculate(vehicle.Odometer, dateOf(s.clock.Now(), s.location))
	if err := s.plans.UpdateThreshold(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}
