package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"maintenance-service/internal/model"
	"maintenance-service/internal/repository"
)

const maxNumberAttempts = 3

type WorkOrderStore interface {
	List(ctx context.Context, filter repository.WorkOrderFilter) ([]model.WorkOrder, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.WorkOrder, error)
	Create(ctx context.Context, order *model.WorkOrder) error
	LastNumberForYear(ctx context.Context, year int) (string, error)
	Transition(ctx context.Context, id uuid.UUID, from, to model.WorkOrderState, fields map[string]interface{}) error
	LogStatusChange(ctx context.Context, entry *model.WorkOrderStatusLog) error
	ListStatusLog(ctx context.Context, orderID uuid.UUID) ([]model.WorkOrderStatusLog, error)
	NextTaskPosition(ctx context.Context, orderID uuid.UUID) (int, error)
	CreateTask(ctx context.Context, task *model.Task) error
	UpdateTask(ctx context.Context, task *model.Task) error
	CreatePartUsage(ctx context.Context, usage *model.PartUsage) error
}

var _ WorkOrderStore = (*repository.WorkOrderRepository)(nil)

type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

var _ UserStore = (*repository.UserRepository)(nil)

// AlertAttender clears the outstanding alerts of a vehicle.
type AlertAttender interface {
	Attend(ctx context.Context, vehicleID uuid.UUID) (int64, error)
}

type WorkOrderDeps struct {
	Tx       Transactor
	Orders   WorkOrderStore
	Vehicles VehicleStore
	Users    UserStore
	Ledger   *InventoryLedger
	Plans    *PlanService
	Alerts   AlertAttender
	Clock    Clock
	Location *time.Location
	Log      zerolog.Logger
}

type WorkOrderService struct {
	tx       Transactor
	orders   WorkOrderStore
	vehicles VehicleStore
	users    UserStore
	ledger   *InventoryLedger
	plans    *PlanService
	alerts   AlertAttender
	clock    Clock
	location *time.Location
	log      zerolog.Logger
}

func NewWorkOrderService(deps WorkOrderDeps) *WorkOrderService {
	location := deps.Location
	if location == nil {
		location = time.UTC
	}
	return &WorkOrderService{
		tx:       deps.Tx,
		orders:   deps.Orders,
		vehicles: deps.Vehicles,
		users:    deps.Users,
		ledger:   deps.Ledger,
		plans:    deps.Plans,
		alerts:   deps.Alerts,
		clock:    deps.Clock,
		location: location,
		log:      deps.Log,
	}
}

type CreateWorkOrderInput struct {
	VehicleID   uuid.UUID
	Type        model.WorkOrderType
	Description string
}

type AddTaskInput struct {
	Description  string
	TechnicianID *uuid.UUID
}

type PartUsageInput struct {
	PartID   uuid.UUID
	Quantity int64
}

type RecordWorkInput struct {
	TaskID   *uuid.UUID
	Hours    decimal.Decimal
	Complete bool
	Notes    string
	Odometer *int64
	Parts    []PartUsageInput
}

type ListWorkOrdersOptions struct {
	States       []model.WorkOrderState
	Types        []model.WorkOrderType
	VehicleID    *uuid.UUID
	TechnicianID *uuid.UUID
	DateFrom     *time.Time
	DateTo       *time.Time
	Limit        int
	Offset       int
}

type WorkOrderDetails struct {
	Order   model.WorkOrder            `json:"order"`
	History []model.WorkOrderStatusLog `json:"history"`
}

func (s *WorkOrderService) List(ctx context.Context, principal model.Principal, opts ListWorkOrdersOptions) ([]model.WorkOrder, error) {
	filter := repository.WorkOrderFilter{
		States:       opts.States,
		Types:        opts.Types,
		VehicleID:    opts.VehicleID,
		TechnicianID: opts.TechnicianID,
		DateFrom:     opts.DateFrom,
		DateTo:       opts.DateTo,
		Limit:        opts.Limit,
		Offset:       opts.Offset,
	}

	switch {
	case principal.IsSupervisor():
	case principal.IsTechnician():
		filter.TechnicianID = &principal.UserID
	case principal.IsDriver():
		filter.CreatedBy = &principal.UserID
	default:
		return nil, ErrPermissionDenied
	}

	return s.orders.List(ctx, filter)
}

func (s *WorkOrderService) Get(ctx context.Context, principal model.Principal, id uuid.UUID) (*WorkOrderDetails, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if !canView(principal, order) {
		return nil, ErrPermissionDenied
	}

	history, err := s.orders.ListStatusLog(ctx, id)
	if err != nil {
		return nil, err
	}
	return &WorkOrderDetails{Order: *order, History: history}, nil
}

// Create opens a pending work order for a vehicle and takes the vehicle out
// of service. Outstanding alerts of the vehicle are attended afterwards.
func (s *WorkOrderService) Create(ctx context.Context, principal model.Principal, input CreateWorkOrderInput) (*model.WorkOrder, error) {
	if !input.Type.Valid() {
		return nil, ErrInvalidInput
	}
	switch {
	case principal.IsSupervisor():
	case principal.IsDriver():
		if input.Type != model.WorkOrderTypeCorrective {
			return nil, ErrPermissionDenied
		}
	default:
		return nil, ErrPermissionDenied
	}

	var order *model.WorkOrder
	var err error
	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		order, err = s.create(ctx, principal, input)
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
		s.log.Warn().Int("attempt", attempt).Msg("work order number taken, retrying")
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, err
	}

	if s.alerts != nil {
		if _, err := s.alerts.Attend(ctx, order.VehicleID); err != nil {
			s.log.Error().Err(err).Str("vehicle_id", order.VehicleID.String()).Msg("failed to attend vehicle alerts")
		}
	}

	return order, nil
}

func (s *WorkOrderService) create(ctx context.Context, principal model.Principal, input CreateWorkOrderInput) (*model.WorkOrder, error) {
	var order *model.WorkOrder
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		vehicle, err := s.vehicles.GetByID(ctx, input.VehicleID)
		if err != nil {
			return notFound(err)
		}

		year := s.clock.Now().In(s.location).Year()
		last, err := s.orders.LastNumberForYear(ctx, year)
		if err != nil {
			return err
		}
		number, err := nextOrderNumber(last, year)
		if err != nil {
			return err
		}

		order = &model.WorkOrder{
			Number:      number,
			VehicleID:   vehicle.ID,
			Type:        input.Type,
			Description: strings.TrimSpace(input.Description),
			State:       model.WorkOrderStatePending,
			TotalCost:   decimal.Zero,
			CreatedBy:   principal.UserID,
			CreatedAt:   s.clock.Now(),
		}
		if err := s.orders.Create(ctx, order); err != nil {
			return err
		}

		if err := s.logTransition(ctx, principal, order.ID, nil, model.WorkOrderStatePending, "work order created"); err != nil {
			return err
		}

		return s.vehicles.UpdateStatus(ctx, vehicle.ID, model.VehicleStatusUnderMaintenance)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *WorkOrderService) Assign(ctx context.Context, principal model.Principal, orderID, technicianID uuid.UUID) (*model.WorkOrder, error) {
	if !principal.IsSupervisor() {
		return nil, ErrPermissionDenied
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		order, err := s.orders.GetByID(ctx, orderID)
		if err != nil {
			return notFound(err)
		}
		if order.State != model.WorkOrderStatePending {
			return ErrInvalidStatus
		}

		if err := s.checkAssignee(ctx, technicianID); err != nil {
			return err
		}

		return s.transition(ctx, principal, order, model.WorkOrderStateAssigned, map[string]interface{}{
			"technician_id": technicianID,
		}, "technician assigned")
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, orderID)
}

func (s *WorkOrderService) AddTask(ctx context.Context, principal model.Principal, orderID uuid.UUID, input AddTaskInput) (*model.WorkOrder, error) {
	if !principal.IsSupervisor() {
		return nil, ErrPermissionDenied
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, ErrInvalidInput
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		order, err := s.orders.GetByID(ctx, orderID)
		if err != nil {
			return notFound(err)
		}
		if order.State == model.WorkOrderStateClosed {
			return ErrInvalidStatus
		}
		if input.TechnicianID != nil {
			if err := s.checkAssignee(ctx, *input.TechnicianID); err != nil {
				return err
			}
		}

		_, err = s.addTask(ctx, order.ID, description, input.TechnicianID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, orderID)
}

// RecordWork logs labor, consumed parts and an odometer reading against an
// assigned or started order. All writes of one call commit together.
func (s *WorkOrderService) RecordWork(ctx context.Context, principal model.Principal, orderID uuid.UUID, input RecordWorkInput) (*model.WorkOrder, error) {
	if input.Hours.IsNegative() {
		return nil, ErrInvalidInput
	}
	for _, usage := range input.Parts {
		if usage.PartID == uuid.Nil || usage.Quantity <= 0 {
			return nil, ErrInvalidInput
		}
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		order, err := s.orders.GetByID(ctx, orderID)
		if err != nil {
			return notFound(err)
		}
		if !canWork(principal, order) {
			return ErrPermissionDenied
		}
		if order.State != model.WorkOrderStateAssigned && order.State != model.WorkOrderStateInProgress {
			return ErrInvalidStatus
		}

		task, err := s.resolveTask(ctx, principal, order, input)
		if err != nil {
			return err
		}

		if order.State == model.WorkOrderStateAssigned {
			if err := s.transition(ctx, principal, order, model.WorkOrderStateInProgress, nil, "work started"); err != nil {
				return err
			}
		}

		if input.Odometer != nil {
			if err := updateOdometer(ctx, s.vehicles, order.VehicleID, *input.Odometer); err != nil {
				return err
			}
		}

		if task == nil {
			return nil
		}

		actor := principal.UserID
		for _, usage := range input.Parts {
			part, err := s.ledger.Deduct(ctx, usage.PartID, usage.Quantity, MovementRef{
				WorkOrderID: &order.ID,
				Actor:       &actor,
			})
			if err != nil {
				return err
			}
			if err := s.orders.CreatePartUsage(ctx, &model.PartUsage{
				TaskID:    task.ID,
				PartID:    part.ID,
				Quantity:  usage.Quantity,
				UnitPrice: part.UnitPrice,
			}); err != nil {
				return err
			}
		}

		task.HoursWorked = task.HoursWorked.Add(input.Hours)
		if input.Complete {
			task.Completed = true
		}
		if task.TechnicianID == nil && principal.IsTechnician() {
			task.TechnicianID = &actor
		}
		return s.orders.UpdateTask(ctx, task)
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, orderID)
}

func (s *WorkOrderService) CompleteTask(ctx context.Context, principal model.Principal, orderID, taskID uuid.UUID) (*model.WorkOrder, error) {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		order, err := s.orders.GetByID(ctx, orderID)
		if err != nil {
			return notFound(err)
		}
		if !canWork(principal, order) {
			return ErrPermissionDenied
		}
		if order.State != model.WorkOrderStateAssigned && order.State != model.WorkOrderStateInProgress {
			return ErrInvalidStatus
		}

		task := findTask(order, taskID)
		if task == nil {
			return ErrNotFound
		}
		if task.Completed {
			return nil
		}
		task.Completed = true
		return s.orders.UpdateTask(ctx, task)
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, orderID)
}

// Close finalizes the order cost, returns the vehicle to service and, for
// preventive orders, moves the vehicle's plan threshold forward.
func (s *WorkOrderService) Close(ctx context.Context, principal model.Principal, orderID uuid.UUID) (*model.WorkOrder, error) {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		order, err := s.orders.GetByID(ctx, orderID)
		if err != nil {
			return notFound(err)
		}
		if !canWork(principal, order) {
			return ErrPermissionDenied
		}
		if order.State != model.WorkOrderStateInProgress {
			return ErrInvalidStatus
		}
		if !order.TasksComplete() {
			return ErrIncompleteTasks
		}

		now := s.clock.Now().UTC()
		if err := s.transition(ctx, principal, order, model.WorkOrderStateClosed, map[string]interface{}{
			"total_cost": TotalCost(order.Tasks),
			"closed_at":  now,
		}, "work order closed"); err != nil {
			return err
		}

		if err := s.vehicles.MarkServiced(ctx, order.VehicleID, now); err != nil {
			return err
		}

		if order.Type != model.WorkOrderTypePreventive {
			return nil
		}
		vehicle, err := s.vehicles.GetByID(ctx, order.VehicleID)
		if err != nil {
			return notFound(err)
		}
		plan, err := s.plans.Recalculate(ctx, vehicle)
		if err != nil {
			return err
		}
		if plan != nil {
			s.log.Info().
				Str("vehicle_id", vehicle.ID.String()).
				Str("order", order.Number).
				Msg("preventive plan threshold recalculated")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, orderID)
}

func (s *WorkOrderService) reload(ctx context.Context, id uuid.UUID) (*model.WorkOrder, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return order, nil
}

func (s *WorkOrderService) checkAssignee(ctx context.Context, userID uuid.UUID) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return notFound(err)
	}
	if !user.CanBeAssigned() {
		return ErrInvalidInput
	}
	return nil
}

func (s *WorkOrderService) resolveTask(ctx context.Context, principal model.Principal, order *model.WorkOrder, input RecordWorkInput) (*model.Task, error) {
	if input.TaskID != nil {
		task := findTask(order, *input.TaskID)
		if task == nil {
			return nil, ErrNotFound
		}
		return task, nil
	}

	notes := strings.TrimSpace(input.Notes)
	if notes == "" && len(input.Parts) == 0 && input.Hours.IsZero() && !input.Complete {
		return nil, nil
	}
	if notes == "" {
		notes = "Work recorded"
	}

	var technician *uuid.UUID
	if principal.IsTechnician() || principal.IsSupervisor() {
		actor := principal.UserID
		technician = &actor
	}
	return s.addTask(ctx, order.ID, notes, technician)
}

func (s *WorkOrderService) addTask(ctx context.Context, orderID uuid.UUID, description string, technicianID *uuid.UUID) (*model.Task, error) {
	position, err := s.orders.NextTaskPosition(ctx, orderID)
	if err != nil {
		return nil, err
	}
	task := &model.Task{
		WorkOrderID:  orderID,
		Position:     position,
		Description:  description,
		TechnicianID: technicianID,
		HoursWorked:  decimal.Zero,
	}
	if err := s.orders.CreateTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// transition advances the order by exactly one state and logs the change.
func (s *WorkOrderService) transition(ctx context.Context, principal model.Principal, order *model.WorkOrder, to model.WorkOrderState, fields map[string]interface{}, note string) error {
	next, ok := order.State.Next()
	if !ok || next != to {
		return ErrInvalidStatus
	}

	if err := s.orders.Transition(ctx, order.ID, order.State, to, fields); err != nil {
		if errors.Is(err, repository.ErrStaleWrite) {
			return ErrInvalidStatus
		}
		return err
	}

	from := order.State
	if err := s.logTransition(ctx, principal, order.ID, &from, to, note); err != nil {
		return err
	}
	order.State = to
	return nil
}

func (s *WorkOrderService) logTransition(ctx context.Context, principal model.Principal, orderID uuid.UUID, from *model.WorkOrderState, to model.WorkOrderState, note string) error {
	actor := principal.UserID
	return s.orders.LogStatusChange(ctx, &model.WorkOrderStatusLog{
		WorkOrderID: orderID,
		OldState:    from,
		NewState:    to,
		Note:        note,
		ChangedBy:   &actor,
	})
}

func findTask(order *model.WorkOrder, taskID uuid.UUID) *model.Task {
	for i := range order.Tasks {
		if order.Tasks[i].ID == taskID {
			return &order.Tasks[i]
		}
	}
	return nil
}

func canWork(principal model.Principal, order *model.WorkOrder) bool {
	return principal.IsSupervisor() || order.AssignedTo(principal.UserID)
}

func canView(principal model.Principal, order *model.WorkOrder) bool {
	switch {
	case principal.IsSupervisor():
		return true
	case principal.IsTechnician():
		if order.AssignedTo(principal.UserID) {
			return true
		}
		for _, task := range order.Tasks {
			if task.TechnicianID != nil && *task.TechnicianID == principal.UserID {
				return true
			}
		}
		return false
	case principal.IsDriver():
		return order.CreatedBy == principal.UserID
	default:
		return false
	}
}
