package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maintenance-service/internal/model"
	"maintenance-service/internal/repository"
	"maintenance-service/internal/testutil"
)

type orderFixture struct {
	supervisor model.Principal
	technician model.Principal
	vehicle    *model.Vehicle
	order      *model.WorkOrder
}

func (e *env) startOrder(t *testing.T, orderType model.WorkOrderType, odometer int64) orderFixture {
	t.Helper()
	supervisor, _ := e.principal(t, model.UserRoleSupervisor)
	technician, _ := e.principal(t, model.UserRoleTechnician)
	vehicle := testutil.CreateVehicle(t, e.db, "KZ-"+uuid.NewString()[:6], odometer)

	order, err := e.orders.Create(e.ctx, supervisor, CreateWorkOrderInput{
		VehicleID:   vehicle.ID,
		Type:        orderType,
		Description: "scheduled service",
	})
	require.NoError(t, err)

	order, err = e.orders.Assign(e.ctx, supervisor, order.ID, technician.UserID)
	require.NoError(t, err)

	return orderFixture{supervisor: supervisor, technician: technician, vehicle: vehicle, order: order}
}

func TestWorkOrderService_CreateNumbersSequentially(t *testing.T) {
	e := newEnv(t)
	supervisor, _ := e.principal(t, model.UserRoleSupervisor)
	vehicle := testutil.CreateVehicle(t, e.db, "KZ-600", 1000)

	require.NoError(t, e.orderRepo.Create(e.ctx, &model.WorkOrder{
		Number:    "OT-2025-00042",
		VehicleID: vehicle.ID,
		Type:      model.WorkOrderTypeCorrective,
		State:     model.WorkOrderStateClosed,
		CreatedBy: supervisor.UserID,
	}))

	order, err := e.orders.Create(e.ctx, supervisor, CreateWorkOrderInput{VehicleID: vehicle.ID, Type: model.WorkOrderTypeCorrective})
	require.NoError(t, err)
	assert.Equal(t, "OT-2025-00043", order.Number)
	assert.Equal(t, model.WorkOrderStatePending, order.State)
	assert.Nil(t, order.ClosedAt)
	assert.True(t, order.TotalCost.IsZero())
	assert.Equal(t, model.VehicleStatusUnderMaintenance, e.reloadVehicle(t, vehicle.ID).Status)

	e.clock.Set(time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC))
	next, err := e.orders.Create(e.ctx, supervisor, CreateWorkOrderInput{VehicleID: vehicle.ID, Type: model.WorkOrderTypeCorrective})
	require.NoError(t, err)
	assert.Equal(t, "OT-2026-00001", next.Number)
}

func TestWorkOrderService_CreateContinuesPastFiveDigitSequence(t *testing.T) {
	e := newEnv(t)
	supervisor, _ := e.principal(t, model.UserRoleSupervisor)
	vehicle := testutil.CreateVehicle(t, e.db, "KZ-601", 1000)

	require.NoError(t, e.orderRepo.Create(e.ctx, &model.WorkOrder{
		Number:    "OT-2025-99999",
		VehicleID: vehicle.ID,
		Type:      model.WorkOrderTypeCorrective,
		State:     model.WorkOrderStateClosed,
		CreatedBy: supervisor.UserID,
	}))

	first, err := e.orders.Create(e.ctx, supervisor, CreateWorkOrderInput{VehicleID: vehicle.ID, Type: model.WorkOrderTypeCorrective})
	require.NoError(t, err)
	assert.Equal(t, "OT-2025-100000", first.Number)

	second, err := e.orders.Create(e.ctx, supervisor, CreateWorkOrderInput{VehicleID: vehicle.ID, Type: model.WorkOrderTypeCorrective})
	require.NoError(t, err)
	assert.Equal(t, "OT-2025-100001", second.Number)
}

func TestWorkOrderService_CreateValidation(t *testing.T) {
	e := newEnv(t)
	supervisor, _ := e.principal(t, model.UserRoleSupervisor)
	driver, _ := e.principal(t, model.UserRoleDriver)
	technician, _ := e.principal(t, model.UserRoleTechnician)
	vehicle := testutil.CreateVehicle(t, e.db, "KZ-601", 1000)

	_, err := e.orders.Create(e.ctx, supervisor, CreateWorkOrderInput{VehicleID: uuid.New(), Type: model.WorkOrderTypeCorrective})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.orders.Create(e.ctx, supervisor, CreateWorkOrderInput{VehicleID: vehicle.ID, Type: "URGENT"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.orders.Create(e.ctx, technician, CreateWorkOrderInput{VehicleID: vehicle.ID, Type: model.WorkOrderTypeCorrective})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = e.orders.Create(e.ctx, driver, CreateWorkOrderInput{VehicleID: vehicle.ID, Type: model.WorkOrderTypePreventive})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	order, err := e.orders.Create(e.ctx, driver, CreateWorkOrderInput{VehicleID: vehicle.ID, Type: model.WorkOrderTypeCorrective, Description: "brakes squeal"})
	require.NoError(t, err)
	assert.Equal(t, driver.UserID, order.CreatedBy)
}

func TestWorkOrderService_CreateAttendsVehicleAlerts(t *testing.T) {
	e := newEnv(t)
	supervisor, _ := e.principal(t, model.UserRoleSupervisor)
	vehicle := testutil.CreateVehicle(t, e.db, "KZ-602", 19000)
	require.NoError(t, e.alertRepo.Create(e.ctx, &model.Alert{
		VehicleID: vehicle.ID,
		Kind:      model.IntervalKindDistance,
		Severity:  model.AlertSeverityDueSoon,
		Message:   "due in 1000 km",
	}))

	_, err := e.orders.Create(e.ctx, supervisor, CreateWorkOrderInput{VehicleID: vehicle.ID, Type: model.WorkOrderTypePreventive})
	require.NoError(t, err)

	alerts, err := e.alertRepo.List(e.ctx, repository.AlertFilter{VehicleID: &vehicle.ID})
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestWorkOrderService_AssignRules(t *testing.T) {
	e := newEnv(t)
	supervisor, _ := e.principal(t, model.UserRoleSupervisor)
	technician, _ := e.principal(t, model.UserRoleTechnician)
	driver, driverUser := e.principal(t, model.UserRoleDriver)
	vehicle := testutil.CreateVehicle(t, e.db, "KZ-603", 1000)

	order, err := e.orders.Create(e.ctx, supervisor, CreateWorkOrderInput{VehicleID: vehicle.ID, Type: model.WorkOrderTypeCorrective})
	require.NoError(t, err)

	_, err = e.orders.Assign(e.ctx, driver, order.ID, technician.UserID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = e.orders.Assign(e.ctx, supervisor, order.ID, driverUser.ID)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.orders.Assign(e.ctx, supervisor, order.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	assigned, err := e.orders.Assign(e.ctx, supervisor, order.ID, technician.UserID)
	require.NoError(t, err)
	assert.Equal(t, model.WorkOrderStateAssigned, assigned.State)
	assert.True(t, assigned.AssignedTo(technician.UserID))

	other, _ := e.principal(t, model.UserRoleTechnician)
	_, err = e.orders.Assign(e.ctx, supervisor, order.ID, other.UserID)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestWorkOrderService_StatesOnlyMoveForward(t *testing.T) {
	e := newEnv(t)
	supervisor, _ := e.principal(t, model.UserRoleSupervisor)
	technician, _ := e.principal(t, model.UserRoleTechnician)
	vehicle := testutil.CreateVehicle(t, e.db, "KZ-604", 1000)

	order, err := e.orders.Create(e.ctx, supervisor, CreateWorkOrderInput{VehicleID: vehicle.ID, Type: model.WorkOrderTypeCorrective})
	require.NoError(t, err)

	_, err = e.orders.Close(e.ctx, supervisor, order.ID)
	assert.ErrorIs(t, err, ErrInvalidStatus, "pending cannot skip to closed")

	_, err = e.orders.RecordWork(e.ctx, supervisor, order.ID, RecordWorkInput{Notes: "inspect"})
	assert.ErrorIs(t, err, ErrInvalidStatus, "pending cannot record work")

	_, err = e.orders.Assign(e.ctx, supervisor, order.ID, technician.UserID)
	require.NoError(t, err)

	_, err = e.orders.Close(e.ctx, supervisor, order.ID)
	assert.ErrorIs(t, err, ErrInvalidStatus, "assigned cannot skip to closed")

	started, err := e.orders.RecordWork(e.ctx, technician, order.ID, RecordWorkInput{Notes: "inspect", Complete: true})
	require.NoError(t, err)
	assert.Equal(t, model.WorkOrderStateInProgress, started.State)

	closed, err := e.orders.Close(e.ctx, technician, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.WorkOrderStateClosed, closed.State)
	require.NotNil(t, closed.ClosedAt)

	_, err = e.orders.RecordWork(e.ctx, supervisor, order.ID, RecordWorkInput{Notes: "again"})
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = e.orders.Close(e.ctx, supervisor, order.ID)
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = e.orders.AddTask(e.ctx, supervisor, order.ID, AddTaskInput{Description: "late"})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	details, err := e.orders.Get(e.ctx, supervisor, order.ID)
	require.NoError(t, err)
	states := make([]model.WorkOrderState, 0, len(details.History))
	for _, entry := range details.History {
		states = append(states, entry.NewState)
	}
	assert.Equal(t, []model.WorkOrderState{
		model.WorkOrderStatePending,
		model.WorkOrderStateAssigned,
		model.WorkOrderStateInProgress,
		model.WorkOrderStateClosed,
	}, states)
}

func TestWorkOrderService_RecordWorkPermissions(t *testing.T) {
	e := newEnv(t)
	f := e.startOrder(t, model.WorkOrderTypeCorrective, 1000)
	stranger, _ := e.principal(t, model.UserRoleTechnician)
	driver, _ := e.principal(t, model.UserRoleDriver)

	_, err := e.orders.RecordWork(e.ctx, stranger, f.order.ID, RecordWorkInput{Notes: "not mine"})
	assert.ErrorIs(t, err, ErrPermissionDenied)
	_, err = e.orders.RecordWork(e.ctx, driver, f.order.ID, RecordWorkInput{Notes: "not mine"})
	assert.ErrorIs(t, err, ErrPermissionDenied)
	_, err = e.orders.Close(e.ctx, stranger, f.order.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	order, err := e.orders.RecordWork(e.ctx, f.supervisor, f.order.ID, RecordWorkInput{Notes: "supervisor check"})
	require.NoError(t, err)
	assert.Equal(t, model.WorkOrderStateInProgress, order.State)
}

func TestWorkOrderService_RecordWorkFreezesPartPrice(t *testing.T) {
	e := newEnv(t)
	f := e.startOrder(t, model.WorkOrderTypeCorrective, 1000)
	filter := testutil.CreatePart(t, e.db, "FLT-OIL", "12.50", 10)
	pads := testutil.CreatePart(t, e.db, "BRK-PAD", "45.00", 4)

	order, err := e.orders.RecordWork(e.ctx, f.technician, f.order.ID, RecordWorkInput{
		Notes: "oil change",
		Hours: decimal.RequireFromString("1.5"),
		Parts: []PartUsageInput{
			{PartID: filter.ID, Quantity: 2},
			{PartID: pads.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)
	require.Len(t, order.Tasks, 1)
	task := order.Tasks[0]
	assert.Equal(t, "oil change", task.Description)
	assert.True(t, decimal.RequireFromString("1.5").Equal(task.HoursWorked))
	require.NotNil(t, task.TechnicianID)
	assert.Equal(t, f.technician.UserID, *task.TechnicianID)
	require.Len(t, task.PartUsages, 2)

	assert.Equal(t, int64(8), e.reloadPart(t, filter.ID).Stock)
	assert.Equal(t, int64(3), e.reloadPart(t, pads.ID).Stock)

	require.NoError(t, e.db.Model(&model.Part{}).Where("id = ?", filter.ID).Update("unit_price", decimal.RequireFromString("20.00")).Error)

	order, err = e.orders.RecordWork(e.ctx, f.technician, f.order.ID, RecordWorkInput{
		TaskID:   &task.ID,
		Hours:    decimal.RequireFromString("0.5"),
		Complete: true,
		Parts:    []PartUsageInput{{PartID: filter.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	require.Len(t, order.Tasks, 1)
	assert.True(t, order.Tasks[0].Completed)
	assert.True(t, decimal.NewFromInt(2).Equal(order.Tasks[0].HoursWorked))

	closed, err := e.orders.Close(e.ctx, f.technician, f.order.ID)
	require.NoError(t, err)
	// 2 x 12.50 + 1 x 45.00 + 1 x 20.00
	assert.True(t, decimal.RequireFromString("90").Equal(closed.TotalCost), closed.TotalCost.String())
}

func TestWorkOrderService_RecordWorkInsufficientStockRollsBack(t *testing.T) {
	e := newEnv(t)
	f := e.startOrder(t, model.WorkOrderTypeCorrective, 1000)
	plenty := testutil.CreatePart(t, e.db, "BLT-01", "5.00", 10)
	scarce := testutil.CreatePart(t, e.db, "BLT-02", "9.00", 2)

	_, err := e.orders.RecordWork(e.ctx, f.technician, f.order.ID, RecordWorkInput{
		Notes:    "replace belts",
		Odometer: ptr(int64(1500)),
		Parts: []PartUsageInput{
			{PartID: plenty.ID, Quantity: 3},
			{PartID: scarce.ID, Quantity: 5},
		},
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	assert.Equal(t, int64(10), e.reloadPart(t, plenty.ID).Stock)
	assert.Equal(t, int64(2), e.reloadPart(t, scarce.ID).Stock)
	assert.Equal(t, int64(1000), e.reloadVehicle(t, f.vehicle.ID).Odometer)

	details, err := e.orders.Get(e.ctx, f.supervisor, f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.WorkOrderStateAssigned, details.Order.State)
	assert.Empty(t, details.Order.Tasks)
}

func TestWorkOrderService_RecordWorkOdometer(t *testing.T) {
	e := newEnv(t)
	f := e.startOrder(t, model.WorkOrderTypeCorrective, 30000)

	_, err := e.orders.RecordWork(e.ctx, f.technician, f.order.ID, RecordWorkInput{Odometer: ptr(int64(29999))})
	assert.ErrorIs(t, err, ErrOdometerDecrease)
	assert.Equal(t, int64(30000), e.reloadVehicle(t, f.vehicle.ID).Odometer)

	order, err := e.orders.RecordWork(e.ctx, f.technician, f.order.ID, RecordWorkInput{Odometer: ptr(int64(30120))})
	require.NoError(t, err)
	assert.Empty(t, order.Tasks)
	assert.Equal(t, int64(30120), e.reloadVehicle(t, f.vehicle.ID).Odometer)
}

func TestWorkOrderService_RecordWorkUnknownTask(t *testing.T) {
	e := newEnv(t)
	f := e.startOrder(t, model.WorkOrderTypeCorrective, 1000)

	missing := uuid.New()
	_, err := e.orders.RecordWork(e.ctx, f.technician, f.order.ID, RecordWorkInput{TaskID: &missing, Complete: true})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWorkOrderService_CloseRequiresCompletedTasks(t *testing.T) {
	e := newEnv(t)
	f := e.startOrder(t, model.WorkOrderTypeCorrective, 1000)

	order, err := e.orders.AddTask(e.ctx, f.supervisor, f.order.ID, AddTaskInput{Description: "check tyres"})
	require.NoError(t, err)
	order, err = e.orders.AddTask(e.ctx, f.supervisor, f.order.ID, AddTaskInput{Description: "check lights", TechnicianID: &f.technician.UserID})
	require.NoError(t, err)
	require.Len(t, order.Tasks, 2)
	assert.Equal(t, 1, order.Tasks[0].Position)
	assert.Equal(t, 2, order.Tasks[1].Position)

	_, err = e.orders.RecordWork(e.ctx, f.technician, f.order.ID, RecordWorkInput{TaskID: &order.Tasks[0].ID, Complete: true})
	require.NoError(t, err)

	_, err = e.orders.Close(e.ctx, f.technician, f.order.ID)
	assert.ErrorIs(t, err, ErrIncompleteTasks)

	details, err := e.orders.Get(e.ctx, f.supervisor, f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.WorkOrderStateInProgress, details.Order.State)
	assert.Nil(t, details.Order.ClosedAt)

	_, err = e.orders.CompleteTask(e.ctx, f.technician, f.order.ID, order.Tasks[1].ID)
	require.NoError(t, err)

	closed, err := e.orders.Close(e.ctx, f.technician, f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.WorkOrderStateClosed, closed.State)
}

func TestWorkOrderService_ClosePreventiveRecalculatesPlan(t *testing.T) {
	e := newEnv(t)
	f := e.startOrder(t, model.WorkOrderTypePreventive, 58000)
	testutil.CreateDistancePlan(t, e.db, f.vehicle.ID, 10000, 60000)

	_, err := e.orders.RecordWork(e.ctx, f.technician, f.order.ID, RecordWorkInput{
		Notes:    "60k service",
		Odometer: ptr(int64(60000)),
		Complete: true,
	})
	require.NoError(t, err)

	closedAt := time.Date(2025, 6, 11, 15, 0, 0, 0, time.UTC)
	e.clock.Set(closedAt)
	closed, err := e.orders.Close(e.ctx, f.technician, f.order.ID)
	require.NoError(t, err)
	require.NotNil(t, closed.ClosedAt)
	assert.True(t, closedAt.Equal(*closed.ClosedAt))

	plan, err := e.plans.Get(e.ctx, f.vehicle.ID)
	require.NoError(t, err)
	require.NotNil(t, plan.NextDueKm)
	assert.Equal(t, int64(70000), *plan.NextDueKm)

	vehicle := e.reloadVehicle(t, f.vehicle.ID)
	assert.Equal(t, model.VehicleStatusActive, vehicle.Status)
	require.NotNil(t, vehicle.LastServiceAt)
	assert.True(t, closedAt.Equal(*vehicle.LastServiceAt))
}

func TestWorkOrderService_CloseCorrectiveKeepsPlan(t *testing.T) {
	e := newEnv(t)
	f := e.startOrder(t, model.WorkOrderTypeCorrective, 58000)
	testutil.CreateDistancePlan(t, e.db, f.vehicle.ID, 10000, 60000)

	_, err := e.orders.RecordWork(e.ctx, f.technician, f.order.ID, RecordWorkInput{Notes: "fix mirror", Complete: true})
	require.NoError(t, err)
	_, err = e.orders.Close(e.ctx, f.supervisor, f.order.ID)
	require.NoError(t, err)

	plan, err := e.plans.Get(e.ctx, f.vehicle.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(60000), *plan.NextDueKm)
}

func TestWorkOrderService_ListScopesByRole(t *testing.T) {
	e := newEnv(t)
	f := e.startOrder(t, model.WorkOrderTypeCorrective, 1000)
	e.startOrder(t, model.WorkOrderTypeCorrective, 2000)

	all, err := e.orders.List(e.ctx, f.supervisor, ListWorkOrdersOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := e.orders.List(e.ctx, f.technician, ListWorkOrdersOptions{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, f.order.ID, mine[0].ID)

	stranger, _ := e.principal(t, model.UserRoleTechnician)
	_, err = e.orders.Get(e.ctx, stranger, f.order.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func ptr[T any](v T) *T {
	return &v
}
