package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"maintenance-service/internal/db"
	"maintenance-service/internal/lock"
	"maintenance-service/internal/model"
	"maintenance-service/internal/notify"
	"maintenance-service/internal/repository"
	"maintenance-service/internal/testutil"
)

type fakeNotifier struct {
	mu    sync.Mutex
	err   error
	calls [][]notify.AlertItem

	// When set, Send reports on entered and waits for proceed.
	entered chan struct{}
	proceed chan struct{}
}

func (n *fakeNotifier) Send(ctx context.Context, recipient, subject string, alerts []notify.AlertItem) error {
	if n.entered != nil {
		n.entered <- struct{}{}
		<-n.proceed
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, alerts)
	return n.err
}

func (n *fakeNotifier) sends() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

func (n *fakeNotifier) lastBatch() []notify.AlertItem {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.calls) == 0 {
		return nil
	}
	return n.calls[len(n.calls)-1]
}

type env struct {
	db       *gorm.DB
	ctx      context.Context
	clock    *testutil.Clock
	notifier *fakeNotifier
	locker   *lock.LocalLocker

	vehicleRepo *repository.VehicleRepository
	partRepo    *repository.PartRepository
	planRepo    *repository.PlanRepository
	orderRepo   *repository.WorkOrderRepository
	alertRepo   *repository.AlertRepository

	ledger   *InventoryLedger
	vehicles *VehicleService
	parts    *PartService
	plans    *PlanService
	orders   *WorkOrderService
	alerts   *AlertService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	gdb := testutil.NewDB(t)
	e := &env{
		db:       gdb,
		ctx:      testutil.Context(t),
		clock:    testutil.NewClock(time.Date(2025, 6, 10, 9, 30, 0, 0, time.UTC)),
		notifier: &fakeNotifier{},
		locker:   lock.NewLocalLocker(),

		vehicleRepo: repository.NewVehicleRepository(gdb),
		partRepo:    repository.NewPartRepository(gdb),
		planRepo:    repository.NewPlanRepository(gdb),
		orderRepo:   repository.NewWorkOrderRepository(gdb),
		alertRepo:   repository.NewAlertRepository(gdb),
	}

	tx := db.NewTransactor(gdb)
	log := zerolog.Nop()

	e.ledger = NewInventoryLedger(tx, e.partRepo)
	e.vehicles = NewVehicleService(e.vehicleRepo)
	e.parts = NewPartService(e.partRepo, e.ledger)
	e.plans = NewPlanService(e.planRepo, e.vehicleRepo, e.clock, time.UTC)
	e.alerts = NewAlertService(e.vehicleRepo, e.alertRepo, e.notifier, e.locker, e.clock, AlertSettings{
		Recipient: "fleet@fleet.test",
		Subject:   "Maintenance alerts",
	}, log)
	e.orders = NewWorkOrderService(WorkOrderDeps{
		Tx:       tx,
		Orders:   e.orderRepo,
		Vehicles: e.vehicleRepo,
		Users:    repository.NewUserRepository(gdb),
		Ledger:   e.ledger,
		Plans:    e.plans,
		Alerts:   e.alerts,
		Clock:    e.clock,
		Location: time.UTC,
		Log:      log,
	})
	return e
}

func (e *env) principal(t *testing.T, role model.UserRole) (model.Principal, *model.User) {
	t.Helper()
	user := testutil.CreateUser(t, e.db, role)
	return model.Principal{UserID: user.ID, Role: role}, user
}

func (e *env) reloadVehicle(t *testing.T, id interface{}) model.Vehicle {
	t.Helper()
	var vehicle model.Vehicle
	if err := e.db.First(&vehicle, "id = ?", id).Error; err != nil {
		t.Fatalf("reload vehicle: %v", err)
	}
	return vehicle
}

func (e *env) reloadPart(t *testing.T, id interface{}) model.Part {
	t.Helper()
	var part model.Part
	if err := e.db.First(&part, "id = ?", id).Error; err != nil {
		t.Fatalf("reload part: %v", err)
	}
	return part
}
