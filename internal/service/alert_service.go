package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"maintenance-service/internal/lock"
	"maintenance-service/internal/model"
	"maintenance-service/internal/notify"
	"maintenance-service/internal/repository"
)

const (
	DueSoonDistanceKm = 1000
	DueSoonDays       = 7

	scanLockKey = "maintenance:alert-scan"
)

// Locker hands out named locks. TryLock returns a nil release func when the
// lock is held elsewhere.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

var (
	_ Locker = (*lock.RedisLocker)(nil)
	_ Locker = (*lock.LocalLocker)(nil)
)

type DueCandidateLister interface {
	ListDueCandidates(ctx context.Context) ([]model.Vehicle, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Vehicle, error)
}

var _ DueCandidateLister = (*repository.VehicleRepository)(nil)

type AlertStore interface {
	List(ctx context.Context, filter repository.AlertFilter) ([]model.Alert, error)
	PendingByVehicleIDs(ctx context.Context, vehicleIDs []uuid.UUID) (map[uuid.UUID]model.Alert, error)
	Create(ctx context.Context, alert *model.Alert) error
	MarkNotified(ctx context.Context, ids []uuid.UUID) error
	DeleteByVehicle(ctx context.Context, vehicleID uuid.UUID) (int64, error)
}

var _ AlertStore = (*repository.AlertRepository)(nil)

type AlertSettings struct {
	Recipient string
	Subject   string
	Location  *time.Location
	LockTTL   time.Duration
}

type AlertService struct {
	vehicles DueCandidateLister
	alerts   AlertStore
	notifier notify.Notifier
	locker   Locker
	clock    Clock
	settings AlertSettings
	log      zerolog.Logger
}

func NewAlertService(
	vehicles DueCandidateLister,
	alerts AlertStore,
	notifier notify.Notifier,
	locker Locker,
	clock Clock,
	settings AlertSettings,
	log zerolog.Logger,
) *AlertService {
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	if settings.LockTTL <= 0 {
		settings.LockTTL = 10 * time.Minute
	}
	return &AlertService{
		vehicles: vehicles,
		alerts:   alerts,
		notifier: notifier,
		locker:   locker,
		clock:    clock,
		settings: settings,
		log:      log.With().Str("component", "alerts").Logger(),
	}
}

// ScanResult summarizes one fleet scan.
type ScanResult struct {
	Scanned   int  `json:"scanned"`
	Generated int  `json:"generated"`
	Batched   int  `json:"batched"`
	Notified  bool `json:"notified"`
}

type ListAlertsOptions struct {
	VehicleID   *uuid.UUID
	PendingOnly bool
	Limit       int
	Offset      int
}

// Evaluate checks a vehicle's plan against the due-soon windows. It returns
// false when the vehicle is outside both windows.
func Evaluate(vehicle model.Vehicle, today time.Time) (*model.Alert, bool) {
	plan := vehicle.Plan
	if plan == nil || !plan.IsActive {
		return nil, false
	}

	alert := &model.Alert{VehicleID: vehicle.ID, Kind: plan.Kind}

	switch plan.Kind {
	case model.IntervalKindDistance:
		if plan.NextDueKm == nil {
			return nil, false
		}
		remaining := *plan.NextDueKm - vehicle.Odometer
		switch {
		case remaining < 0:
			alert.Severity = model.AlertSeverityOverdue
			alert.Message = fmt.Sprintf("%s: preventive maintenance overdue by %d km (odometer %d km, due at %d km)",
				vehicle.PlateNumber, -remaining, vehicle.Odometer, *plan.NextDueKm)
		case remaining <= DueSoonDistanceKm:
			alert.Severity = model.AlertSeverityDueSoon
			alert.Message = fmt.Sprintf("%s: preventive maintenance due in %d km (odometer %d km, due at %d km)",
				vehicle.PlateNumber, remaining, vehicle.Odometer, *plan.NextDueKm)
		default:
			return nil, false
		}
	case model.IntervalKindTime:
		if plan.NextDueDate == nil {
			return nil, false
		}
		remaining := remainingDays(*plan.NextDueDate, today)
		due := plan.NextDueDate.UTC().Format("2006-01-02")
		switch {
		case remaining < 0:
			alert.Severity = model.AlertSeverityOverdue
			alert.Message = fmt.Sprintf("%s: preventive maintenance overdue by %d days (due on %s)",
				vehicle.PlateNumber, -remaining, due)
		case remaining <= DueSoonDays:
			alert.Severity = model.AlertSeverityDueSoon
			alert.Message = fmt.Sprintf("%s: preventive maintenance due in %d days (due on %s)",
				vehicle.PlateNumber, remaining, due)
		default:
			return nil, false
		}
	default:
		return nil, false
	}

	return alert, true
}

func remainingDays(due, today time.Time) int {
	return int(math.Ceil(due.Sub(today).Hours() / 24))
}

// Scan evaluates every active vehicle with an active plan, stores new alerts
// for vehicles without an outstanding one and sends a single notification
// with every alert still waiting to be notified.
func (s *AlertService) Scan(ctx context.Context) (*ScanResult, error) {
	now := s.clock.Now()
	today := dateOf(now, s.settings.Location)

	vehicles, err := s.vehicles.ListDueCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load vehicles: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(vehicles))
	plates := make(map[uuid.UUID]string, len(vehicles))
	for _, v := range vehicles {
		ids = append(ids, v.ID)
		plates[v.ID] = v.PlateNumber
	}

	pending, err := s.alerts.PendingByVehicleIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load pending alerts: %w", err)
	}

	result := &ScanResult{Scanned: len(vehicles)}
	batch := make([]model.Alert, 0, len(pending))
	for _, v := range vehicles {
		if existing, ok := pending[v.ID]; ok {
			batch = append(batch, existing)
			continue
		}

		alert, ok := Evaluate(v, today)
		if !ok {
			continue
		}
		alert.CreatedAt = now
		if err := s.alerts.Create(ctx, alert); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				s.log.Warn().Str("vehicle_id", v.ID.String()).Msg("pending alert already exists, skipping")
				continue
			}
			return nil, fmt.Errorf("store alert: %w", err)
		}
		result.Generated++
		batch = append(batch, *alert)
	}

	result.Batched = len(batch)
	if len(batch) == 0 {
		return result, nil
	}

	items := make([]notify.AlertItem, 0, len(batch))
	alertIDs := make([]uuid.UUID, 0, len(batch))
	for _, alert := range batch {
		items = append(items, notify.AlertItem{
			VehicleID:   alert.VehicleID.String(),
			PlateNumber: plates[alert.VehicleID],
			Kind:        string(alert.Kind),
			Severity:    string(alert.Severity),
			Message:     alert.Message,
			CreatedAt:   alert.CreatedAt,
		})
		alertIDs = append(alertIDs, alert.ID)
	}

	if err := s.notifier.Send(ctx, s.settings.Recipient, s.settings.Subject, items); err != nil {
		s.log.Error().Err(err).Int("alerts", len(items)).Msg("failed to dispatch alert notification")
		return result, nil
	}

	if err := s.alerts.MarkNotified(ctx, alertIDs); err != nil {
		return nil, fmt.Errorf("mark alerts notified: %w", err)
	}
	result.Notified = true

	s.log.Info().
		Int("scanned", result.Scanned).
		Int("generated", result.Generated).
		Int("notified", len(alertIDs)).
		Msg("alert notification dispatched")
	return result, nil
}

// Attend deletes every alert of the vehicle.
func (s *AlertService) Attend(ctx context.Context, vehicleID uuid.UUID) (int64, error) {
	return s.alerts.DeleteByVehicle(ctx, vehicleID)
}

func (s *AlertService) AttendVehicle(ctx context.Context, principal model.Principal, vehicleID uuid.UUID) (int64, error) {
	if !principal.IsSupervisor() {
		return 0, ErrPermissionDenied
	}
	if _, err := s.vehicles.GetByID(ctx, vehicleID); err != nil {
		return 0, notFound(err)
	}
	return s.Attend(ctx, vehicleID)
}

func (s *AlertService) TriggerScan(ctx context.Context, principal model.Principal) (*ScanResult, error) {
	if !principal.IsSupervisor() {
		return nil, ErrPermissionDenied
	}
	return s.RunExclusive(ctx)
}

// RunExclusive runs Scan under the fleet-wide scan lock shared by the daily
// run and manual triggers. It fails with ErrScanInProgress while another scan
// holds the lock.
func (s *AlertService) RunExclusive(ctx context.Context) (*ScanResult, error) {
	release, err := s.locker.TryLock(ctx, scanLockKey, s.settings.LockTTL)
	if err != nil {
		return nil, err
	}
	if release == nil {
		return nil, ErrScanInProgress
	}
	defer release()

	return s.Scan(ctx)
}

func (s *AlertService) List(ctx context.Context, principal model.Principal, opts ListAlertsOptions) ([]model.Alert, error) {
	if !principal.IsSupervisor() {
		return nil, ErrPermissionDenied
	}
	return s.alerts.List(ctx, repository.AlertFilter{
		VehicleID:   opts.VehicleID,
		PendingOnly: opts.PendingOnly,
		Limit:       opts.Limit,
		Offset:      opts.Offset,
	})
}
