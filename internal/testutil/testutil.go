// Package testutil provides an in-memory gorm database with the service schema
// and small fixtures for package tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	database "maintenance-service/internal/db"
	"maintenance-service/internal/model"
)

// NewDB opens a private in-memory sqlite database and migrates every table.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Open(sqlite.Open(dsn), logger.Default.LogMode(logger.Silent))
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	if err := db.AutoMigrate(database.Models()...); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("test database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

func CreateUser(t *testing.T, db *gorm.DB, role model.UserRole) *model.User {
	t.Helper()
	user := &model.User{
		FullName: "Test " + string(role),
		Email:    uuid.NewString()[:8] + "@fleet.test",
		Role:     role,
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func CreateVehicle(t *testing.T, db *gorm.DB, plate string, odometer int64) *model.Vehicle {
	t.Helper()
	vehicle := &model.Vehicle{
		PlateNumber: plate,
		Make:        "Volvo",
		Model:       "FH16",
		Year:        2021,
		Odometer:    odometer,
		Status:      model.VehicleStatusActive,
	}
	if err := db.Create(vehicle).Error; err != nil {
		t.Fatalf("create vehicle: %v", err)
	}
	return vehicle
}

func CreatePart(t *testing.T, db *gorm.DB, code string, price string, stock int64) *model.Part {
	t.Helper()
	part := &model.Part{
		Code:      code,
		Name:      "Part " + code,
		UnitPrice: decimal.RequireFromString(price),
		Stock:     stock,
	}
	if err := db.Create(part).Error; err != nil {
		t.Fatalf("create part: %v", err)
	}
	return part
}

func CreateDistancePlan(t *testing.T, db *gorm.DB, vehicleID uuid.UUID, intervalKm, nextDueKm int64) *model.PreventivePlan {
	t.Helper()
	plan := &model.PreventivePlan{
		VehicleID:  vehicleID,
		Kind:       model.IntervalKindDistance,
		IntervalKm: intervalKm,
		NextDueKm:  &nextDueKm,
		IsActive:   true,
	}
	if err := db.Create(plan).Error; err != nil {
		t.Fatalf("create plan: %v", err)
	}
	return plan
}

func CreateTimePlan(t *testing.T, db *gorm.DB, vehicleID uuid.UUID, intervalDays int, nextDue time.Time) *model.PreventivePlan {
	t.Helper()
	plan := &model.PreventivePlan{
		VehicleID:    vehicleID,
		Kind:         model.IntervalKindTime,
		IntervalDays: intervalDays,
		NextDueDate:  &nextDue,
		IsActive:     true,
	}
	if err := db.Create(plan).Error; err != nil {
		t.Fatalf("create plan: %v", err)
	}
	return plan
}

// Clock is a settable clock for deterministic tests.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Context returns a context cancelled when the test ends.
func Context(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
