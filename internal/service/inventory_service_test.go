package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maintenance-service/internal/model"
	"maintenance-service/internal/testutil"
)

func TestInventoryLedger_DeductMoreThanStock(t *testing.T) {
	e := newEnv(t)
	part := testutil.CreatePart(t, e.db, "OIL-5W30", "8.40", 2)

	_, err := e.ledger.Deduct(e.ctx, part.ID, 5, MovementRef{})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, int64(2), e.reloadPart(t, part.ID).Stock)

	movements, err := e.partRepo.ListMovements(e.ctx, part.ID)
	require.NoError(t, err)
	assert.Empty(t, movements)
}

func TestInventoryLedger_DeductRecordsMovement(t *testing.T) {
	e := newEnv(t)
	part := testutil.CreatePart(t, e.db, "OIL-5W30", "8.40", 10)
	orderID := uuid.New()

	deducted, err := e.ledger.Deduct(e.ctx, part.ID, 4, MovementRef{WorkOrderID: &orderID})
	require.NoError(t, err)
	assert.Equal(t, int64(6), deducted.Stock)
	assert.Equal(t, "8.4", deducted.UnitPrice.String())
	assert.Equal(t, int64(6), e.reloadPart(t, part.ID).Stock)

	movements, err := e.partRepo.ListMovements(e.ctx, part.ID)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, model.MovementDeduct, movements[0].Type)
	assert.Equal(t, int64(-4), movements[0].Quantity)
	require.NotNil(t, movements[0].WorkOrderID)
	assert.Equal(t, orderID, *movements[0].WorkOrderID)
}

func TestInventoryLedger_DeductUnknownPart(t *testing.T) {
	e := newEnv(t)
	_, err := e.ledger.Deduct(e.ctx, uuid.New(), 1, MovementRef{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInventoryLedger_Restock(t *testing.T) {
	e := newEnv(t)
	part := testutil.CreatePart(t, e.db, "FLT-AIR", "15.00", 1)

	_, err := e.ledger.Restock(e.ctx, part.ID, 0, MovementRef{})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = e.ledger.Restock(e.ctx, part.ID, -3, MovementRef{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	restocked, err := e.ledger.Restock(e.ctx, part.ID, 9, MovementRef{})
	require.NoError(t, err)
	assert.Equal(t, int64(10), restocked.Stock)

	_, err = e.ledger.Restock(e.ctx, uuid.New(), 1, MovementRef{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPartService_Permissions(t *testing.T) {
	e := newEnv(t)
	technician, _ := e.principal(t, model.UserRoleTechnician)
	supervisor, _ := e.principal(t, model.UserRoleSupervisor)

	_, err := e.parts.Create(e.ctx, technician, CreatePartInput{Code: "X", Name: "X"})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	part, err := e.parts.Create(e.ctx, supervisor, CreatePartInput{Code: " brk-pad ", Name: "Brake pad", Stock: 3})
	require.NoError(t, err)
	assert.Equal(t, "BRK-PAD", part.Code)

	_, err = e.parts.Create(e.ctx, supervisor, CreatePartInput{Code: "BRK-PAD", Name: "Duplicate"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = e.parts.Restock(e.ctx, technician, part.ID, 1)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}
