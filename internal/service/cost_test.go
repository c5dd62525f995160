package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"maintenance-service/internal/model"
)

func TestTotalCost(t *testing.T) {
	tasks := []model.Task{
		{
			HoursWorked: decimal.NewFromInt(3),
			PartUsages: []model.PartUsage{
				{Quantity: 2, UnitPrice: decimal.RequireFromString("12.50")},
				{Quantity: 1, UnitPrice: decimal.RequireFromString("99.99")},
			},
		},
		{
			PartUsages: []model.PartUsage{
				{Quantity: 4, UnitPrice: decimal.RequireFromString("0.25")},
			},
		},
		{},
	}

	assert.True(t, decimal.RequireFromString("125.99").Equal(TotalCost(tasks)), TotalCost(tasks).String())
	assert.True(t, LaborCost(tasks).IsZero())
	assert.True(t, TotalCost(nil).IsZero())
}
