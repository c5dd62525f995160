package service

import (
	"github.com/shopspring/decimal"

	"maintenance-service/internal/model"
)

// PartsCost sums quantity times frozen unit price over every usage of every task.
func PartsCost(tasks []model.Task) decimal.Decimal {
	total := decimal.Zero
	for _, task := range tasks {
		for _, usage := range task.PartUsages {
			total = total.Add(usage.UnitPrice.Mul(decimal.NewFromInt(usage.Quantity)))
		}
	}
	return total
}

// LaborCost is zero until a labor rate is defined. Hours are recorded on
// tasks but not priced.
func LaborCost(tasks []model.Task) decimal.Decimal {
	return decimal.Zero
}

func TotalCost(tasks []model.Task) decimal.Decimal {
	return PartsCost(tasks).Add(LaborCost(tasks))
}
