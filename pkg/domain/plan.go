package domain

import (
	"fmt"
	"strings"
)

// Recurrence is how often a plan bills, as rendered by the backend
// (e.g. "monthly", "yearly", "1 Month").
type Recurrence string

// Plan is a server-owned subscription plan. The client never mutates plans.
type Plan struct {
	ID           int        `json:"id"`
	Name         string     `json:"name"`
	Price        float64    `json:"price"`
	Currency     string     `json:"currency"`
	Recurrence   Recurrence `json:"recurrence"`
	Duration     string     `json:"duration"`
	MonthlyQuota int        `json:"monthly_quota,omitempty"`
}

// PriceLabel renders the price the way the payment gateway expects amounts,
// two decimals followed by the currency code.
func (p Plan) PriceLabel() string {
	return strings.TrimSpace(fmt.Sprintf("%.2f %s", p.Price, p.Currency))
}

// PlanByID returns the plan with the given ID from plans, or false.
func PlanByID(plans []Plan, id int) (Plan, bool) {
	for _, p := range plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}
