// Package shipping exposes the fixed shipping-method catalog. Methods are
// static for now; the checkout session snapshots whichever one the buyer
// picks so later catalog edits never reprice an in-flight session.
package shipping

import (
	pkgerrors "github.com/wastetotreasure/w2t-backend/pkg/errors"
)

// Method is a shipping option offered at the address step.
type Method struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CostCents int64  `json:"cost_cents"`
	ETADays   int    `json:"eta_days"`
}

var catalog = []Method{
	{ID: "standard", Name: "Standard Shipping", CostCents: 799, ETADays: 5},
	{ID: "express", Name: "Express Shipping", CostCents: 1499, ETADays: 2},
	{ID: "pickup", Name: "Local Pickup", CostCents: 0, ETADays: 0},
}

// Methods returns the full catalog.
func Methods() []Method {
	out := make([]Method, len(catalog))
	copy(out, catalog)
	return out
}

// Find returns the method with the given id.
func Find(id string) (Method, error) {
	for _, m := range catalog {
		if m.ID == id {
			return m, nil
		}
	}
	return Method{}, pkgerrors.New(pkgerrors.CodeNotFound, "shipping method not found")
}
