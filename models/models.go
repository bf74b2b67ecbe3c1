package models

// All returns every persisted model, in dependency order, for schema migration
func All() []any {
	return []any{
		&Property{},
		&SeasonalPrice{},
		&PropertyFee{},
		&PricingRule{},
		&BookingPayment{},
	}
}
