package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Money is an exact decimal column. JSON, Scan and Value come from decimal.Decimal.
type Money struct {
	decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

// GormDBDataType keeps sqlite from applying NUMERIC affinity, which would round
// the value through a float64.
func (Money) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "sqlite" {
		return "TEXT"
	}
	return "numeric"
}

// AsEntered formats the amount with the scale it was parsed with ("1000.10" stays "1000.10").
func (m Money) AsEntered() string {
	places := -m.Exponent()
	if places < 0 {
		places = 0
	}
	return m.StringFixed(places)
}
