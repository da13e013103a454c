package models

import "github.com/shopspring/decimal"

func init() {
	// money is rendered as a JSON number, not a quoted string
	decimal.MarshalJSONWithoutQuotes = true
}

// All returns every model in migration order. Roles come first so the users
// foreign key can be applied.
func All() []any {
	return []any{
		&Role{},
		&User{},
		&UserPreferences{},
		&Upload{},
		&GoodsServicesRecord{},
		&SalariesForm1Record{},
		&SalaryEntryForm2Record{},
		&Setting{},
		&AuditLog{},
	}
}
