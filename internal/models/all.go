package models

// All lists every persisted model, in dependency order, for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&Category{},
		&Item{},
		&Period{},
		&BudgetEntry{},
		&Transaction{},
		&AuditLog{},
	}
}
