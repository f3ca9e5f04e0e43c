package core

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// MonthSummary is a compact per-user summary for a specific year+month.
type MonthSummary struct {
	Year    int
	Month   int // 1-12
	Income  Money
	Expense Money
	// ByCategory holds expense totals per category, largest first.
	ByCategory []CategoryAmount
}
