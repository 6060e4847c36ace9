package core

// Bucket is one point of the dashboard chart series: income and expense
// sums for a single sub-interval of the reporting window.
type Bucket struct {
	Label        string
	IncomeCents  int64
	ExpenseCents int64
}

// Summary is the period-scoped dashboard aggregate for one account.
type Summary struct {
	Period            Period
	TotalIncomeCents  int64
	TotalExpenseCents int64
	BalanceCents      int64
	Series            []Bucket
}
