package guarda

import "time"

// PartialConfirmation records a scan that did not complete its line item.
// Rows are append-only.
type PartialConfirmation struct {
	ID          int64
	LineItemID  int64
	Address     string
	Quantity    int
	ScanCycle   int
	ConfirmedAt time.Time
}

// SumQuantities totals the confirmations belonging to cycle
func SumQuantities(confirmations []PartialConfirmation, cycle int) int {
	total := 0
	for _, c := range confirmations {
		if c.ScanCycle == cycle {
			total += c.Quantity
		}
	}
	return total
}
