package domain

// LateFeeSettings is the explicit snapshot of the three system settings the
// stored late-fee procedure reads. Logged alongside every triggered run so an
// audit can tell which values were in force.
type LateFeeSettings struct {
	PaymentDueDay           int     `json:"payment_due_day"`
	LateFeePercentage       float64 `json:"late_fee_percentage"`
	RecalculationPercentage float64 `json:"total_recalculation_percentage"`
}
