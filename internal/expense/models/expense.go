package models

// Expense is one quarterly declared expense value tied to an operator.
// TaxID references an operator by value; the record reconciler
// guarantees it matches a persisted operator at load time, so the table
// carries no foreign key. LegalName is a denormalized snapshot of the
// name at ingestion time.
type Expense struct {
	ID            int64   `json:"id,omitempty"`
	TaxID         string  `json:"tax_id"`
	LegalName     string  `json:"legal_name"`
	Year          int     `json:"year"`
	Quarter       int     `json:"quarter"`
	Amount        float64 `json:"amount"`
	QualityStatus string  `json:"quality_status"`
}
