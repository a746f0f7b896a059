package models

import "time"

// Operator is one registered health-insurance operator from the
// canonical registry filing. TaxID is the 14-digit canonical id every
// expense record joins on; RegistryCode is the shorter alternate key
// expense files sometimes carry instead. Empty optional fields persist
// as NULL.
//
// Operators are created once per ingestion run and never mutated: the
// whole table is purged and reloaded (full refresh).
type Operator struct {
	TaxID        string    `json:"tax_id"`
	LegalName    string    `json:"legal_name"`
	RegistryCode string    `json:"registry_code,omitempty"`
	Category     string    `json:"category,omitempty"`
	RegionCode   string    `json:"region_code,omitempty"`
	CreatedAt    time.Time `json:"-"`
}

// Detail is an operator joined with its expense aggregates, served by
// the detail endpoint.
type Detail struct {
	Operator
	TotalExpenses float64 `json:"total_expenses"`
	QuarterCount  int     `json:"quarter_count"`
}
