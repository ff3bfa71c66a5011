package models

// GlobalStats are the platform-wide donation counters the registry owns.
//
// Totals accumulate independently of per-project refunds: a refund zeroes
// the project-side record but never decrements the global ledger. That
// asymmetry is documented source behavior, kept as-is.
type GlobalStats struct {
	DonationCount int64 `json:"donation_count"`
	TotalRaised   int64 `json:"total_raised"`
	DonorCount    int64 `json:"donor_count"`
	ProjectCount  int64 `json:"project_count"`
}
