package handler

import (
	"time"

	"givepool/internal/funding/leaderboard"
	"givepool/internal/funding/models"
	id "givepool/pkg/domain"
)

// ProjectResponse is the public view of a project aggregate.
type ProjectResponse struct {
	ID          id.ProjectID   `json:"id"`
	Admin       id.AccountID   `json:"admin"`
	Goal        int64          `json:"goal"`
	Raised      int64          `json:"raised"`
	Status      string         `json:"status"`
	MetadataRef id.ContentHash `json:"metadata_ref,omitempty"`
	DonorCount  int            `json:"donor_count"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// FromProject maps an aggregate snapshot onto its public view. Per-donor
// totals stay out of the default response; they have their own endpoint.
func FromProject(p *models.Project) ProjectResponse {
	return ProjectResponse{
		ID:          p.ID,
		Admin:       p.Admin,
		Goal:        p.Goal,
		Raised:      p.Raised,
		Status:      p.Status.String(),
		MetadataRef: p.MetadataRef,
		DonorCount:  len(p.DonorOrder),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// LeaderboardResponse is the body for GET /leaderboard.
type LeaderboardResponse struct {
	Start   int                 `json:"start"`
	End     int                 `json:"end"`
	Entries []leaderboard.Entry `json:"entries"`
}

// DonorTotalResponse is the body for per-donor total lookups.
type DonorTotalResponse struct {
	Donor id.AccountID `json:"donor"`
	Total int64        `json:"total"`
}

// RefundResponse reports the outcome of a refund call.
type RefundResponse struct {
	ProjectID id.ProjectID   `json:"project_id"`
	Refunds   []RefundedLine `json:"refunds"`
}

// RefundedLine is one refunded donor.
type RefundedLine struct {
	Donor  id.AccountID `json:"donor"`
	Amount int64        `json:"amount"`
}

// EvidenceResponse is the body for GET /projects/{projectID}/evidence.
type EvidenceResponse struct {
	ProjectID id.ProjectID            `json:"project_id"`
	Evidence  []models.EvidenceRecord `json:"evidence"`
}

// AllowlistResponse is the body for GET /admin/allowlist.
type AllowlistResponse struct {
	Assets   []id.AssetID `json:"assets"`
	AllowAll bool         `json:"allow_all"`
}

// BadgesResponse is the body for GET /donors/{accountID}/badges.
type BadgesResponse struct {
	Donor  id.AccountID `json:"donor"`
	Badges []string     `json:"badges"`
}
