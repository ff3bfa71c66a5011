package models

import (
	"time"

	id "givepool/pkg/domain"
	dErrors "givepool/pkg/domain-errors"
)

// Platform-wide funding constants.
const (
	// MinimumDonation is the smallest accepted donation, in subunits.
	// It is deliberately asset-agnostic: assets with coarser subunit scales
	// share the same floor. Known limitation, kept as-is.
	MinimumDonation int64 = 1_000

	// MaxFeeBasisPoints caps the platform fee at 50%.
	MaxFeeBasisPoints int64 = 5_000

	feeDenominator int64 = 10_000
)

// EvidenceRecord is an immutable proof-of-completion artifact reference.
type EvidenceRecord struct {
	Hash        id.ContentHash `json:"hash"`
	SubmittedAt time.Time      `json:"submitted_at"`
	Submitter   id.AccountID   `json:"submitter"`
}

// Project is the aggregate root for one funding campaign.
//
// Invariants:
//   - Initializes exactly once; every operation except Initialize requires it
//   - Goal is a positive integer number of subunits
//   - Raised equals the sum of per-donor totals at all times
//   - Status transitions follow ProjectStatus.CanTransitionTo; nothing
//     transitions out of Completed
//   - Donor totals are non-negative: donations minus refunds to that donor
//   - DonorOrder lists distinct donors in first-donation order
//   - The evidence log is append-only
//
// The aggregate is pure state + transition rules. Escrow movement, allowlist
// checks and registry reporting live in the service layer; the Can*/Apply*
// pairs exist so stores can run validate-then-mutate atomically under their
// own locking.
type Project struct {
	ID          id.ProjectID   `json:"id"`
	Admin       id.AccountID   `json:"admin"`
	Goal        int64          `json:"goal"`
	Raised      int64          `json:"raised"`
	Status      ProjectStatus  `json:"status"`
	MetadataRef id.ContentHash `json:"metadata_ref"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`

	// DonorTotals maps donor identity to cumulative accepted amount across
	// all assets. DonorOrder preserves first-donation insertion order.
	DonorTotals map[id.AccountID]int64 `json:"donor_totals"`
	DonorOrder  []id.AccountID         `json:"donor_order"`

	Evidence []EvidenceRecord `json:"evidence"`

	initialized bool
}

// ValidateProjectArgs checks the caller-supplied creation arguments. The
// registry runs it before allocating an id, so a rejected attempt leaves no
// gap in the sequence.
func ValidateProjectArgs(admin id.AccountID, goal int64) error {
	if admin.IsNil() {
		return dErrors.New(dErrors.CodeInvalidIdentity, "project admin cannot be the zero identity")
	}
	if goal <= 0 {
		return dErrors.New(dErrors.CodeInvalidAmount, "funding goal must be positive")
	}
	return nil
}

// NewProject builds an initialized project aggregate. It is the Go rendering
// of the one-time initialize call: the registry invokes it exactly once per
// id, and stores refuse to register the same id twice.
func NewProject(projectID id.ProjectID, admin id.AccountID, goal int64, metadataRef id.ContentHash, now time.Time) (*Project, error) {
	if projectID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnknownProject, "project id cannot be zero")
	}
	if err := ValidateProjectArgs(admin, goal); err != nil {
		return nil, err
	}
	return &Project{
		ID:          projectID,
		Admin:       admin,
		Goal:        goal,
		Status:      StatusActive,
		MetadataRef: metadataRef,
		CreatedAt:   now,
		UpdatedAt:   now,
		DonorTotals: make(map[id.AccountID]int64),
		initialized: true,
	}, nil
}

// Initialize marks a blank aggregate as initialized. A second call always
// fails regardless of arguments.
func (p *Project) Initialize(projectID id.ProjectID, admin id.AccountID, goal int64, metadataRef id.ContentHash, now time.Time) error {
	if p.initialized {
		return dErrors.New(dErrors.CodeAlreadyInitialized, "project is already initialized")
	}
	fresh, err := NewProject(projectID, admin, goal, metadataRef, now)
	if err != nil {
		return err
	}
	*p = *fresh
	return nil
}

// Initialized reports whether the one-time initialization has run.
func (p *Project) Initialized() bool {
	return p.initialized
}

// restore is used by stores when rehydrating persisted aggregates.
func (p *Project) restore() {
	p.initialized = true
	if p.DonorTotals == nil {
		p.DonorTotals = make(map[id.AccountID]int64)
	}
}

// Restore marks a rehydrated aggregate as initialized. Only stores call this.
func Restore(p *Project) {
	p.restore()
}

func (p *Project) requireInitialized() error {
	if !p.initialized {
		return dErrors.New(dErrors.CodeNotInitialized, "project is not initialized")
	}
	return nil
}

// GoalReached reports whether cumulative donations cover the goal.
func (p *Project) GoalReached() bool {
	return p.Raised >= p.Goal
}

// CanDonate checks the preconditions for accepting a donation.
// Donations are only accepted while the campaign is Active.
func (p *Project) CanDonate(donor id.AccountID, amount int64) error {
	if err := p.requireInitialized(); err != nil {
		return err
	}
	if donor.IsNil() {
		return dErrors.New(dErrors.CodeInvalidIdentity, "donor cannot be the zero identity")
	}
	if amount < MinimumDonation {
		return dErrors.Newf(dErrors.CodeInvalidAmount, "donation below minimum of %d subunits", MinimumDonation)
	}
	if p.Status != StatusActive {
		return dErrors.Newf(dErrors.CodeInvalidStatusTransition, "project is %s, donations require active", p.Status)
	}
	return nil
}

// ApplyDonation records an accepted donation and returns true when this
// donation crossed the goal, flipping the campaign to Funded.
// Call CanDonate first; Apply never fails.
func (p *Project) ApplyDonation(donor id.AccountID, amount int64, now time.Time) (funded bool) {
	if _, known := p.DonorTotals[donor]; !known {
		p.DonorOrder = append(p.DonorOrder, donor)
	}
	p.DonorTotals[donor] += amount
	p.Raised += amount
	p.UpdatedAt = now
	if p.Status == StatusActive && p.GoalReached() {
		p.Status = StatusFunded
		return true
	}
	return false
}

// CanRelease checks the preconditions for paying out escrowed funds.
func (p *Project) CanRelease(caller id.AccountID) error {
	if err := p.requireInitialized(); err != nil {
		return err
	}
	if caller != p.Admin {
		return dErrors.New(dErrors.CodeUnauthorized, "only the project admin may release funds")
	}
	if p.Status == StatusCompleted {
		return dErrors.New(dErrors.CodeAlreadyReleased, "funds were already released")
	}
	if p.Status == StatusCancelled {
		return dErrors.New(dErrors.CodeInvalidStatusTransition, "cancelled projects cannot release funds")
	}
	if !p.GoalReached() {
		return dErrors.New(dErrors.CodeGoalNotReached, "funding goal has not been reached")
	}
	return nil
}

// ApplyRelease marks the payout as done. Completed is terminal.
func (p *Project) ApplyRelease(now time.Time) {
	p.Status = StatusCompleted
	p.UpdatedAt = now
}

// FeeSplit computes the platform cut for the held total at the given fee
// fraction (basis points). The fee floors; the remainder goes to the admin,
// so fee + net always equals total.
func FeeSplit(total, feeBps int64) (fee, net int64) {
	fee = total * feeBps / feeDenominator
	return fee, total - fee
}

// CanUpdateStatus checks an explicit admin-driven status change.
//
// Rules: nothing leaves Completed; Funded cannot be set before the goal is
// met; Completed is reachable only through the release path; Active is never
// a target.
func (p *Project) CanUpdateStatus(caller id.AccountID, next ProjectStatus) error {
	if err := p.requireInitialized(); err != nil {
		return err
	}
	if caller != p.Admin {
		return dErrors.New(dErrors.CodeUnauthorized, "only the project admin may update status")
	}
	if !next.IsValid() {
		return dErrors.Newf(dErrors.CodeInvalidStatusTransition, "unknown status %q", next)
	}
	if p.Status == StatusCompleted {
		return dErrors.New(dErrors.CodeInvalidStatusTransition, "completed projects cannot change status")
	}
	if next == StatusCompleted {
		return dErrors.New(dErrors.CodeInvalidStatusTransition, "completed is only reachable via release")
	}
	if next == StatusFunded && !p.GoalReached() {
		return dErrors.New(dErrors.CodeInvalidStatusTransition, "cannot mark funded before the goal is met")
	}
	if !p.Status.CanTransitionTo(next) {
		return dErrors.Newf(dErrors.CodeInvalidStatusTransition, "cannot move from %s to %s", p.Status, next)
	}
	return nil
}

// ApplyStatus performs a validated explicit transition.
func (p *Project) ApplyStatus(next ProjectStatus, now time.Time) {
	p.Status = next
	p.UpdatedAt = now
}

// CanSubmitEvidence checks the preconditions for appending an evidence record.
// Evidence only requires prior initialization; any status accepts it.
func (p *Project) CanSubmitEvidence(caller id.AccountID, hash id.ContentHash) error {
	if err := p.requireInitialized(); err != nil {
		return err
	}
	if caller != p.Admin {
		return dErrors.New(dErrors.CodeUnauthorized, "only the project admin may submit evidence")
	}
	if hash.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "evidence hash is required")
	}
	return nil
}

// AppendEvidence adds an immutable evidence record.
func (p *Project) AppendEvidence(hash id.ContentHash, submitter id.AccountID, now time.Time) {
	p.Evidence = append(p.Evidence, EvidenceRecord{Hash: hash, SubmittedAt: now, Submitter: submitter})
	p.UpdatedAt = now
}

// CanRefundDonor checks the preconditions for refunding one donor.
// Refunds require a cancelled campaign and a recorded donation.
func (p *Project) CanRefundDonor(caller, donor id.AccountID) error {
	if err := p.requireInitialized(); err != nil {
		return err
	}
	if caller != p.Admin {
		return dErrors.New(dErrors.CodeUnauthorized, "only the project admin may refund donors")
	}
	if p.Status != StatusCancelled {
		return dErrors.Newf(dErrors.CodeInvalidStatusTransition, "refunds require cancelled, project is %s", p.Status)
	}
	if p.DonorTotals[donor] <= 0 {
		return dErrors.New(dErrors.CodeNoRecordedDonation, "donor has no recorded donation")
	}
	return nil
}

// ApplyRefund zeroes the donor's recorded total, subtracts it from the
// project total and returns the refunded amount. The donor stays in
// DonorOrder; only RefundAll clears the list.
func (p *Project) ApplyRefund(donor id.AccountID, now time.Time) int64 {
	amount := p.DonorTotals[donor]
	p.DonorTotals[donor] = 0
	p.Raised -= amount
	p.UpdatedAt = now
	return amount
}

// CanRefundAll checks the preconditions for the bulk refund sweep.
func (p *Project) CanRefundAll(caller id.AccountID) error {
	if err := p.requireInitialized(); err != nil {
		return err
	}
	if caller != p.Admin {
		return dErrors.New(dErrors.CodeUnauthorized, "only the project admin may refund donors")
	}
	if p.Status != StatusCancelled {
		return dErrors.Newf(dErrors.CodeInvalidStatusTransition, "refunds require cancelled, project is %s", p.Status)
	}
	return nil
}

// ApplyRefundAll zeroes every donor total, clears the donor list and the
// project total, and returns the per-donor amounts owed in first-donation
// order so the caller can move escrow.
func (p *Project) ApplyRefundAll(now time.Time) []Refund {
	refunds := make([]Refund, 0, len(p.DonorOrder))
	for _, donor := range p.DonorOrder {
		if amount := p.DonorTotals[donor]; amount > 0 {
			refunds = append(refunds, Refund{Donor: donor, Amount: amount})
		}
	}
	p.DonorTotals = make(map[id.AccountID]int64)
	p.DonorOrder = nil
	p.Raised = 0
	p.UpdatedAt = now
	return refunds
}

// Refund is one donor's owed native-asset portion during a refund sweep.
type Refund struct {
	Donor  id.AccountID
	Amount int64
}

// DonorTotal returns the recorded total for one donor (0 when unknown).
func (p *Project) DonorTotal(donor id.AccountID) int64 {
	return p.DonorTotals[donor]
}

// Donors returns a copy of the distinct-donor list in first-donation order.
func (p *Project) Donors() []id.AccountID {
	out := make([]id.AccountID, len(p.DonorOrder))
	copy(out, p.DonorOrder)
	return out
}

// Clone returns a deep copy so stores can hand out snapshots without
// exposing internal maps to mutation.
func (p *Project) Clone() *Project {
	cp := *p
	cp.DonorTotals = make(map[id.AccountID]int64, len(p.DonorTotals))
	for k, v := range p.DonorTotals {
		cp.DonorTotals[k] = v
	}
	cp.DonorOrder = append([]id.AccountID(nil), p.DonorOrder...)
	cp.Evidence = append([]EvidenceRecord(nil), p.Evidence...)
	return &cp
}
