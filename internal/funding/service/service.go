// Package service orchestrates the funding platform: the Registry owns the
// project catalog, the global donation ledger, platform settings and roles;
// the Escrow engine moves money for individual campaigns.
//
// Services translate store sentinels into coded domain errors and keep every
// side channel (events, projections, badges, the registry's global ledger)
// best-effort: an accepted donation stands even when reporting it fails.
package service

import (
	"context"
	"errors"

	"givepool/internal/assets"
	"givepool/internal/funding/models"
	id "givepool/pkg/domain"
	dErrors "givepool/pkg/domain-errors"
	"givepool/pkg/platform/events"
	"givepool/pkg/platform/sentinel"
)

// ProjectArena is the keyed collection of project instances. Execute runs a
// validate-then-mutate function under the instance's reentrancy guard and
// commits only on success.
type ProjectArena interface {
	NextID(ctx context.Context) (id.ProjectID, error)
	Create(ctx context.Context, project *models.Project, keyHash string) error
	Find(ctx context.Context, projectID id.ProjectID) (*models.Project, error)
	KeyHash(ctx context.Context, projectID id.ProjectID) (string, error)
	Count(ctx context.Context) (int, error)
	Execute(ctx context.Context, projectID id.ProjectID, fn func(p *models.Project) error) (*models.Project, error)
}

// GlobalLedger accumulates cross-project donation totals. Totals only grow;
// refunds never reach this store.
type GlobalLedger interface {
	Record(ctx context.Context, donor id.AccountID, amount int64) error
	DonorTotal(ctx context.Context, donor id.AccountID) (int64, error)
	Snapshot(ctx context.Context) ([]id.AccountID, map[id.AccountID]int64, error)
	Stats(ctx context.Context) (models.GlobalStats, error)
}

// RoleStore persists registry role membership.
type RoleStore interface {
	Grant(ctx context.Context, account id.AccountID, role models.Role) error
	Revoke(ctx context.Context, account id.AccountID, role models.Role) error
	RolesOf(ctx context.Context, account id.AccountID) ([]models.Role, error)
}

// AssetAllowlist persists the set of donation-approved fungible assets.
type AssetAllowlist interface {
	Add(ctx context.Context, asset id.AssetID) error
	Remove(ctx context.Context, asset id.AssetID) error
	Allowed(ctx context.Context, asset id.AssetID) (bool, error)
	SetAllowAll(ctx context.Context, allow bool) error
	AllowAll(ctx context.Context) (bool, error)
	List(ctx context.Context) ([]id.AssetID, error)
}

// Vault keeps the native-asset books: donor balances and per-project escrow.
type Vault interface {
	DebitToEscrow(ctx context.Context, donor id.AccountID, projectID id.ProjectID, amount int64) error
	CreditEscrow(ctx context.Context, projectID id.ProjectID, amount int64) error
	PayoutFromEscrow(ctx context.Context, projectID id.ProjectID, to id.AccountID, amount int64) error
	PayoutPairFromEscrow(ctx context.Context, projectID id.ProjectID, toA id.AccountID, amountA int64, toB id.AccountID, amountB int64) error
	PayoutBatchFromEscrow(ctx context.Context, projectID id.ProjectID, payouts []assets.Payout) error
	EscrowBalance(ctx context.Context, projectID id.ProjectID) (int64, error)
}

// EventPublisher dispatches funding events. Emission is best-effort.
type EventPublisher interface {
	Emit(ctx context.Context, event events.Event) error
}

// ProjectionUpdater maintains the read-side project catalog. Updates are
// best-effort; a stale catalog never blocks money movement.
type ProjectionUpdater interface {
	ProjectCreated(ctx context.Context, project *models.Project) error
	ProjectUpdated(ctx context.Context, project *models.Project) error
}

// BadgeAwarder evaluates donor milestones after ledger updates. The project
// is the one whose donation report triggered evaluation, zero for the
// operator trigger; the metadata reference is prepared off-platform.
type BadgeAwarder interface {
	Evaluate(ctx context.Context, donor id.AccountID, project id.ProjectID, cumulativeTotal int64, metadataRef id.ContentHash)
}

// translateSentinel maps store sentinels onto coded domain errors. Unmatched
// errors pass through unchanged so already-coded errors survive.
func translateSentinel(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeUnknownProject, "project does not exist")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.Wrap(err, dErrors.CodeConflict, "project id is already registered")
	case errors.Is(err, sentinel.ErrBusy):
		return dErrors.Wrap(err, dErrors.CodeConflict, "project is processing another call")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(err, dErrors.CodeInvalidStatusTransition, "operation not valid in current state")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeInternal, "storage unavailable")
	default:
		return err
	}
}
