package service

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"givepool/internal/funding/leaderboard"
	"givepool/internal/funding/metrics"
	"givepool/internal/funding/models"
	"givepool/internal/funding/secrets"
	id "givepool/pkg/domain"
	dErrors "givepool/pkg/domain-errors"
	"givepool/pkg/platform/events"
	"givepool/pkg/requestcontext"
)

// instanceKeeper receives the plaintext instance key for a freshly created
// project. The Escrow engine implements it; the key authenticates the
// engine's donation reports back to the registry.
type instanceKeeper interface {
	adoptInstanceKey(projectID id.ProjectID, key string)
}

// Registry owns the project catalog, the global donation ledger, platform
// settings (fee, treasury, pause) and role membership.
//
// Settings live in memory behind the settings lock; they are operator
// configuration, re-applied at startup, not durable state.
type Registry struct {
	arena      ProjectArena
	ledger     GlobalLedger
	roles      RoleStore
	allowlist  AssetAllowlist
	authorizer *Authorizer
	publisher  EventPublisher
	cache      *leaderboard.Cache
	projection ProjectionUpdater
	badges     BadgeAwarder
	keeper     instanceKeeper

	logger *slog.Logger
	tracer trace.Tracer

	settingsMu sync.RWMutex
	feeBps     int64
	treasury   id.AccountID
	paused     bool
}

// RegistryOption configures optional registry collaborators.
type RegistryOption func(*Registry)

// WithLeaderboardCache attaches the Redis-backed ranking cache.
func WithLeaderboardCache(cache *leaderboard.Cache) RegistryOption {
	return func(r *Registry) { r.cache = cache }
}

// WithProjection attaches the read-side catalog updater.
func WithProjection(p ProjectionUpdater) RegistryOption {
	return func(r *Registry) { r.projection = p }
}

// WithBadges attaches the donor milestone awarder.
func WithBadges(b BadgeAwarder) RegistryOption {
	return func(r *Registry) { r.badges = b }
}

// WithRegistryLogger sets the registry logger.
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) { r.logger = logger }
}

func NewRegistry(arena ProjectArena, ledger GlobalLedger, roles RoleStore, allowlist AssetAllowlist, publisher EventPublisher, opts ...RegistryOption) *Registry {
	r := &Registry{
		arena:      arena,
		ledger:     ledger,
		roles:      roles,
		allowlist:  allowlist,
		authorizer: NewAuthorizer(roles),
		publisher:  publisher,
		logger:     slog.Default(),
		tracer:     otel.Tracer("givepool/funding/registry"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// BindEscrow wires the escrow engine that receives instance keys. Must be
// called before the first CreateProject.
func (r *Registry) BindEscrow(keeper instanceKeeper) {
	r.keeper = keeper
}

// CreateProject allocates the next sequential project id, initializes the
// aggregate and registers it. The issued instance key goes to the escrow
// engine; only its hash is stored.
//
// Pause blocks creation and nothing else.
func (r *Registry) CreateProject(ctx context.Context, caller, admin id.AccountID, goal int64, metadataRef id.ContentHash) (*models.Project, error) {
	ctx, span := r.tracer.Start(ctx, "registry.CreateProject")
	defer span.End()

	if err := r.authorizer.Require(ctx, caller, models.PermCreateProject); err != nil {
		return nil, err
	}
	if r.Paused() {
		return nil, dErrors.New(dErrors.CodeConflict, "project creation is paused")
	}
	if admin.IsNil() {
		admin = caller
	}
	if err := models.ValidateProjectArgs(admin, goal); err != nil {
		return nil, err
	}

	key, err := secrets.Generate()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not issue instance key")
	}
	keyHash, err := secrets.Hash(key)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not hash instance key")
	}

	// Validation is done; only now consume an id so failed attempts leave
	// no gaps.
	projectID, err := r.arena.NextID(ctx)
	if err != nil {
		return nil, translateSentinel(err)
	}
	span.SetAttributes(attribute.Int64("project.id", int64(projectID)))

	project, err := models.NewProject(projectID, admin, goal, metadataRef, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := r.arena.Create(ctx, project, keyHash); err != nil {
		return nil, translateSentinel(err)
	}
	if r.keeper != nil {
		r.keeper.adoptInstanceKey(projectID, key)
	}

	metrics.ProjectsCreated.Inc()
	r.notifyProjectionCreated(ctx, project)
	r.emit(ctx, events.Event{
		Type:      events.EventProjectCreated,
		ProjectID: projectID,
		Account:   admin,
		Amount:    goal,
		Ref:       metadataRef,
	})
	r.logger.Info("project created",
		"project_id", projectID,
		"admin", admin,
		"goal", goal,
	)
	return project, nil
}

// RecordDonation is the registry-side report of an accepted donation. The
// caller authenticates as the project's escrow engine by presenting the
// instance key issued at creation.
//
// The report feeds the global ledger, the leaderboard and badge evaluation.
// The ledger only accumulates: refunds are a project-local concern and never
// decrement these totals.
func (r *Registry) RecordDonation(ctx context.Context, projectID id.ProjectID, instanceKey string, donor id.AccountID, amount int64) error {
	ctx, span := r.tracer.Start(ctx, "registry.RecordDonation")
	defer span.End()

	if donor.IsNil() {
		return dErrors.New(dErrors.CodeInvalidIdentity, "donor identity is required")
	}
	if amount <= 0 {
		return dErrors.New(dErrors.CodeInvalidAmount, "donation amount must be positive")
	}
	keyHash, err := r.arena.KeyHash(ctx, projectID)
	if err != nil {
		return translateSentinel(err)
	}
	if err := secrets.Verify(instanceKey, keyHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			return dErrors.New(dErrors.CodeUnauthorized, "caller is not the project's escrow engine")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not verify instance key")
	}

	if err := r.ledger.Record(ctx, donor, amount); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not record donation in global ledger")
	}
	r.cache.Invalidate(ctx)

	if r.badges != nil {
		total, err := r.ledger.DonorTotal(ctx, donor)
		if err != nil {
			r.logger.Warn("badge evaluation skipped, donor total unavailable", "donor", donor, "error", err)
		} else {
			r.badges.Evaluate(ctx, donor, projectID, total, id.ContentHash(""))
		}
	}
	return nil
}

// Leaderboard returns the [start, end) window of the global donor ranking:
// descending by cumulative total, ties in first-global-donation order. The
// full ranking is cached briefly; cache trouble degrades to recomputation.
func (r *Registry) Leaderboard(ctx context.Context, start, end int) ([]leaderboard.Entry, error) {
	ctx, span := r.tracer.Start(ctx, "registry.Leaderboard")
	defer span.End()

	if ranked, ok := r.cache.Get(ctx); ok {
		metrics.LeaderboardCacheHits.WithLabelValues("hit").Inc()
		return leaderboard.Slice(ranked, start, end), nil
	}
	metrics.LeaderboardCacheHits.WithLabelValues("miss").Inc()

	order, totals, err := r.ledger.Snapshot(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not load donor snapshot")
	}
	ranked := leaderboard.Rank(order, totals)
	r.cache.Set(ctx, ranked)
	return leaderboard.Slice(ranked, start, end), nil
}

// DonorTotal returns a donor's cumulative cross-project donation amount.
func (r *Registry) DonorTotal(ctx context.Context, donor id.AccountID) (int64, error) {
	if donor.IsNil() {
		return 0, dErrors.New(dErrors.CodeInvalidIdentity, "donor identity is required")
	}
	total, err := r.ledger.DonorTotal(ctx, donor)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "could not load donor total")
	}
	return total, nil
}

// Stats returns the platform-wide counters.
func (r *Registry) Stats(ctx context.Context) (models.GlobalStats, error) {
	stats, err := r.ledger.Stats(ctx)
	if err != nil {
		return models.GlobalStats{}, dErrors.Wrap(err, dErrors.CodeInternal, "could not load platform stats")
	}
	count, err := r.arena.Count(ctx)
	if err != nil {
		return models.GlobalStats{}, translateSentinel(err)
	}
	stats.ProjectCount = int64(count)
	return stats, nil
}

// AllowAsset approves a fungible asset for donations.
func (r *Registry) AllowAsset(ctx context.Context, caller id.AccountID, asset id.AssetID) error {
	if err := r.authorizer.Require(ctx, caller, models.PermManageAllowlist); err != nil {
		return err
	}
	if asset.IsNative() {
		return dErrors.New(dErrors.CodeValidation, "the native asset is always allowed")
	}
	if err := r.allowlist.Add(ctx, asset); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not update allowlist")
	}
	r.logger.Info("asset allowed", "asset", asset, "by", caller)
	return nil
}

// DisallowAsset withdraws approval for an asset. Existing escrowed funds in
// the asset are unaffected; only new donations are blocked.
func (r *Registry) DisallowAsset(ctx context.Context, caller id.AccountID, asset id.AssetID) error {
	if err := r.authorizer.Require(ctx, caller, models.PermManageAllowlist); err != nil {
		return err
	}
	if asset.IsNative() {
		return dErrors.New(dErrors.CodeValidation, "the native asset cannot be disallowed")
	}
	if err := r.allowlist.Remove(ctx, asset); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not update allowlist")
	}
	r.logger.Info("asset disallowed", "asset", asset, "by", caller)
	return nil
}

// SetAllowAll toggles the global asset override. While on, every asset with
// a registered provider is accepted regardless of the allowlist.
func (r *Registry) SetAllowAll(ctx context.Context, caller id.AccountID, allow bool) error {
	if err := r.authorizer.Require(ctx, caller, models.PermManageAllowlist); err != nil {
		return err
	}
	if err := r.allowlist.SetAllowAll(ctx, allow); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not update allowlist")
	}
	r.logger.Info("allow-all override set", "allow", allow, "by", caller)
	return nil
}

// AllowedAssets lists the explicitly approved assets plus the override state.
func (r *Registry) AllowedAssets(ctx context.Context) ([]id.AssetID, bool, error) {
	assets, err := r.allowlist.List(ctx)
	if err != nil {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "could not list allowlist")
	}
	allowAll, err := r.allowlist.AllowAll(ctx)
	if err != nil {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "could not read allowlist override")
	}
	return assets, allowAll, nil
}

// SetFee updates the platform fee fraction in basis points. The ceiling is
// half: anything above MaxFeeBasisPoints is rejected.
func (r *Registry) SetFee(ctx context.Context, caller id.AccountID, feeBps int64) error {
	if err := r.authorizer.Require(ctx, caller, models.PermSetFee); err != nil {
		return err
	}
	if feeBps < 0 {
		return dErrors.New(dErrors.CodeInvalidAmount, "fee cannot be negative")
	}
	if feeBps > models.MaxFeeBasisPoints {
		return dErrors.Newf(dErrors.CodeFeeExceedsCeiling, "fee %d exceeds ceiling of %d basis points", feeBps, models.MaxFeeBasisPoints)
	}
	r.settingsMu.Lock()
	r.feeBps = feeBps
	r.settingsMu.Unlock()
	r.logger.Info("platform fee updated", "fee_bps", feeBps, "by", caller)
	return nil
}

// FeeBasisPoints returns the current platform fee fraction.
func (r *Registry) FeeBasisPoints() int64 {
	r.settingsMu.RLock()
	defer r.settingsMu.RUnlock()
	return r.feeBps
}

// SetTreasury updates the account that receives the platform fee cut.
func (r *Registry) SetTreasury(ctx context.Context, caller, treasury id.AccountID) error {
	if err := r.authorizer.Require(ctx, caller, models.PermSetTreasury); err != nil {
		return err
	}
	if treasury.IsNil() {
		return dErrors.New(dErrors.CodeInvalidIdentity, "treasury cannot be the zero identity")
	}
	r.settingsMu.Lock()
	r.treasury = treasury
	r.settingsMu.Unlock()
	r.logger.Info("treasury updated", "treasury", treasury, "by", caller)
	return nil
}

// Treasury returns the configured fee recipient (zero when unset).
func (r *Registry) Treasury() id.AccountID {
	r.settingsMu.RLock()
	defer r.settingsMu.RUnlock()
	return r.treasury
}

// Pause blocks new project creation. Donations, releases and refunds on
// existing projects continue.
func (r *Registry) Pause(ctx context.Context, caller id.AccountID) error {
	if err := r.authorizer.Require(ctx, caller, models.PermPause); err != nil {
		return err
	}
	r.settingsMu.Lock()
	r.paused = true
	r.settingsMu.Unlock()
	r.logger.Info("project creation paused", "by", caller)
	return nil
}

// Unpause re-enables project creation.
func (r *Registry) Unpause(ctx context.Context, caller id.AccountID) error {
	if err := r.authorizer.Require(ctx, caller, models.PermPause); err != nil {
		return err
	}
	r.settingsMu.Lock()
	r.paused = false
	r.settingsMu.Unlock()
	r.logger.Info("project creation unpaused", "by", caller)
	return nil
}

// Paused reports whether project creation is blocked.
func (r *Registry) Paused() bool {
	r.settingsMu.RLock()
	defer r.settingsMu.RUnlock()
	return r.paused
}

// GrantRole adds a role to an account.
func (r *Registry) GrantRole(ctx context.Context, caller, account id.AccountID, role models.Role) error {
	if err := r.authorizer.Require(ctx, caller, models.PermManageRoles); err != nil {
		return err
	}
	if account.IsNil() {
		return dErrors.New(dErrors.CodeInvalidIdentity, "account identity is required")
	}
	if err := r.roles.Grant(ctx, account, role); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not grant role")
	}
	r.logger.Info("role granted", "account", account, "role", role, "by", caller)
	return nil
}

// RevokeRole removes a role from an account.
func (r *Registry) RevokeRole(ctx context.Context, caller, account id.AccountID, role models.Role) error {
	if err := r.authorizer.Require(ctx, caller, models.PermManageRoles); err != nil {
		return err
	}
	if account.IsNil() {
		return dErrors.New(dErrors.CodeInvalidIdentity, "account identity is required")
	}
	if err := r.roles.Revoke(ctx, account, role); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not revoke role")
	}
	r.logger.Info("role revoked", "account", account, "role", role, "by", caller)
	return nil
}

// RolesOf lists the roles an account holds.
func (r *Registry) RolesOf(ctx context.Context, account id.AccountID) ([]models.Role, error) {
	if account.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidIdentity, "account identity is required")
	}
	held, err := r.roles.RolesOf(ctx, account)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not load roles")
	}
	return held, nil
}

// Bootstrap grants the platform admin role to the configured operator
// account. Called once at startup; granting is idempotent.
func (r *Registry) Bootstrap(ctx context.Context, operator id.AccountID) error {
	if operator.IsNil() {
		return dErrors.New(dErrors.CodeInvalidIdentity, "operator identity is required")
	}
	if err := r.roles.Grant(ctx, operator, models.RolePlatformAdmin); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not bootstrap operator role")
	}
	r.logger.Info("operator bootstrapped", "account", operator)
	return nil
}

func (r *Registry) emit(ctx context.Context, event events.Event) {
	if r.publisher == nil {
		return
	}
	event.RequestID = requestcontext.RequestID(ctx)
	if err := r.publisher.Emit(ctx, event); err != nil {
		r.logger.Warn("event emission failed", "type", event.Type, "error", err)
	}
}

func (r *Registry) notifyProjectionCreated(ctx context.Context, project *models.Project) {
	if r.projection == nil {
		return
	}
	if err := r.projection.ProjectCreated(ctx, project); err != nil {
		r.logger.Warn("projection update failed", "project_id", project.ID, "error", err)
	}
}
