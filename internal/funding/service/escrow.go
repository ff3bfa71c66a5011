package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"givepool/internal/assets"
	"givepool/internal/funding/metrics"
	"givepool/internal/funding/models"
	id "givepool/pkg/domain"
	dErrors "givepool/pkg/domain-errors"
	"givepool/pkg/platform/events"
	"givepool/pkg/requestcontext"
)

// donationRecorder is the registry surface the escrow engine reports to.
type donationRecorder interface {
	RecordDonation(ctx context.Context, projectID id.ProjectID, instanceKey string, donor id.AccountID, amount int64) error
	FeeBasisPoints() int64
	Treasury() id.AccountID
}

// Escrow moves money for individual campaigns: donations into per-project
// escrow, the fee-split release to treasury and admin, and refunds after
// cancellation.
//
// Every mutation runs through the arena's Execute so the per-instance
// reentrancy guard covers the external transfer call, and the aggregate
// commits only after the money moved. Registry reporting happens after
// commit and is best-effort: a failed report is logged, the donation stands.
type Escrow struct {
	arena      ProjectArena
	vault      Vault
	allowlist  AssetAllowlist
	registry   donationRecorder
	publisher  EventPublisher
	projection ProjectionUpdater

	providersMu sync.RWMutex
	providers   map[id.AssetID]assets.TransferProvider

	keysMu sync.RWMutex
	keys   map[id.ProjectID]string

	logger *slog.Logger
	tracer trace.Tracer
}

// EscrowOption configures optional escrow collaborators.
type EscrowOption func(*Escrow)

// WithEscrowLogger sets the escrow logger.
func WithEscrowLogger(logger *slog.Logger) EscrowOption {
	return func(e *Escrow) { e.logger = logger }
}

// WithProvider registers a transfer provider for a fungible asset.
func WithProvider(asset id.AssetID, provider assets.TransferProvider) EscrowOption {
	return func(e *Escrow) { e.providers[asset] = provider }
}

// WithEscrowProjection attaches the read-side catalog updater.
func WithEscrowProjection(p ProjectionUpdater) EscrowOption {
	return func(e *Escrow) { e.projection = p }
}

func NewEscrow(arena ProjectArena, vault Vault, allowlist AssetAllowlist, publisher EventPublisher, opts ...EscrowOption) *Escrow {
	e := &Escrow{
		arena:     arena,
		vault:     vault,
		allowlist: allowlist,
		publisher: publisher,
		providers: make(map[id.AssetID]assets.TransferProvider),
		keys:      make(map[id.ProjectID]string),
		logger:    slog.Default(),
		tracer:    otel.Tracer("givepool/funding/escrow"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// BindRegistry wires the registry the engine reports donations to.
func (e *Escrow) BindRegistry(registry donationRecorder) {
	e.registry = registry
}

// RegisterProvider adds or replaces the transfer provider for an asset.
func (e *Escrow) RegisterProvider(asset id.AssetID, provider assets.TransferProvider) {
	e.providersMu.Lock()
	defer e.providersMu.Unlock()
	e.providers[asset] = provider
}

// adoptInstanceKey stores the plaintext key the registry issued at creation.
func (e *Escrow) adoptInstanceKey(projectID id.ProjectID, key string) {
	e.keysMu.Lock()
	defer e.keysMu.Unlock()
	e.keys[projectID] = key
}

func (e *Escrow) instanceKey(projectID id.ProjectID) string {
	e.keysMu.RLock()
	defer e.keysMu.RUnlock()
	return e.keys[projectID]
}

// Donate accepts a native-asset donation: the amount moves from the donor's
// balance into the project's escrow, and the aggregate records it. Crossing
// the goal flips the campaign to Funded in the same atomic step.
func (e *Escrow) Donate(ctx context.Context, donor id.AccountID, projectID id.ProjectID, amount int64) (*models.Project, error) {
	ctx, span := e.tracer.Start(ctx, "escrow.Donate",
		trace.WithAttributes(attribute.Int64("project.id", int64(projectID))))
	defer span.End()
	start := time.Now()
	defer func() {
		metrics.DonateDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	now := requestcontext.Now(ctx)
	var funded bool
	project, err := e.arena.Execute(ctx, projectID, func(p *models.Project) error {
		if err := p.CanDonate(donor, amount); err != nil {
			return err
		}
		// The transfer runs inside the guard: a provider that calls back
		// into this project is rejected, and a failed transfer discards
		// the working copy.
		if err := e.vault.DebitToEscrow(ctx, donor, projectID, amount); err != nil {
			return err
		}
		funded = p.ApplyDonation(donor, amount, now)
		return nil
	})
	if err != nil {
		return nil, e.rejectDonation(err)
	}

	e.afterDonation(ctx, project, donor, amount, id.NativeAsset, funded)
	return project, nil
}

// DonateToken accepts a donation in an allowlisted fungible asset. The
// provider pulls the amount from the donor into the project's derived escrow
// account; only a nil provider error counts as a completed transfer.
//
// Token amounts count toward the goal alongside native donations.
func (e *Escrow) DonateToken(ctx context.Context, donor id.AccountID, projectID id.ProjectID, asset id.AssetID, amount int64) (*models.Project, error) {
	ctx, span := e.tracer.Start(ctx, "escrow.DonateToken",
		trace.WithAttributes(
			attribute.Int64("project.id", int64(projectID)),
			attribute.String("asset", asset.String()),
		))
	defer span.End()
	start := time.Now()
	defer func() {
		metrics.DonateDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	if asset.IsNative() {
		return nil, dErrors.New(dErrors.CodeValidation, "native donations use the donate operation")
	}
	allowed, err := e.allowlist.Allowed(ctx, asset)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not check asset allowlist")
	}
	if !allowed {
		return nil, dErrors.Newf(dErrors.CodeAssetNotAllowed, "asset %s is not allowed for donations", asset)
	}
	e.providersMu.RLock()
	provider, ok := e.providers[asset]
	e.providersMu.RUnlock()
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeAssetNotAllowed, "no transfer provider registered for asset %s", asset)
	}

	now := requestcontext.Now(ctx)
	escrowAccount := assets.EscrowAccount(projectID)
	var funded bool
	project, err := e.arena.Execute(ctx, projectID, func(p *models.Project) error {
		if err := p.CanDonate(donor, amount); err != nil {
			return err
		}
		if err := provider.TransferFrom(ctx, donor, escrowAccount, amount); err != nil {
			return dErrors.Wrap(err, dErrors.CodeTransferFailure, "token transfer failed")
		}
		funded = p.ApplyDonation(donor, amount, now)
		return nil
	})
	if err != nil {
		return nil, e.rejectDonation(err)
	}

	e.afterDonation(ctx, project, donor, amount, asset, funded)
	return project, nil
}

// HandleDirectTransfer books native funds that arrived at a project outside
// the donate operation. The amount is credited to escrow and recorded as an
// anonymous donation, subject to the same minimum and status rules.
func (e *Escrow) HandleDirectTransfer(ctx context.Context, projectID id.ProjectID, amount int64) (*models.Project, error) {
	ctx, span := e.tracer.Start(ctx, "escrow.HandleDirectTransfer",
		trace.WithAttributes(attribute.Int64("project.id", int64(projectID))))
	defer span.End()

	now := requestcontext.Now(ctx)
	var funded bool
	project, err := e.arena.Execute(ctx, projectID, func(p *models.Project) error {
		if err := p.CanDonate(id.AnonymousAccount, amount); err != nil {
			return err
		}
		if err := e.vault.CreditEscrow(ctx, projectID, amount); err != nil {
			return err
		}
		funded = p.ApplyDonation(id.AnonymousAccount, amount, now)
		return nil
	})
	if err != nil {
		return nil, e.rejectDonation(err)
	}

	e.afterDonation(ctx, project, id.AnonymousAccount, amount, id.NativeAsset, funded)
	return project, nil
}

// Release pays out a funded campaign: the platform fee cut goes to the
// treasury, the remainder to the project admin, and the campaign completes.
// Completion is terminal and reachable only here.
//
// The split covers the native escrow balance. Escrowed token funds stay at
// the project's derived escrow account; token payout is not implemented.
func (e *Escrow) Release(ctx context.Context, caller id.AccountID, projectID id.ProjectID) (*models.Project, error) {
	ctx, span := e.tracer.Start(ctx, "escrow.Release",
		trace.WithAttributes(attribute.Int64("project.id", int64(projectID))))
	defer span.End()

	feeBps := e.registry.FeeBasisPoints()
	treasury := e.registry.Treasury()
	if feeBps > 0 && treasury.IsNil() {
		return nil, dErrors.New(dErrors.CodeConflict, "platform treasury is not configured")
	}

	now := requestcontext.Now(ctx)
	project, err := e.arena.Execute(ctx, projectID, func(p *models.Project) error {
		if err := p.CanRelease(caller); err != nil {
			return err
		}
		held, err := e.vault.EscrowBalance(ctx, projectID)
		if err != nil {
			return err
		}
		fee, net := models.FeeSplit(held, feeBps)
		if fee > 0 {
			if err := e.vault.PayoutPairFromEscrow(ctx, projectID, treasury, fee, p.Admin, net); err != nil {
				return err
			}
		} else if net > 0 {
			if err := e.vault.PayoutFromEscrow(ctx, projectID, p.Admin, net); err != nil {
				return err
			}
		}
		p.ApplyRelease(now)
		return nil
	})
	if err != nil {
		return nil, translateSentinel(err)
	}

	metrics.ReleasesCompleted.Inc()
	e.refreshProjection(ctx, project)
	e.emit(ctx, events.Event{
		Type:      events.EventFundsReleased,
		ProjectID: projectID,
		Account:   project.Admin,
		Amount:    project.Raised,
		Status:    project.Status.String(),
	})
	e.logger.Info("funds released",
		"project_id", projectID,
		"admin", project.Admin,
		"fee_bps", feeBps,
	)
	return project, nil
}

// UpdateStatus performs an explicit admin-driven status change. Funded
// requires the goal; Completed is unreachable here; cancellation opens the
// refund path.
func (e *Escrow) UpdateStatus(ctx context.Context, caller id.AccountID, projectID id.ProjectID, next models.ProjectStatus) (*models.Project, error) {
	ctx, span := e.tracer.Start(ctx, "escrow.UpdateStatus",
		trace.WithAttributes(attribute.Int64("project.id", int64(projectID))))
	defer span.End()

	now := requestcontext.Now(ctx)
	project, err := e.arena.Execute(ctx, projectID, func(p *models.Project) error {
		if err := p.CanUpdateStatus(caller, next); err != nil {
			return err
		}
		p.ApplyStatus(next, now)
		return nil
	})
	if err != nil {
		return nil, translateSentinel(err)
	}

	e.refreshProjection(ctx, project)
	e.emit(ctx, events.Event{
		Type:      events.EventStatusChanged,
		ProjectID: projectID,
		Account:   caller,
		Status:    project.Status.String(),
	})
	e.logger.Info("project status updated", "project_id", projectID, "status", next)
	return project, nil
}

// SubmitEvidence appends a proof-of-completion artifact reference to the
// project's immutable evidence log.
func (e *Escrow) SubmitEvidence(ctx context.Context, caller id.AccountID, projectID id.ProjectID, hash id.ContentHash) (*models.Project, error) {
	ctx, span := e.tracer.Start(ctx, "escrow.SubmitEvidence",
		trace.WithAttributes(attribute.Int64("project.id", int64(projectID))))
	defer span.End()

	now := requestcontext.Now(ctx)
	project, err := e.arena.Execute(ctx, projectID, func(p *models.Project) error {
		if err := p.CanSubmitEvidence(caller, hash); err != nil {
			return err
		}
		p.AppendEvidence(hash, caller, now)
		return nil
	})
	if err != nil {
		return nil, translateSentinel(err)
	}

	e.emit(ctx, events.Event{
		Type:      events.EventEvidenceSubmitted,
		ProjectID: projectID,
		Account:   caller,
		Ref:       hash,
	})
	return project, nil
}

// RefundDonor returns one donor's recorded native amount after cancellation.
// The payout and the record update commit together or not at all.
//
// Refunds cover native amounts only; a donor whose recorded total includes
// token donations may exceed the native escrow, failing the payout.
func (e *Escrow) RefundDonor(ctx context.Context, caller id.AccountID, projectID id.ProjectID, donor id.AccountID) (int64, error) {
	ctx, span := e.tracer.Start(ctx, "escrow.RefundDonor",
		trace.WithAttributes(attribute.Int64("project.id", int64(projectID))))
	defer span.End()

	now := requestcontext.Now(ctx)
	var refunded int64
	project, err := e.arena.Execute(ctx, projectID, func(p *models.Project) error {
		if err := p.CanRefundDonor(caller, donor); err != nil {
			return err
		}
		amount := p.DonorTotal(donor)
		if err := e.vault.PayoutFromEscrow(ctx, projectID, donor, amount); err != nil {
			return err
		}
		refunded = p.ApplyRefund(donor, now)
		return nil
	})
	if err != nil {
		return 0, translateSentinel(err)
	}

	metrics.RefundsIssued.Inc()
	e.refreshProjection(ctx, project)
	e.emit(ctx, events.Event{
		Type:      events.EventDonorRefunded,
		ProjectID: projectID,
		Account:   donor,
		Amount:    refunded,
		Asset:     id.NativeAsset,
	})
	e.logger.Info("donor refunded", "project_id", projectID, "donor", donor, "amount", refunded)
	return refunded, nil
}

// RefundAll sweeps every recorded donor after cancellation, paying each their
// native amount in first-donation order. The batch payout is atomic: a
// failure pays nobody and leaves the records intact.
func (e *Escrow) RefundAll(ctx context.Context, caller id.AccountID, projectID id.ProjectID) ([]models.Refund, error) {
	ctx, span := e.tracer.Start(ctx, "escrow.RefundAll",
		trace.WithAttributes(attribute.Int64("project.id", int64(projectID))))
	defer span.End()

	now := requestcontext.Now(ctx)
	var refunds []models.Refund
	project, err := e.arena.Execute(ctx, projectID, func(p *models.Project) error {
		if err := p.CanRefundAll(caller); err != nil {
			return err
		}
		owed := p.ApplyRefundAll(now)
		payouts := make([]assets.Payout, len(owed))
		for i, refund := range owed {
			payouts[i] = assets.Payout{To: refund.Donor, Amount: refund.Amount}
		}
		if err := e.vault.PayoutBatchFromEscrow(ctx, projectID, payouts); err != nil {
			return err
		}
		refunds = owed
		return nil
	})
	if err != nil {
		return nil, translateSentinel(err)
	}

	e.refreshProjection(ctx, project)
	for _, refund := range refunds {
		metrics.RefundsIssued.Inc()
		e.emit(ctx, events.Event{
			Type:      events.EventDonorRefunded,
			ProjectID: projectID,
			Account:   refund.Donor,
			Amount:    refund.Amount,
			Asset:     id.NativeAsset,
		})
	}
	e.logger.Info("refund sweep completed", "project_id", projectID, "donors", len(refunds))
	return refunds, nil
}

// Project returns a snapshot of the aggregate.
func (e *Escrow) Project(ctx context.Context, projectID id.ProjectID) (*models.Project, error) {
	project, err := e.arena.Find(ctx, projectID)
	if err != nil {
		return nil, translateSentinel(err)
	}
	return project, nil
}

// Donors returns the distinct donors of a project in first-donation order.
func (e *Escrow) Donors(ctx context.Context, projectID id.ProjectID) ([]id.AccountID, error) {
	project, err := e.arena.Find(ctx, projectID)
	if err != nil {
		return nil, translateSentinel(err)
	}
	return project.Donors(), nil
}

// DonorTotal returns one donor's recorded total for a project.
func (e *Escrow) DonorTotal(ctx context.Context, projectID id.ProjectID, donor id.AccountID) (int64, error) {
	project, err := e.arena.Find(ctx, projectID)
	if err != nil {
		return 0, translateSentinel(err)
	}
	return project.DonorTotal(donor), nil
}

// Evidence returns the project's evidence log.
func (e *Escrow) Evidence(ctx context.Context, projectID id.ProjectID) ([]models.EvidenceRecord, error) {
	project, err := e.arena.Find(ctx, projectID)
	if err != nil {
		return nil, translateSentinel(err)
	}
	return project.Evidence, nil
}

// EscrowBalance returns the native funds held for a project.
func (e *Escrow) EscrowBalance(ctx context.Context, projectID id.ProjectID) (int64, error) {
	held, err := e.vault.EscrowBalance(ctx, projectID)
	if err != nil {
		return 0, translateSentinel(err)
	}
	return held, nil
}

// rejectDonation classifies a failed donation for metrics before returning
// the translated error.
func (e *Escrow) rejectDonation(err error) error {
	translated := translateSentinel(err)
	if dErrors.HasCode(translated, dErrors.CodeConflict) {
		metrics.ReentrantCallsRejected.Inc()
	}
	metrics.DonationsRejected.WithLabelValues(string(dErrors.GetCode(translated))).Inc()
	return translated
}

// afterDonation handles everything that follows an accepted donation:
// metrics, registry reporting, projection refresh and events. All of it is
// best-effort; the donation has already committed.
func (e *Escrow) afterDonation(ctx context.Context, project *models.Project, donor id.AccountID, amount int64, asset id.AssetID, funded bool) {
	metrics.DonationsAccepted.WithLabelValues(asset.String()).Inc()
	metrics.DonationVolume.WithLabelValues(asset.String()).Add(float64(amount))
	e.refreshProjection(ctx, project)

	if e.registry != nil {
		key := e.instanceKey(project.ID)
		if err := e.registry.RecordDonation(ctx, project.ID, key, donor, amount); err != nil {
			e.logger.Warn("registry donation report failed",
				"project_id", project.ID,
				"donor", donor,
				"error", err,
			)
		}
	}

	e.emit(ctx, events.Event{
		Type:      events.EventDonationAccepted,
		ProjectID: project.ID,
		Account:   donor,
		Amount:    amount,
		Asset:     asset,
		Status:    project.Status.String(),
	})
	if funded {
		e.emit(ctx, events.Event{
			Type:      events.EventProjectFunded,
			ProjectID: project.ID,
			Amount:    project.Raised,
			Status:    project.Status.String(),
		})
		e.logger.Info("project reached its goal", "project_id", project.ID, "raised", project.Raised)
	}
}

func (e *Escrow) refreshProjection(ctx context.Context, project *models.Project) {
	if e.projection == nil {
		return
	}
	if err := e.projection.ProjectUpdated(ctx, project); err != nil {
		e.logger.Warn("projection update failed", "project_id", project.ID, "error", err)
	}
}

func (e *Escrow) emit(ctx context.Context, event events.Event) {
	if e.publisher == nil {
		return
	}
	event.RequestID = requestcontext.RequestID(ctx)
	if err := e.publisher.Emit(ctx, event); err != nil {
		e.logger.Warn("event emission failed", "type", event.Type, "error", err)
	}
}
