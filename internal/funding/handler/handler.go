// Package handler exposes the funding platform over HTTP. Handlers decode
// and validate, delegate to the registry and escrow services, and map domain
// errors onto statuses via httputil. No business rules live here.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"givepool/internal/badges"
	"givepool/internal/funding/leaderboard"
	"givepool/internal/funding/models"
	"givepool/internal/projection"
	id "givepool/pkg/domain"
	dErrors "givepool/pkg/domain-errors"
	"givepool/pkg/platform/httputil"
	"givepool/pkg/requestcontext"
)

// RegistryService is the registry surface the handler needs.
type RegistryService interface {
	CreateProject(ctx context.Context, caller, admin id.AccountID, goal int64, metadataRef id.ContentHash) (*models.Project, error)
	Leaderboard(ctx context.Context, start, end int) ([]leaderboard.Entry, error)
	DonorTotal(ctx context.Context, donor id.AccountID) (int64, error)
	Stats(ctx context.Context) (models.GlobalStats, error)
	AllowAsset(ctx context.Context, caller id.AccountID, asset id.AssetID) error
	DisallowAsset(ctx context.Context, caller id.AccountID, asset id.AssetID) error
	SetAllowAll(ctx context.Context, caller id.AccountID, allow bool) error
	AllowedAssets(ctx context.Context) ([]id.AssetID, bool, error)
	SetFee(ctx context.Context, caller id.AccountID, feeBps int64) error
	FeeBasisPoints() int64
	SetTreasury(ctx context.Context, caller, treasury id.AccountID) error
	Treasury() id.AccountID
	Pause(ctx context.Context, caller id.AccountID) error
	Unpause(ctx context.Context, caller id.AccountID) error
	Paused() bool
	GrantRole(ctx context.Context, caller, account id.AccountID, role models.Role) error
	RevokeRole(ctx context.Context, caller, account id.AccountID, role models.Role) error
	RolesOf(ctx context.Context, account id.AccountID) ([]models.Role, error)
}

// EscrowService is the per-project money-movement surface.
type EscrowService interface {
	Donate(ctx context.Context, donor id.AccountID, projectID id.ProjectID, amount int64) (*models.Project, error)
	DonateToken(ctx context.Context, donor id.AccountID, projectID id.ProjectID, asset id.AssetID, amount int64) (*models.Project, error)
	HandleDirectTransfer(ctx context.Context, projectID id.ProjectID, amount int64) (*models.Project, error)
	Release(ctx context.Context, caller id.AccountID, projectID id.ProjectID) (*models.Project, error)
	UpdateStatus(ctx context.Context, caller id.AccountID, projectID id.ProjectID, next models.ProjectStatus) (*models.Project, error)
	SubmitEvidence(ctx context.Context, caller id.AccountID, projectID id.ProjectID, hash id.ContentHash) (*models.Project, error)
	RefundDonor(ctx context.Context, caller id.AccountID, projectID id.ProjectID, donor id.AccountID) (int64, error)
	RefundAll(ctx context.Context, caller id.AccountID, projectID id.ProjectID) ([]models.Refund, error)
	Project(ctx context.Context, projectID id.ProjectID) (*models.Project, error)
	Donors(ctx context.Context, projectID id.ProjectID) ([]id.AccountID, error)
	DonorTotal(ctx context.Context, projectID id.ProjectID, donor id.AccountID) (int64, error)
	Evidence(ctx context.Context, projectID id.ProjectID) ([]models.EvidenceRecord, error)
}

// Handler wires funding endpoints to the services.
type Handler struct {
	registry RegistryService
	escrow   EscrowService
	catalog  *projection.Catalog
	badges   *badges.Service
	logger   *slog.Logger
}

func New(registry RegistryService, escrow EscrowService, catalog *projection.Catalog, badgeSvc *badges.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		registry: registry,
		escrow:   escrow,
		catalog:  catalog,
		badges:   badgeSvc,
		logger:   logger,
	}
}

// Register mounts the funding endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/projects", func(r chi.Router) {
		r.Post("/", h.HandleCreateProject)
		r.Get("/", h.HandleListProjects)
		r.Route("/{projectID}", func(r chi.Router) {
			r.Get("/", h.HandleGetProject)
			r.Post("/donations", h.HandleDonate)
			r.Post("/direct-transfers", h.HandleDirectTransfer)
			r.Post("/release", h.HandleRelease)
			r.Post("/status", h.HandleUpdateStatus)
			r.Post("/evidence", h.HandleSubmitEvidence)
			r.Get("/evidence", h.HandleListEvidence)
			r.Get("/donors", h.HandleListDonors)
			r.Get("/donors/{accountID}", h.HandleProjectDonorTotal)
			r.Post("/refunds", h.HandleRefund)
		})
	})

	r.Get("/leaderboard", h.HandleLeaderboard)
	r.Get("/stats", h.HandleStats)
	r.Get("/donors/{accountID}/total", h.HandleDonorTotal)
	r.Get("/donors/{accountID}/badges", h.HandleDonorBadges)
	r.Post("/donors/{accountID}/badges", h.HandleEvaluateBadges)

	r.Route("/admin", func(r chi.Router) {
		r.Put("/fee", h.HandleSetFee)
		r.Put("/treasury", h.HandleSetTreasury)
		r.Post("/pause", h.HandlePause)
		r.Post("/unpause", h.HandleUnpause)
		r.Get("/allowlist", h.HandleGetAllowlist)
		r.Post("/allowlist", h.HandleAllowAsset)
		r.Delete("/allowlist/{asset}", h.HandleDisallowAsset)
		r.Put("/allowlist/allow-all", h.HandleSetAllowAll)
		r.Post("/roles", h.HandleGrantRole)
		r.Delete("/roles", h.HandleRevokeRole)
	})
}

// caller extracts the authenticated account, writing a 403 when absent.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (id.AccountID, bool) {
	account := requestcontext.AccountID(r.Context())
	if account.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.AccountID{}, false
	}
	return account, true
}

// projectID parses the {projectID} URL parameter.
func (h *Handler) projectID(w http.ResponseWriter, r *http.Request) (id.ProjectID, bool) {
	projectID, err := id.ParseProjectID(chi.URLParam(r, "projectID"))
	if err != nil {
		httputil.WriteError(w, err)
		return 0, false
	}
	return projectID, true
}

// accountParam parses the {accountID} URL parameter.
func (h *Handler) accountParam(w http.ResponseWriter, r *http.Request) (id.AccountID, bool) {
	account, err := id.ParseAccountID(chi.URLParam(r, "accountID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.AccountID{}, false
	}
	return account, true
}

// HandleCreateProject handles POST /projects.
func (h *Handler) HandleCreateProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CreateProjectRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	project, err := h.registry.CreateProject(ctx, caller, req.ParsedAdmin(), req.Goal, req.ParsedMetadataRef())
	if err != nil {
		h.logger.WarnContext(ctx, "project creation failed", "request_id", requestID, "caller", caller, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromProject(project))
}

// HandleListProjects handles GET /projects from the read-side catalog.
func (h *Handler) HandleListProjects(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	var filter projection.Filter
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status, err := models.ParseProjectStatus(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.Status = status
	}
	if raw := strings.TrimSpace(query.Get("admin")); raw != "" {
		admin, err := id.ParseAccountID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.Admin = admin
	}

	filter.MinGoal = int64(intQuery(query.Get("min_goal"), 0))

	page := projection.Page{
		Offset: intQuery(query.Get("offset"), 0),
		Limit:  intQuery(query.Get("limit"), 50),
	}
	listed, err := h.catalog.List(ctx, filter, page)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listed)
}

// HandleGetProject handles GET /projects/{projectID}.
func (h *Handler) HandleGetProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}
	project, err := h.escrow.Project(r.Context(), projectID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProject(project))
}

// HandleDonate handles POST /projects/{projectID}/donations. The asset field
// selects between the native path and a token provider.
func (h *Handler) HandleDonate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	donor, ok := h.caller(w, r)
	if !ok {
		return
	}
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[DonationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	var project *models.Project
	var err error
	if req.ParsedAsset().IsNative() {
		project, err = h.escrow.Donate(ctx, donor, projectID, req.Amount)
	} else {
		project, err = h.escrow.DonateToken(ctx, donor, projectID, req.ParsedAsset(), req.Amount)
	}
	if err != nil {
		h.logger.WarnContext(ctx, "donation rejected",
			"request_id", requestID,
			"project_id", projectID,
			"donor", donor,
			"asset", req.ParsedAsset(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProject(project))
}

// HandleDirectTransfer handles POST /projects/{projectID}/direct-transfers,
// booking funds that bypassed the donation endpoint as an anonymous donation.
func (h *Handler) HandleDirectTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[DirectTransferRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	project, err := h.escrow.HandleDirectTransfer(ctx, projectID, req.Amount)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProject(project))
}

// HandleRelease handles POST /projects/{projectID}/release.
func (h *Handler) HandleRelease(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}
	project, err := h.escrow.Release(ctx, caller, projectID)
	if err != nil {
		h.logger.WarnContext(ctx, "release failed", "project_id", projectID, "caller", caller, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProject(project))
}

// HandleUpdateStatus handles POST /projects/{projectID}/status.
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[StatusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	project, err := h.escrow.UpdateStatus(ctx, caller, projectID, req.ParsedStatus())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProject(project))
}

// HandleSubmitEvidence handles POST /projects/{projectID}/evidence.
func (h *Handler) HandleSubmitEvidence(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[EvidenceRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	project, err := h.escrow.SubmitEvidence(ctx, caller, projectID, req.ParsedHash())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromProject(project))
}

// HandleListEvidence handles GET /projects/{projectID}/evidence.
func (h *Handler) HandleListEvidence(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}
	log, err := h.escrow.Evidence(r.Context(), projectID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, EvidenceResponse{ProjectID: projectID, Evidence: log})
}

// HandleListDonors handles GET /projects/{projectID}/donors.
func (h *Handler) HandleListDonors(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}
	donors, err := h.escrow.Donors(r.Context(), projectID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, donors)
}

// HandleProjectDonorTotal handles GET /projects/{projectID}/donors/{accountID}.
func (h *Handler) HandleProjectDonorTotal(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}
	donor, ok := h.accountParam(w, r)
	if !ok {
		return
	}
	total, err := h.escrow.DonorTotal(r.Context(), projectID, donor)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, DonorTotalResponse{Donor: donor, Total: total})
}

// HandleRefund handles POST /projects/{projectID}/refunds, covering both the
// single-donor refund and the full sweep.
func (h *Handler) HandleRefund(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[RefundRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	response := RefundResponse{ProjectID: projectID}
	if req.All {
		refunds, err := h.escrow.RefundAll(ctx, caller, projectID)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		for _, refund := range refunds {
			response.Refunds = append(response.Refunds, RefundedLine{Donor: refund.Donor, Amount: refund.Amount})
		}
	} else {
		amount, err := h.escrow.RefundDonor(ctx, caller, projectID, req.ParsedDonor())
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		response.Refunds = []RefundedLine{{Donor: req.ParsedDonor(), Amount: amount}}
	}
	httputil.WriteJSON(w, http.StatusOK, response)
}

// HandleLeaderboard handles GET /leaderboard?start=&end=.
func (h *Handler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	start := intQuery(query.Get("start"), 0)
	end := intQuery(query.Get("end"), start+10)

	entries, err := h.registry.Leaderboard(r.Context(), start, end)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, LeaderboardResponse{Start: start, End: end, Entries: entries})
}

// HandleStats handles GET /stats.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.registry.Stats(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

// HandleDonorTotal handles GET /donors/{accountID}/total.
func (h *Handler) HandleDonorTotal(w http.ResponseWriter, r *http.Request) {
	donor, ok := h.accountParam(w, r)
	if !ok {
		return
	}
	total, err := h.registry.DonorTotal(r.Context(), donor)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, DonorTotalResponse{Donor: donor, Total: total})
}

// HandleDonorBadges handles GET /donors/{accountID}/badges.
func (h *Handler) HandleDonorBadges(w http.ResponseWriter, r *http.Request) {
	donor, ok := h.accountParam(w, r)
	if !ok {
		return
	}
	response := BadgesResponse{Donor: donor, Badges: []string{}}
	if h.badges != nil {
		for _, badge := range h.badges.Awarded(donor) {
			response.Badges = append(response.Badges, string(badge))
		}
	}
	httputil.WriteJSON(w, http.StatusOK, response)
}

// HandleEvaluateBadges handles POST /donors/{accountID}/badges. It is the
// operator-facing trigger hook: the donor's global total is read and handed
// to the badge issuer along with the metadata reference the operator
// prepared off-platform, if any.
func (h *Handler) HandleEvaluateBadges(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := h.caller(w, r); !ok {
		return
	}
	donor, ok := h.accountParam(w, r)
	if !ok {
		return
	}
	var metadataRef id.ContentHash
	if r.ContentLength != 0 {
		req, ok := httputil.DecodeAndPrepare[EvaluateBadgesRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
		if !ok {
			return
		}
		metadataRef = req.ParsedMetadataRef()
	}
	total, err := h.registry.DonorTotal(ctx, donor)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if h.badges != nil {
		h.badges.Evaluate(ctx, donor, 0, total, metadataRef)
	}
	response := BadgesResponse{Donor: donor, Badges: []string{}}
	if h.badges != nil {
		for _, badge := range h.badges.Awarded(donor) {
			response.Badges = append(response.Badges, string(badge))
		}
	}
	httputil.WriteJSON(w, http.StatusOK, response)
}

// HandleSetFee handles PUT /admin/fee.
func (h *Handler) HandleSetFee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[FeeRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if err := h.registry.SetFee(ctx, caller, req.FeeBasisPoints); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int64{"fee_basis_points": h.registry.FeeBasisPoints()})
}

// HandleSetTreasury handles PUT /admin/treasury.
func (h *Handler) HandleSetTreasury(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[TreasuryRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if err := h.registry.SetTreasury(ctx, caller, req.ParsedTreasury()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandlePause handles POST /admin/pause.
func (h *Handler) HandlePause(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	if err := h.registry.Pause(r.Context(), caller); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleUnpause handles POST /admin/unpause.
func (h *Handler) HandleUnpause(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	if err := h.registry.Unpause(r.Context(), caller); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetAllowlist handles GET /admin/allowlist.
func (h *Handler) HandleGetAllowlist(w http.ResponseWriter, r *http.Request) {
	assets, allowAll, err := h.registry.AllowedAssets(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, AllowlistResponse{Assets: assets, AllowAll: allowAll})
}

// HandleAllowAsset handles POST /admin/allowlist.
func (h *Handler) HandleAllowAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AllowAssetRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if err := h.registry.AllowAsset(ctx, caller, req.ParsedAsset()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDisallowAsset handles DELETE /admin/allowlist/{asset}.
func (h *Handler) HandleDisallowAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	asset, err := id.ParseAssetID(chi.URLParam(r, "asset"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.registry.DisallowAsset(ctx, caller, asset); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSetAllowAll handles PUT /admin/allowlist/allow-all.
func (h *Handler) HandleSetAllowAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AllowAllRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if err := h.registry.SetAllowAll(ctx, caller, req.Allow); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGrantRole handles POST /admin/roles.
func (h *Handler) HandleGrantRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[RoleRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if err := h.registry.GrantRole(ctx, caller, req.ParsedAccount(), req.ParsedRole()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRevokeRole handles DELETE /admin/roles.
func (h *Handler) HandleRevokeRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[RoleRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if err := h.registry.RevokeRole(ctx, caller, req.ParsedAccount(), req.ParsedRole()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// intQuery parses a non-negative integer query value with a fallback.
func intQuery(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
