package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"givepool/internal/assets"
	"givepool/internal/badges"
	"givepool/internal/funding/models"
	"givepool/internal/funding/service"
	"givepool/internal/funding/store/allowlist"
	"givepool/internal/funding/store/arena"
	"givepool/internal/funding/store/ledger"
	"givepool/internal/funding/store/roles"
	"givepool/internal/projection"
	id "givepool/pkg/domain"
	"givepool/pkg/platform/events"
	"givepool/pkg/platform/events/publisher"
	"givepool/pkg/testutil"
)

type testEnv struct {
	router   chi.Router
	vault    *assets.NativeVault
	registry *service.Registry
	escrow   *service.Escrow
	catalog  *projection.Catalog

	operator id.AccountID
	creator  id.AccountID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		vault:    assets.NewNativeVault(),
		catalog:  projection.NewCatalog(),
		operator: id.AccountID(uuid.New()),
		creator:  id.AccountID(uuid.New()),
	}

	pub := publisher.NewPublisher(events.NewInMemoryStore())
	t.Cleanup(func() { pub.Close() })

	projectArena := arena.NewInMemory()
	assetAllowlist := allowlist.NewInMemory()
	badgeSvc := badges.NewService(badges.NoopIssuer{}, pub, nil)
	env.registry = service.NewRegistry(
		projectArena, ledger.NewInMemory(), roles.NewInMemory(), assetAllowlist, pub,
		service.WithProjection(env.catalog),
		service.WithBadges(badgeSvc),
	)
	env.escrow = service.NewEscrow(projectArena, env.vault, assetAllowlist, pub,
		service.WithEscrowProjection(env.catalog),
	)
	env.registry.BindEscrow(env.escrow)
	env.escrow.BindRegistry(env.registry)

	ctx := context.Background()
	require.NoError(t, env.registry.Bootstrap(ctx, env.operator))
	require.NoError(t, env.registry.GrantRole(ctx, env.operator, env.creator, models.RoleCreator))

	h := New(env.registry, env.escrow, env.catalog, badgeSvc, nil)
	env.router = chi.NewRouter()
	h.Register(env.router)
	return env
}

// do runs a request as the given account (zero account means anonymous).
func (env *testEnv) do(t *testing.T, account id.AccountID, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.NewJSONRequest(t, method, path, body)
	if !account.IsNil() {
		req = req.WithContext(testutil.AuthenticatedContext(req.Context(), account))
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func (env *testEnv) createProject(t *testing.T, goal int64) ProjectResponse {
	t.Helper()
	w := env.do(t, env.creator, http.MethodPost, "/projects", map[string]any{"goal": goal})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp ProjectResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestCreateProject_Endpoint(t *testing.T) {
	env := newTestEnv(t)

	resp := env.createProject(t, 100_000)

	assert.Equal(t, id.ProjectID(1), resp.ID)
	assert.Equal(t, env.creator, resp.Admin)
	assert.Equal(t, "active", resp.Status)
	assert.Zero(t, resp.Raised)
}

func TestCreateProject_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, id.AccountID{}, http.MethodPost, "/projects", map[string]any{"goal": 100_000})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateProject_InvalidGoal(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, env.creator, http.MethodPost, "/projects", map[string]any{"goal": -5})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "invalid_amount", body["error"])
}

func TestDonateAndRelease_Flow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	project := env.createProject(t, 100_000)
	donor := id.AccountID(uuid.New())
	require.NoError(t, env.vault.Credit(ctx, donor, 200_000))

	w := env.do(t, donor, http.MethodPost, fmt.Sprintf("/projects/%s/donations", project.ID), map[string]any{"amount": 100_000})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var donated ProjectResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&donated))
	assert.Equal(t, "funded", donated.Status)
	assert.Equal(t, int64(100_000), donated.Raised)

	w = env.do(t, env.creator, http.MethodPost, fmt.Sprintf("/projects/%s/release", project.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var released ProjectResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&released))
	assert.Equal(t, "completed", released.Status)

	// Double release maps AlreadyReleased onto 409.
	w = env.do(t, env.creator, http.MethodPost, fmt.Sprintf("/projects/%s/release", project.ID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "already_released", body["error"])
}

func TestRelease_GoalNotReachedConflict(t *testing.T) {
	env := newTestEnv(t)
	project := env.createProject(t, 100_000)

	w := env.do(t, env.creator, http.MethodPost, fmt.Sprintf("/projects/%s/release", project.ID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "goal_not_reached", body["error"])
}

func TestGetProject_UnknownIs404(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, id.AccountID{}, http.MethodGet, "/projects/42", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, id.AccountID{}, http.MethodGet, "/projects/not-a-number", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRefund_Endpoint(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	project := env.createProject(t, 100_000)
	donor := id.AccountID(uuid.New())
	require.NoError(t, env.vault.Credit(ctx, donor, 50_000))

	w := env.do(t, donor, http.MethodPost, fmt.Sprintf("/projects/%s/donations", project.ID), map[string]any{"amount": 30_000})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, env.creator, http.MethodPost, fmt.Sprintf("/projects/%s/status", project.ID), map[string]any{"status": "cancelled"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, env.creator, http.MethodPost, fmt.Sprintf("/projects/%s/refunds", project.ID), map[string]any{"donor": donor.String()})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp RefundResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Refunds, 1)
	assert.Equal(t, donor, resp.Refunds[0].Donor)
	assert.Equal(t, int64(30_000), resp.Refunds[0].Amount)

	balance, err := env.vault.Balance(ctx, donor)
	require.NoError(t, err)
	assert.Equal(t, int64(50_000), balance)
}

func TestRefund_BeforeCancellationConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	project := env.createProject(t, 100_000)
	donor := id.AccountID(uuid.New())
	require.NoError(t, env.vault.Credit(ctx, donor, 50_000))
	w := env.do(t, donor, http.MethodPost, fmt.Sprintf("/projects/%s/donations", project.ID), map[string]any{"amount": 30_000})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, env.creator, http.MethodPost, fmt.Sprintf("/projects/%s/refunds", project.ID), map[string]any{"donor": donor.String()})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLeaderboard_Endpoint(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	project := env.createProject(t, 10_000_000)

	big := id.AccountID(uuid.New())
	small := id.AccountID(uuid.New())
	require.NoError(t, env.vault.Credit(ctx, big, 100_000))
	require.NoError(t, env.vault.Credit(ctx, small, 100_000))

	w := env.do(t, small, http.MethodPost, fmt.Sprintf("/projects/%s/donations", project.ID), map[string]any{"amount": 10_000})
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, big, http.MethodPost, fmt.Sprintf("/projects/%s/donations", project.ID), map[string]any{"amount": 90_000})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, id.AccountID{}, http.MethodGet, "/leaderboard?start=0&end=10", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp LeaderboardResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, big, resp.Entries[0].Donor)
	assert.Equal(t, int64(90_000), resp.Entries[0].Total)
	assert.Equal(t, small, resp.Entries[1].Donor)
}

func TestBadges_TriggerAndList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	project := env.createProject(t, 10_000_000)
	donor := id.AccountID(uuid.New())
	require.NoError(t, env.vault.Credit(ctx, donor, 200_000))

	w := env.do(t, donor, http.MethodPost, fmt.Sprintf("/projects/%s/donations", project.ID), map[string]any{"amount": 150_000})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Operator-triggered re-evaluation against the donor's global total.
	w = env.do(t, env.operator, http.MethodPost, fmt.Sprintf("/donors/%s/badges", donor), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp BadgesResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, []string{"first_donation", "bronze_donor"}, resp.Badges)

	w = env.do(t, donor, http.MethodGet, fmt.Sprintf("/donors/%s/badges", donor), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, []string{"first_donation", "bronze_donor"}, resp.Badges)

	// The trigger accepts a metadata reference prepared off-platform.
	w = env.do(t, env.operator, http.MethodPost, fmt.Sprintf("/donors/%s/badges", donor),
		map[string]any{"metadata_ref": "4f8a2b6c1d9e3f708a1b5c7d2e4f6a8b0c1d3e5f7a9b2c4d6e8f0a1b3c5d7e9f"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, env.operator, http.MethodPost, fmt.Sprintf("/donors/%s/badges", donor),
		map[string]any{"metadata_ref": "not-a-hash"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminFee_CeilingIs422(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, env.operator, http.MethodPut, "/admin/fee", map[string]any{"fee_basis_points": 6_000})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "fee_exceeds_ceiling", body["error"])

	w = env.do(t, env.operator, http.MethodPut, "/admin/fee", map[string]any{"fee_basis_points": 1_000})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdmin_RequiresPermission(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, env.creator, http.MethodPost, "/admin/pause", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListProjects_CatalogFiltering(t *testing.T) {
	env := newTestEnv(t)
	env.createProject(t, 100_000)
	second := env.createProject(t, 200_000)

	w := env.do(t, env.creator, http.MethodPost, fmt.Sprintf("/projects/%s/status", second.ID), map[string]any{"status": "cancelled"})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, id.AccountID{}, http.MethodGet, "/projects?status=cancelled", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var listed []projection.Summary
	require.NoError(t, json.NewDecoder(w.Body).Decode(&listed))
	require.Len(t, listed, 1)
	assert.Equal(t, second.ID, listed[0].ID)
}

func TestEvidence_Endpoints(t *testing.T) {
	env := newTestEnv(t)
	project := env.createProject(t, 100_000)
	hash := "4a44dc15364204a80fe80e9039455cc1608281820fe2b24f1e5233ade6af1dd5"

	w := env.do(t, env.creator, http.MethodPost, fmt.Sprintf("/projects/%s/evidence", project.ID), map[string]any{"hash": hash})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, id.AccountID{}, http.MethodGet, fmt.Sprintf("/projects/%s/evidence", project.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp EvidenceResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Evidence, 1)
	assert.Equal(t, hash, resp.Evidence[0].Hash.String())
}
