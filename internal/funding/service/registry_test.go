package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"givepool/internal/funding/models"
	id "givepool/pkg/domain"
	dErrors "givepool/pkg/domain-errors"
)

func TestCreateProject_SequentialIDs(t *testing.T) {
	f := newFixture(t)

	first := f.createProject(t, 100_000)
	second := f.createProject(t, 200_000)
	third := f.createProject(t, 300_000)

	assert.Equal(t, id.ProjectID(1), first.ID)
	assert.Equal(t, id.ProjectID(2), second.ID)
	assert.Equal(t, id.ProjectID(3), third.ID)
}

func TestCreateProject_RequiresRole(t *testing.T) {
	f := newFixture(t)
	stranger := id.AccountID(uuid.New())

	_, err := f.registry.CreateProject(context.Background(), stranger, stranger, 100_000, id.ContentHash(""))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestCreateProject_InvalidGoal(t *testing.T) {
	f := newFixture(t)

	_, err := f.registry.CreateProject(context.Background(), f.creator, f.creator, 0, id.ContentHash(""))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidAmount))
}

func TestCreateProject_FailedAttemptLeavesNoGap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.createProject(t, 100_000)
	require.Equal(t, id.ProjectID(1), first.ID)

	_, err := f.registry.CreateProject(ctx, f.creator, f.creator, 0, id.ContentHash(""))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidAmount))

	second := f.createProject(t, 200_000)
	assert.Equal(t, id.ProjectID(2), second.ID)
}

func TestPause_BlocksOnlyCreation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	project := f.createProject(t, 100_000)
	donor := id.AccountID(uuid.New())
	f.fundDonor(t, donor, 50_000)

	require.NoError(t, f.registry.Pause(ctx, f.operator))

	_, err := f.registry.CreateProject(ctx, f.creator, f.creator, 100_000, id.ContentHash(""))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

	// Donations on existing projects keep working while paused.
	_, err = f.escrow.Donate(ctx, donor, project.ID, 20_000)
	require.NoError(t, err)

	require.NoError(t, f.registry.Unpause(ctx, f.operator))
	_, err = f.registry.CreateProject(ctx, f.creator, f.creator, 100_000, id.ContentHash(""))
	require.NoError(t, err)
}

func TestPause_RequiresPermission(t *testing.T) {
	f := newFixture(t)

	err := f.registry.Pause(context.Background(), f.creator)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestSetFee_CeilingEnforced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.registry.SetFee(ctx, f.operator, models.MaxFeeBasisPoints))
	assert.Equal(t, models.MaxFeeBasisPoints, f.registry.FeeBasisPoints())

	err := f.registry.SetFee(ctx, f.operator, models.MaxFeeBasisPoints+1)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeFeeExceedsCeiling))
	assert.Equal(t, models.MaxFeeBasisPoints, f.registry.FeeBasisPoints())

	err = f.registry.SetFee(ctx, f.operator, -1)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidAmount))
}

func TestSetTreasury_RejectsZeroIdentity(t *testing.T) {
	f := newFixture(t)

	err := f.registry.SetTreasury(context.Background(), f.operator, id.AccountID{})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidIdentity))
}

func TestRecordDonation_WrongInstanceKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	project := f.createProject(t, 100_000)
	donor := id.AccountID(uuid.New())

	err := f.registry.RecordDonation(ctx, project.ID, "forged-key", donor, 10_000)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	total, err := f.registry.DonorTotal(ctx, donor)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestRecordDonation_UnknownProject(t *testing.T) {
	f := newFixture(t)

	err := f.registry.RecordDonation(context.Background(), id.ProjectID(99), "any", id.AccountID(uuid.New()), 10_000)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnknownProject))
}

func TestLeaderboard_RankingAndSlicing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	project := f.createProject(t, 10_000_000)

	donors := make([]id.AccountID, 4)
	for i := range donors {
		donors[i] = id.AccountID(uuid.New())
	}
	// Insertion order: donors[0] 30k, donors[1] 50k, donors[2] 30k, donors[3] 10k.
	for i, amount := range []int64{30_000, 50_000, 30_000, 10_000} {
		f.fundDonor(t, donors[i], amount)
		_, err := f.escrow.Donate(ctx, donors[i], project.ID, amount)
		require.NoError(t, err)
	}

	full, err := f.registry.Leaderboard(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, full, 4)
	assert.Equal(t, donors[1], full[0].Donor)
	// Tied at 30k: first-donation order breaks the tie.
	assert.Equal(t, donors[0], full[1].Donor)
	assert.Equal(t, donors[2], full[2].Donor)
	assert.Equal(t, donors[3], full[3].Donor)

	window, err := f.registry.Leaderboard(ctx, 1, 3)
	require.NoError(t, err)
	require.Len(t, window, 2)
	assert.Equal(t, donors[0], window[0].Donor)
	assert.Equal(t, donors[2], window[1].Donor)

	empty, err := f.registry.Leaderboard(ctx, 3, 3)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRoles_GrantAndRevoke(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := id.AccountID(uuid.New())

	require.NoError(t, f.registry.GrantRole(ctx, f.operator, account, models.RoleCreator))
	held, err := f.registry.RolesOf(ctx, account)
	require.NoError(t, err)
	assert.Equal(t, []models.Role{models.RoleCreator}, held)

	_, err = f.registry.CreateProject(ctx, account, account, 100_000, id.ContentHash(""))
	require.NoError(t, err)

	require.NoError(t, f.registry.RevokeRole(ctx, f.operator, account, models.RoleCreator))
	_, err = f.registry.CreateProject(ctx, account, account, 100_000, id.ContentHash(""))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestRoles_ManageRequiresPermission(t *testing.T) {
	f := newFixture(t)
	account := id.AccountID(uuid.New())

	err := f.registry.GrantRole(context.Background(), f.creator, account, models.RoleCreator)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestAllowlist_ManagementAndNativeGuard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	token, err := id.ParseAssetID("USDX")
	require.NoError(t, err)

	require.NoError(t, f.registry.AllowAsset(ctx, f.operator, token))
	listed, allowAll, err := f.registry.AllowedAssets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []id.AssetID{token}, listed)
	assert.False(t, allowAll)

	require.NoError(t, f.registry.DisallowAsset(ctx, f.operator, token))
	listed, _, err = f.registry.AllowedAssets(ctx)
	require.NoError(t, err)
	assert.Empty(t, listed)

	err = f.registry.AllowAsset(ctx, f.operator, id.NativeAsset)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	err = f.registry.AllowAsset(ctx, f.creator, token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
