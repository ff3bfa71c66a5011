package projection

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"givepool/internal/funding/models"
	id "givepool/pkg/domain"
)

func newProject(t *testing.T, pid uint64, admin id.AccountID, goal int64) *models.Project {
	t.Helper()
	project, err := models.NewProject(id.ProjectID(pid), admin, goal, id.ContentHash(""), time.Now())
	require.NoError(t, err)
	return project
}

func TestCatalog_ListOrderedByID(t *testing.T) {
	catalog := NewCatalog()
	admin := id.AccountID(uuid.New())
	ctx := context.Background()

	for _, pid := range []uint64{3, 1, 2} {
		require.NoError(t, catalog.ProjectCreated(ctx, newProject(t, pid, admin, 100_000)))
	}

	listed, err := catalog.List(ctx, Filter{}, Page{})
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, id.ProjectID(1), listed[0].ID)
	assert.Equal(t, id.ProjectID(2), listed[1].ID)
	assert.Equal(t, id.ProjectID(3), listed[2].ID)
}

func TestCatalog_FilterByStatusAndAdmin(t *testing.T) {
	catalog := NewCatalog()
	ctx := context.Background()
	adminA := id.AccountID(uuid.New())
	adminB := id.AccountID(uuid.New())

	active := newProject(t, 1, adminA, 100_000)
	require.NoError(t, catalog.ProjectCreated(ctx, active))

	cancelled := newProject(t, 2, adminB, 100_000)
	cancelled.ApplyStatus(models.StatusCancelled, time.Now())
	require.NoError(t, catalog.ProjectCreated(ctx, cancelled))

	byStatus, err := catalog.List(ctx, Filter{Status: models.StatusCancelled}, Page{})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, id.ProjectID(2), byStatus[0].ID)

	byAdmin, err := catalog.List(ctx, Filter{Admin: adminA}, Page{})
	require.NoError(t, err)
	require.Len(t, byAdmin, 1)
	assert.Equal(t, id.ProjectID(1), byAdmin[0].ID)
}

func TestCatalog_FilterByMinGoal(t *testing.T) {
	catalog := NewCatalog()
	ctx := context.Background()
	admin := id.AccountID(uuid.New())

	require.NoError(t, catalog.ProjectCreated(ctx, newProject(t, 1, admin, 50_000)))
	require.NoError(t, catalog.ProjectCreated(ctx, newProject(t, 2, admin, 500_000)))

	listed, err := catalog.List(ctx, Filter{MinGoal: 100_000}, Page{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, id.ProjectID(2), listed[0].ID)
}

func TestCatalog_Pagination(t *testing.T) {
	catalog := NewCatalog()
	ctx := context.Background()
	admin := id.AccountID(uuid.New())
	for pid := uint64(1); pid <= 5; pid++ {
		require.NoError(t, catalog.ProjectCreated(ctx, newProject(t, pid, admin, 100_000)))
	}

	page, err := catalog.List(ctx, Filter{}, Page{Offset: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, id.ProjectID(3), page[0].ID)
	assert.Equal(t, id.ProjectID(4), page[1].ID)

	empty, err := catalog.List(ctx, Filter{}, Page{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestCatalog_UpdateRefreshesEntry(t *testing.T) {
	catalog := NewCatalog()
	ctx := context.Background()
	admin := id.AccountID(uuid.New())
	donor := id.AccountID(uuid.New())

	project := newProject(t, 1, admin, 100_000)
	require.NoError(t, catalog.ProjectCreated(ctx, project))

	project.ApplyDonation(donor, 100_000, time.Now())
	require.NoError(t, catalog.ProjectUpdated(ctx, project))

	summary, ok := catalog.Get(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, int64(100_000), summary.Raised)
	assert.Equal(t, models.StatusFunded, summary.Status)
	assert.Equal(t, 1, summary.DonorCount)
}
