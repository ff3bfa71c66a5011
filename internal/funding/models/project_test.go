package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "givepool/pkg/domain"
	dErrors "givepool/pkg/domain-errors"
)

var metadataRef, _ = id.ParseContentHash("9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08")

func newTestProject(t *testing.T, goal int64) *Project {
	t.Helper()
	p, err := NewProject(1, id.AccountID(uuid.New()), goal, metadataRef, time.Now())
	require.NoError(t, err)
	return p
}

func TestNewProject_Validation(t *testing.T) {
	admin := id.AccountID(uuid.New())
	now := time.Now()

	t.Run("rejects zero project id", func(t *testing.T) {
		_, err := NewProject(0, admin, 100, metadataRef, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnknownProject))
	})

	t.Run("rejects nil admin", func(t *testing.T) {
		_, err := NewProject(1, id.AccountID{}, 100, metadataRef, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidIdentity))
	})

	t.Run("rejects non-positive goal", func(t *testing.T) {
		_, err := NewProject(1, admin, 0, metadataRef, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidAmount))
		_, err = NewProject(1, admin, -5, metadataRef, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidAmount))
	})

	t.Run("starts active and initialized", func(t *testing.T) {
		p, err := NewProject(1, admin, 100, metadataRef, now)
		require.NoError(t, err)
		assert.Equal(t, StatusActive, p.Status)
		assert.True(t, p.Initialized())
	})
}

func TestInitialize_ExactlyOnce(t *testing.T) {
	admin := id.AccountID(uuid.New())
	now := time.Now()

	var p Project
	require.NoError(t, p.Initialize(7, admin, 500, metadataRef, now))

	// A second attempt fails regardless of arguments.
	err := p.Initialize(8, id.AccountID(uuid.New()), 900, metadataRef, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyInitialized))

	// The failed attempt did not disturb the first initialization.
	assert.Equal(t, id.ProjectID(7), p.ID)
	assert.Equal(t, int64(500), p.Goal)
}

func TestOperations_RequireInitialization(t *testing.T) {
	var p Project
	donor := id.AccountID(uuid.New())

	assert.True(t, dErrors.HasCode(p.CanDonate(donor, MinimumDonation), dErrors.CodeNotInitialized))
	assert.True(t, dErrors.HasCode(p.CanRelease(donor), dErrors.CodeNotInitialized))
	assert.True(t, dErrors.HasCode(p.CanSubmitEvidence(donor, metadataRef), dErrors.CodeNotInitialized))
	assert.True(t, dErrors.HasCode(p.CanRefundDonor(donor, donor), dErrors.CodeNotInitialized))
	assert.True(t, dErrors.HasCode(p.CanUpdateStatus(donor, StatusCancelled), dErrors.CodeNotInitialized))
}

func TestDonation_AutoFundsAtThreshold(t *testing.T) {
	p := newTestProject(t, 100_000)
	now := time.Now()

	a := id.AccountID(uuid.New())
	b := id.AccountID(uuid.New())
	c := id.AccountID(uuid.New())

	require.NoError(t, p.CanDonate(a, 30_000))
	assert.False(t, p.ApplyDonation(a, 30_000, now))
	require.NoError(t, p.CanDonate(b, 40_000))
	assert.False(t, p.ApplyDonation(b, 40_000, now))
	assert.Equal(t, StatusActive, p.Status)

	// The donation crossing the threshold flips the status, exactly once.
	require.NoError(t, p.CanDonate(c, 30_000))
	assert.True(t, p.ApplyDonation(c, 30_000, now))
	assert.Equal(t, StatusFunded, p.Status)
	assert.Equal(t, int64(100_000), p.Raised)

	// Funded projects no longer accept donations.
	err := p.CanDonate(a, MinimumDonation)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidStatusTransition))
}

func TestDonation_Preconditions(t *testing.T) {
	p := newTestProject(t, 100_000)
	donor := id.AccountID(uuid.New())

	t.Run("below minimum", func(t *testing.T) {
		err := p.CanDonate(donor, MinimumDonation-1)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidAmount))
		// No state change, donor not added.
		assert.Equal(t, int64(0), p.Raised)
		assert.Empty(t, p.Donors())
	})

	t.Run("nil donor", func(t *testing.T) {
		err := p.CanDonate(id.AccountID{}, MinimumDonation)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidIdentity))
	})
}

func TestDonation_SumInvariant(t *testing.T) {
	p := newTestProject(t, 1_000_000)
	now := time.Now()
	donors := []id.AccountID{id.AccountID(uuid.New()), id.AccountID(uuid.New()), id.AccountID(uuid.New())}
	amounts := []int64{1_000, 2_500, 40_000, 1_000, 7_777, 123_456}

	for i, amt := range amounts {
		donor := donors[i%len(donors)]
		require.NoError(t, p.CanDonate(donor, amt))
		p.ApplyDonation(donor, amt, now)

		var sum int64
		for _, d := range p.Donors() {
			sum += p.DonorTotal(d)
		}
		assert.Equal(t, p.Raised, sum, "per-donor totals must sum to raised after every donation")
	}

	// Distinct donors keep first-donation order.
	assert.Equal(t, donors, p.Donors())
}

func TestRelease_Rules(t *testing.T) {
	goal := int64(100_000)
	now := time.Now()

	t.Run("before goal fails with goal_not_reached", func(t *testing.T) {
		p := newTestProject(t, goal)
		p.ApplyDonation(id.AccountID(uuid.New()), goal/2, now)
		err := p.CanRelease(p.Admin)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeGoalNotReached))
	})

	t.Run("non-admin is unauthorized", func(t *testing.T) {
		p := newTestProject(t, goal)
		p.ApplyDonation(id.AccountID(uuid.New()), goal, now)
		err := p.CanRelease(id.AccountID(uuid.New()))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("succeeds once then always already_released", func(t *testing.T) {
		p := newTestProject(t, goal)
		p.ApplyDonation(id.AccountID(uuid.New()), goal, now)
		require.NoError(t, p.CanRelease(p.Admin))
		p.ApplyRelease(now)
		assert.Equal(t, StatusCompleted, p.Status)

		err := p.CanRelease(p.Admin)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyReleased))
	})

	t.Run("cancelled projects cannot release", func(t *testing.T) {
		p := newTestProject(t, goal)
		p.ApplyDonation(id.AccountID(uuid.New()), goal, now)
		p.ApplyStatus(StatusCancelled, now)
		err := p.CanRelease(p.Admin)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidStatusTransition))
	})
}

func TestFeeSplit_Conservation(t *testing.T) {
	cases := []struct {
		total, bps, wantFee int64
	}{
		{100_000, 1_000, 10_000}, // 10%
		{100, 0, 0},
		{0, 5_000, 0},
		{999, 3_333, 332}, // floors
		{1, 5_000, 0},
		{1_000_000, 5_000, 500_000},
	}
	for _, tc := range cases {
		fee, net := FeeSplit(tc.total, tc.bps)
		assert.Equal(t, tc.wantFee, fee)
		assert.Equal(t, tc.total, fee+net, "fee + net must equal total")
	}
}

func TestUpdateStatus_Rules(t *testing.T) {
	goal := int64(50_000)
	now := time.Now()

	t.Run("funded requires goal met", func(t *testing.T) {
		p := newTestProject(t, goal)
		err := p.CanUpdateStatus(p.Admin, StatusFunded)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidStatusTransition))
	})

	t.Run("completed is release-only", func(t *testing.T) {
		p := newTestProject(t, goal)
		p.ApplyDonation(id.AccountID(uuid.New()), goal, now)
		err := p.CanUpdateStatus(p.Admin, StatusCompleted)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidStatusTransition))
	})

	t.Run("nothing leaves completed", func(t *testing.T) {
		p := newTestProject(t, goal)
		p.ApplyDonation(id.AccountID(uuid.New()), goal, now)
		p.ApplyRelease(now)
		err := p.CanUpdateStatus(p.Admin, StatusCancelled)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidStatusTransition))
	})

	t.Run("admin may cancel active and funded", func(t *testing.T) {
		p := newTestProject(t, goal)
		require.NoError(t, p.CanUpdateStatus(p.Admin, StatusCancelled))

		p2 := newTestProject(t, goal)
		p2.ApplyDonation(id.AccountID(uuid.New()), goal, now)
		require.NoError(t, p2.CanUpdateStatus(p2.Admin, StatusCancelled))
	})

	t.Run("non-admin is unauthorized", func(t *testing.T) {
		p := newTestProject(t, goal)
		err := p.CanUpdateStatus(id.AccountID(uuid.New()), StatusCancelled)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func TestRefunds(t *testing.T) {
	goal := int64(100_000)
	now := time.Now()

	setup := func(t *testing.T) (*Project, id.AccountID, id.AccountID) {
		p := newTestProject(t, goal)
		a := id.AccountID(uuid.New())
		b := id.AccountID(uuid.New())
		p.ApplyDonation(a, 30_000, now)
		p.ApplyDonation(b, 20_000, now)
		p.ApplyStatus(StatusCancelled, now)
		return p, a, b
	}

	t.Run("refund requires cancelled", func(t *testing.T) {
		p := newTestProject(t, goal)
		d := id.AccountID(uuid.New())
		p.ApplyDonation(d, 30_000, now)
		err := p.CanRefundDonor(p.Admin, d)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidStatusTransition))
	})

	t.Run("non-donor has no recorded donation", func(t *testing.T) {
		p, _, _ := setup(t)
		err := p.CanRefundDonor(p.Admin, id.AccountID(uuid.New()))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNoRecordedDonation))
	})

	t.Run("single refund zeroes the donor and shrinks the total", func(t *testing.T) {
		p, a, b := setup(t)
		require.NoError(t, p.CanRefundDonor(p.Admin, a))
		amount := p.ApplyRefund(a, now)
		assert.Equal(t, int64(30_000), amount)
		assert.Equal(t, int64(0), p.DonorTotal(a))
		assert.Equal(t, int64(20_000), p.Raised)
		assert.Equal(t, int64(20_000), p.DonorTotal(b))

		// A second refund for the same donor has nothing to return.
		err := p.CanRefundDonor(p.Admin, a)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNoRecordedDonation))
	})

	t.Run("refund all sweeps every donor and clears the list", func(t *testing.T) {
		p, a, b := setup(t)
		require.NoError(t, p.CanRefundAll(p.Admin))
		refunds := p.ApplyRefundAll(now)
		require.Len(t, refunds, 2)
		assert.Equal(t, Refund{Donor: a, Amount: 30_000}, refunds[0])
		assert.Equal(t, Refund{Donor: b, Amount: 20_000}, refunds[1])
		assert.Equal(t, int64(0), p.Raised)
		assert.Empty(t, p.Donors())
		assert.Equal(t, int64(0), p.DonorTotal(a))
	})
}

func TestEvidence(t *testing.T) {
	p := newTestProject(t, 100_000)
	now := time.Now()

	t.Run("admin appends records in order", func(t *testing.T) {
		require.NoError(t, p.CanSubmitEvidence(p.Admin, metadataRef))
		p.AppendEvidence(metadataRef, p.Admin, now)
		require.Len(t, p.Evidence, 1)
		assert.Equal(t, metadataRef, p.Evidence[0].Hash)
		assert.Equal(t, p.Admin, p.Evidence[0].Submitter)
	})

	t.Run("non-admin is unauthorized", func(t *testing.T) {
		err := p.CanSubmitEvidence(id.AccountID(uuid.New()), metadataRef)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("evidence survives status changes", func(t *testing.T) {
		p.ApplyStatus(StatusCancelled, now)
		require.NoError(t, p.CanSubmitEvidence(p.Admin, metadataRef))
	})
}

func TestClone_IsDeep(t *testing.T) {
	p := newTestProject(t, 100_000)
	donor := id.AccountID(uuid.New())
	p.ApplyDonation(donor, 5_000, time.Now())

	cp := p.Clone()
	cp.DonorTotals[donor] = 999
	cp.DonorOrder = append(cp.DonorOrder, id.AccountID(uuid.New()))

	assert.Equal(t, int64(5_000), p.DonorTotal(donor))
	assert.Len(t, p.Donors(), 1)
}

func TestStatusGraph(t *testing.T) {
	assert.True(t, StatusActive.CanTransitionTo(StatusFunded))
	assert.True(t, StatusActive.CanTransitionTo(StatusCancelled))
	assert.True(t, StatusFunded.CanTransitionTo(StatusCompleted))
	assert.True(t, StatusFunded.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusCompleted.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusCompleted.CanTransitionTo(StatusActive))
	assert.False(t, StatusCancelled.CanTransitionTo(StatusFunded))
	assert.False(t, StatusFunded.CanTransitionTo(StatusActive))
}
