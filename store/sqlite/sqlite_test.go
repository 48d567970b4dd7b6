package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caridade/donation-engine/commission"
	"github.com/caridade/donation-engine/donation"
	"github.com/caridade/donation-engine/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// =============================================================================
// DONATIONS
// =============================================================================

func TestDonationRoundtrip(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	paid := commission.NewDate(2024, time.June, 10)
	d := donation.Donation{
		ID:            "dn-1",
		DonorName:     "Paulo Mendes",
		DonorCode:     "D001",
		Amount:        decimal.RequireFromString("150.50"),
		DueDate:       commission.NewDate(2024, time.June, 5),
		PaymentDate:   &paid,
		Status:        donation.StatusPaid,
		AdvisorName:   "Ana",
		MessengerName: "Carlos",
		Method:        donation.MethodPix,
	}
	require.NoError(t, store.SaveDonation(ctx, d))

	got, err := store.GetDonation(ctx, "dn-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, d.DonorName, got.DonorName)
	assert.True(t, got.Amount.Equal(d.Amount))
	assert.Equal(t, "2024-06-05", got.DueDate.String())
	require.NotNil(t, got.PaymentDate)
	assert.Equal(t, "2024-06-10", got.PaymentDate.String())
	assert.Equal(t, donation.StatusPaid, got.Status)
	assert.Equal(t, donation.MethodPix, got.Method)
}

func TestDonation_SaveIsUpsert(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	d := donation.Donation{
		ID: "dn-1", DonorName: "Paulo", Amount: decimal.NewFromInt(100),
		DueDate: commission.NewDate(2024, time.June, 5), Status: donation.StatusPending,
	}
	require.NoError(t, store.SaveDonation(ctx, d))

	paid := commission.NewDate(2024, time.June, 10)
	d.Status = donation.StatusPaid
	d.PaymentDate = &paid
	require.NoError(t, store.SaveDonation(ctx, d))

	all, err := store.ListDonations(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, donation.StatusPaid, all[0].Status)
}

func TestDonation_GetMissingReturnsNil(t *testing.T) {
	got, err := newStore(t).GetDonation(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDonation_Delete(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.SaveDonation(ctx, donation.Donation{
		ID: "dn-1", DonorName: "Paulo", Amount: decimal.NewFromInt(100),
		DueDate: commission.NewDate(2024, time.June, 5), Status: donation.StatusPending,
	}))
	require.NoError(t, store.DeleteDonation(ctx, "dn-1"))

	got, err := store.GetDonation(ctx, "dn-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

// =============================================================================
// DONORS AND COLLABORATORS
// =============================================================================

func TestDonorRoundtrip(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	d := donation.Donor{
		ID: "don-1", Name: "Rita Alves", Code: "D002",
		AdvisorName: "Ana", JoinDate: commission.NewDate(2024, time.May, 20),
		Phone: "+55 11 99999-0000", Email: "rita@example.com",
	}
	require.NoError(t, store.SaveDonor(ctx, d))

	got, err := store.GetDonor(ctx, "don-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, d.Name, got.Name)
	assert.Equal(t, "2024-05-20", got.JoinDate.String())
	assert.Equal(t, d.Email, got.Email)
}

func TestAdvisorRoundtrip(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	a := donation.Advisor{
		ID: "adv-1", Name: "Ana", Status: donation.CollaboratorActive,
		Goal: decimal.NewFromInt(10000), NewClientsGoal: 3,
		MinRate: decimal.RequireFromString("5.5"), MaxRate: decimal.NewFromInt(8),
	}
	require.NoError(t, store.SaveAdvisor(ctx, a))

	got, err := store.GetAdvisor(ctx, "adv-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, donation.CollaboratorActive, got.Status)
	assert.Equal(t, 3, got.NewClientsGoal)
	assert.True(t, got.MinRate.Equal(decimal.RequireFromString("5.5")))
	assert.True(t, got.Goal.Equal(a.Goal))
}

func TestMessenger_NilRateSurvivesRoundtrip(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.SaveMessenger(ctx, donation.Messenger{
		ID: "msg-1", Name: "Diego", Status: donation.CollaboratorActive,
	}))
	rate := decimal.NewFromInt(2)
	require.NoError(t, store.SaveMessenger(ctx, donation.Messenger{
		ID: "msg-2", Name: "Carlos", Status: donation.CollaboratorActive, CommissionRate: &rate,
	}))

	noRate, err := store.GetMessenger(ctx, "msg-1")
	require.NoError(t, err)
	require.NotNil(t, noRate)
	assert.Nil(t, noRate.CommissionRate)

	withRate, err := store.GetMessenger(ctx, "msg-2")
	require.NoError(t, err)
	require.NotNil(t, withRate)
	require.NotNil(t, withRate.CommissionRate)
	assert.True(t, withRate.CommissionRate.Equal(rate))
}

func TestListAdvisors_OrderedByName(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	for _, a := range []donation.Advisor{
		{ID: "adv-2", Name: "Bruno", Status: donation.CollaboratorActive,
			Goal: decimal.Zero, MinRate: decimal.Zero, MaxRate: decimal.Zero},
		{ID: "adv-1", Name: "Ana", Status: donation.CollaboratorActive,
			Goal: decimal.Zero, MinRate: decimal.Zero, MaxRate: decimal.Zero},
	} {
		require.NoError(t, store.SaveAdvisor(ctx, a))
	}

	all, err := store.ListAdvisors(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Ana", all[0].Name)
	assert.Equal(t, "Bruno", all[1].Name)
}

// =============================================================================
// SETTINGS
// =============================================================================

func TestClosingDay_DefaultsWhenUnset(t *testing.T) {
	day, err := newStore(t).ClosingDay(context.Background())
	require.NoError(t, err)
	assert.Equal(t, commission.DefaultClosingDay, day)
}

func TestClosingDay_SetAndGet(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.SetClosingDay(ctx, 10))
	day, err := store.ClosingDay(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, day)
}

func TestSetClosingDay_RejectsOutOfRange(t *testing.T) {
	err := newStore(t).SetClosingDay(context.Background(), 31)
	require.Error(t, err)
	assert.ErrorIs(t, err, commission.ErrInvalidClosingDay)
}

// =============================================================================
// PAYMENTS
// =============================================================================

func TestMarkPaid_UpsertLastWriteWins(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	entryID := "Ana|advisor|2024-06"
	require.NoError(t, store.MarkPaid(ctx, entryID, commission.NewDate(2024, time.July, 1)))
	require.NoError(t, store.MarkPaid(ctx, entryID, commission.NewDate(2024, time.July, 8)))

	payments, err := store.ListPayments(ctx)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, "2024-07-08", payments[entryID].PaymentDate.String())
}

func TestClearPayment(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	entryID := "Ana|advisor|2024-06"
	require.NoError(t, store.MarkPaid(ctx, entryID, commission.NewDate(2024, time.July, 1)))
	require.NoError(t, store.ClearPayment(ctx, entryID))
	// Clearing again is a no-op.
	require.NoError(t, store.ClearPayment(ctx, entryID))

	payments, err := store.ListPayments(ctx)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

// =============================================================================
// REASSIGNMENT
// =============================================================================

func TestReassign_Atomic(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.SaveAdvisor(ctx, donation.Advisor{
		ID: "adv-1", Name: "Zelia", Status: donation.CollaboratorActive,
		Goal: decimal.Zero, MinRate: decimal.Zero, MaxRate: decimal.Zero,
	}))
	require.NoError(t, store.SaveDonor(ctx, donation.Donor{
		ID: "don-1", Name: "Paulo", AdvisorName: "Zelia",
		JoinDate: commission.NewDate(2024, time.January, 1),
	}))

	err := store.Reassign(ctx, "adv-1", donation.CollaboratorDismissed, []donation.DonorReassignment{
		{DonorID: "don-1", AdvisorName: "Ana"},
	})
	require.NoError(t, err)

	moved, err := store.GetDonor(ctx, "don-1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", moved.AdvisorName)

	flipped, err := store.GetAdvisor(ctx, "adv-1")
	require.NoError(t, err)
	assert.Equal(t, donation.CollaboratorDismissed, flipped.Status)
}

func TestReassign_RollsBackOnMissingDonor(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.SaveAdvisor(ctx, donation.Advisor{
		ID: "adv-1", Name: "Zelia", Status: donation.CollaboratorActive,
		Goal: decimal.Zero, MinRate: decimal.Zero, MaxRate: decimal.Zero,
	}))
	require.NoError(t, store.SaveDonor(ctx, donation.Donor{
		ID: "don-1", Name: "Paulo", AdvisorName: "Zelia",
		JoinDate: commission.NewDate(2024, time.January, 1),
	}))

	err := store.Reassign(ctx, "adv-1", donation.CollaboratorDismissed, []donation.DonorReassignment{
		{DonorID: "don-1", AdvisorName: "Ana"},
		{DonorID: "ghost", AdvisorName: "Ana"},
	})
	require.Error(t, err)

	// Nothing committed: donor and advisor are untouched.
	untouched, getErr := store.GetDonor(ctx, "don-1")
	require.NoError(t, getErr)
	assert.Equal(t, "Zelia", untouched.AdvisorName)

	advisor, getErr := store.GetAdvisor(ctx, "adv-1")
	require.NoError(t, getErr)
	assert.Equal(t, donation.CollaboratorActive, advisor.Status)
}

func TestReassign_UnknownAdvisor(t *testing.T) {
	err := newStore(t).Reassign(context.Background(), "ghost", donation.CollaboratorDismissed, nil)
	require.Error(t, err)
}

// =============================================================================
// MAINTENANCE
// =============================================================================

func TestReset_WipesEverything(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.SaveDonation(ctx, donation.Donation{
		ID: "dn-1", DonorName: "Paulo", Amount: decimal.NewFromInt(100),
		DueDate: commission.NewDate(2024, time.June, 5), Status: donation.StatusPending,
	}))
	require.NoError(t, store.SetClosingDay(ctx, 10))
	require.NoError(t, store.MarkPaid(ctx, "x|advisor|2024-06", commission.NewDate(2024, time.July, 1)))

	require.NoError(t, store.Reset(ctx))

	donations, err := store.ListDonations(ctx)
	require.NoError(t, err)
	assert.Empty(t, donations)

	day, err := store.ClosingDay(ctx)
	require.NoError(t, err)
	assert.Equal(t, commission.DefaultClosingDay, day)

	payments, err := store.ListPayments(ctx)
	require.NoError(t, err)
	assert.Empty(t, payments)
}
