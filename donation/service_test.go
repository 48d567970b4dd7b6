package donation_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caridade/donation-engine/commission"
	"github.com/caridade/donation-engine/donation"
	"github.com/caridade/donation-engine/store/memory"
)

func seedStore(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	paid := commission.NewDate(2024, time.June, 10)
	require.NoError(t, store.SaveAdvisor(ctx, donation.Advisor{
		ID: "adv-1", Name: "Ana", Status: donation.CollaboratorActive,
		Goal:    decimal.NewFromInt(1000),
		MinRate: decimal.NewFromInt(5), MaxRate: decimal.NewFromInt(8),
	}))
	require.NoError(t, store.SaveDonation(ctx, donation.Donation{
		ID: "dn-1", DonorName: "Paulo", Amount: decimal.NewFromInt(500),
		DueDate: paid, PaymentDate: &paid,
		Status: donation.StatusPaid, AdvisorName: "Ana",
	}))
	return store
}

func TestCommissionService_Compute(t *testing.T) {
	// GIVEN: One paid donation credited to a registered advisor
	// WHEN: Computing commissions through the service
	// THEN: One pending entry with the min rate (below goal)

	svc := donation.NewCommissionService(seedStore(t))

	result, err := svc.Compute(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)

	e := result.Entries[0]
	assert.Equal(t, "Ana", e.Key.RecipientName)
	assert.Equal(t, commission.StatusPending, e.Status)
	assert.True(t, e.Rate.Equal(decimal.NewFromInt(5)))
	assert.True(t, e.Commission.Equal(decimal.NewFromInt(25)))
}

func TestCommissionService_MarkPaid(t *testing.T) {
	// GIVEN: A computed pending entry
	// WHEN: Marking it paid by id
	// THEN: The returned entry is paid and the change survives a recompute

	ctx := context.Background()
	svc := donation.NewCommissionService(seedStore(t))

	result, err := svc.Compute(ctx, nil)
	require.NoError(t, err)
	entryID := result.Entries[0].ID()

	updated, err := svc.MarkPaid(ctx, entryID)
	require.NoError(t, err)
	assert.Equal(t, commission.StatusPaid, updated.Status)
	require.NotNil(t, updated.PaymentDate)

	result, err = svc.Compute(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, commission.StatusPaid, result.Entries[0].Status)
}

func TestCommissionService_MarkPaid_Idempotent(t *testing.T) {
	// GIVEN: An entry already marked paid
	// WHEN: Marking it paid again
	// THEN: No error; the entry stays paid

	ctx := context.Background()
	svc := donation.NewCommissionService(seedStore(t))

	result, err := svc.Compute(ctx, nil)
	require.NoError(t, err)
	entryID := result.Entries[0].ID()

	_, err = svc.MarkPaid(ctx, entryID)
	require.NoError(t, err)
	updated, err := svc.MarkPaid(ctx, entryID)
	require.NoError(t, err)
	assert.Equal(t, commission.StatusPaid, updated.Status)
}

func TestCommissionService_MarkPaid_UnknownEntry(t *testing.T) {
	// GIVEN: An entry id not present in the current snapshot
	// WHEN: Marking it paid
	// THEN: ErrEntryNotFound

	svc := donation.NewCommissionService(seedStore(t))

	_, err := svc.MarkPaid(context.Background(), "Nobody|advisor|2024-06")
	require.Error(t, err)
	assert.ErrorIs(t, err, commission.ErrEntryNotFound)
	assert.True(t, commission.IsNotFound(err))
}

func TestCommissionService_ClearPayment(t *testing.T) {
	// GIVEN: A paid entry
	// WHEN: Clearing its payment record
	// THEN: The next recompute shows it pending again

	ctx := context.Background()
	svc := donation.NewCommissionService(seedStore(t))

	result, err := svc.Compute(ctx, nil)
	require.NoError(t, err)
	entryID := result.Entries[0].ID()

	_, err = svc.MarkPaid(ctx, entryID)
	require.NoError(t, err)
	require.NoError(t, svc.ClearPayment(ctx, entryID))

	result, err = svc.Compute(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, commission.StatusPending, result.Entries[0].Status)
	assert.Nil(t, result.Entries[0].PaymentDate)
}

func TestCommissionService_StalePaymentRecordIgnored(t *testing.T) {
	// GIVEN: A payment record whose entry no longer exists (donation deleted)
	// WHEN: Recomputing
	// THEN: The stale record is simply not surfaced

	ctx := context.Background()
	store := seedStore(t)
	svc := donation.NewCommissionService(store)

	result, err := svc.Compute(ctx, nil)
	require.NoError(t, err)
	entryID := result.Entries[0].ID()
	_, err = svc.MarkPaid(ctx, entryID)
	require.NoError(t, err)

	require.NoError(t, store.DeleteDonation(ctx, "dn-1"))

	result, err = svc.Compute(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Entries)
}
