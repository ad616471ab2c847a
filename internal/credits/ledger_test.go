package credits

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"siteulation/internal/models"
	"siteulation/internal/supabase"
	"siteulation/internal/testutil"
)

const testToday = "2026-08-28"

func newLedgerFixture(t *testing.T, fake *testutil.FakeSupabase) *Ledger {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	db := supabase.New(srv.URL, "service-key", "anon-key")
	return NewLedger(db, func() string { return testToday })
}

func TestEnsureDailyReset(t *testing.T) {
	tests := []struct {
		name        string
		credits     int
		lastReset   string
		wantCredits int
	}{
		{"tops up below allowance", 1, "2026-08-27", DailyAllowance},
		{"preserves surplus", 20, "2026-08-27", 20},
		{"zero balance", 0, "2026-08-01", DailyAllowance},
		{"exactly at allowance", DailyAllowance, "2026-08-27", DailyAllowance},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fake := testutil.NewFakeSupabase()
			fake.Profiles["u1"] = &models.Profile{ID: "u1", Credits: tc.credits, LastCreditReset: tc.lastReset}
			ledger := newLedgerFixture(t, fake)

			p := fake.Profiles["u1"]
			require.NoError(t, ledger.EnsureDailyReset(context.Background(), p))

			assert.Equal(t, tc.wantCredits, p.Credits)
			assert.Equal(t, testToday, p.LastCreditReset, "date is stamped even without a top-up")
		})
	}
}

func TestEnsureDailyResetSameDayNoWrite(t *testing.T) {
	fake := testutil.NewFakeSupabase()
	fake.Profiles["u1"] = &models.Profile{ID: "u1", Credits: 2, LastCreditReset: testToday}
	ledger := newLedgerFixture(t, fake)

	p := fake.Profiles["u1"]
	require.NoError(t, ledger.EnsureDailyReset(context.Background(), p))

	assert.Equal(t, 2, p.Credits, "same-day check must not touch the balance")
	assert.Empty(t, fake.Requests, "same-day check must not hit the store")
}

func TestDebit(t *testing.T) {
	fake := testutil.NewFakeSupabase()
	fake.Profiles["u1"] = &models.Profile{ID: "u1", Credits: 5}
	ledger := newLedgerFixture(t, fake)

	user := &models.User{ID: "u1", Credits: 5}
	require.NoError(t, ledger.Debit(context.Background(), user, 2))

	assert.Equal(t, 3, user.Credits)
	assert.Equal(t, 3, fake.Profiles["u1"].Credits, "debit must be persisted")
}

func TestDebitZeroCostIsNoOp(t *testing.T) {
	fake := testutil.NewFakeSupabase()
	ledger := newLedgerFixture(t, fake)

	user := &models.User{ID: "u1", Credits: 0}
	require.NoError(t, ledger.Debit(context.Background(), user, 0))
	assert.Empty(t, fake.Requests, "free generations never touch the store")
}

func TestDebitInsufficientBalance(t *testing.T) {
	fake := testutil.NewFakeSupabase()
	fake.Profiles["u1"] = &models.Profile{ID: "u1", Credits: 1}
	ledger := newLedgerFixture(t, fake)

	user := &models.User{ID: "u1", Credits: 1}
	err := ledger.Debit(context.Background(), user, 2)
	require.ErrorIs(t, err, ErrInsufficientCredits)

	assert.Equal(t, 1, user.Credits, "failed debit must leave the balance untouched")
	assert.Equal(t, 1, fake.Profiles["u1"].Credits)
	assert.Empty(t, fake.Requests, "the balance check happens before any write")
}

func TestCreditAddsToBalance(t *testing.T) {
	fake := testutil.NewFakeSupabase()
	fake.Profiles["u1"] = &models.Profile{ID: "u1", Credits: 3}
	ledger := newLedgerFixture(t, fake)

	require.NoError(t, ledger.Credit(context.Background(), "u1", 10))
	assert.Equal(t, 13, fake.Profiles["u1"].Credits)
}

func TestRequestCredits(t *testing.T) {
	fake := testutil.NewFakeSupabase()
	ledger := newLedgerFixture(t, fake)

	user := &models.User{ID: "u1", Username: "alice"}
	req, err := ledger.RequestCredits(context.Background(), user, 25)
	require.NoError(t, err)

	assert.Equal(t, "u1", req.UserID)
	assert.Equal(t, 25, req.Amount)
	assert.Equal(t, models.RequestPending, req.Status)
}

func TestApproveCreditsRequesterAndCloses(t *testing.T) {
	fake := testutil.NewFakeSupabase()
	fake.Profiles["u1"] = &models.Profile{ID: "u1", Credits: 2}
	id := fake.AddCreditRequest(models.CreditRequest{
		UserID: "u1", Username: "alice", Amount: 30, Status: models.RequestPending,
	})
	ledger := newLedgerFixture(t, fake)

	require.NoError(t, ledger.Approve(context.Background(), id))

	assert.Equal(t, 32, fake.Profiles["u1"].Credits, "exactly the requested amount is credited")
	assert.Equal(t, models.RequestApproved, fake.CreditRequests[id].Status)
}

func TestApproveIsNotRepeatable(t *testing.T) {
	fake := testutil.NewFakeSupabase()
	fake.Profiles["u1"] = &models.Profile{ID: "u1", Credits: 2}
	id := fake.AddCreditRequest(models.CreditRequest{
		UserID: "u1", Amount: 30, Status: models.RequestApproved,
	})
	ledger := newLedgerFixture(t, fake)

	err := ledger.Approve(context.Background(), id)
	require.ErrorIs(t, err, ErrRequestProcessed)
	assert.Equal(t, 2, fake.Profiles["u1"].Credits, "no double credit")
}

func TestDenyClosesWithoutCrediting(t *testing.T) {
	fake := testutil.NewFakeSupabase()
	fake.Profiles["u1"] = &models.Profile{ID: "u1", Credits: 2}
	id := fake.AddCreditRequest(models.CreditRequest{
		UserID: "u1", Amount: 30, Status: models.RequestPending,
	})
	ledger := newLedgerFixture(t, fake)

	require.NoError(t, ledger.Deny(context.Background(), id))

	assert.Equal(t, 2, fake.Profiles["u1"].Credits)
	assert.Equal(t, models.RequestDenied, fake.CreditRequests[id].Status)
}

func TestDecisionOnUnknownRequest(t *testing.T) {
	fake := testutil.NewFakeSupabase()
	ledger := newLedgerFixture(t, fake)

	err := ledger.Approve(context.Background(), 999)
	require.ErrorIs(t, err, supabase.ErrNotFound)
}
