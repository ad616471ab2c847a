package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"siteulation/internal/credits"
	"siteulation/internal/models"
	"siteulation/internal/supabase"
	"siteulation/internal/testutil"
)

const testToday = "2026-08-28"

func newVerifierFixture(t *testing.T, fake *testutil.FakeSupabase, jwtSecret, adminUsername string) *Verifier {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	db := supabase.New(srv.URL, "service-key", "anon-key")
	ledger := credits.NewLedger(db, func() string { return testToday })
	cache := NewMemoryCache(60*time.Second, nil)
	return NewVerifier(db, cache, ledger, jwtSecret, adminUsername)
}

func TestVerifyValidSession(t *testing.T) {
	fake := testutil.NewFakeSupabase()
	fake.Identity = &supabase.Identity{ID: "u1", Email: "alice@example.com",
		UserMetadata: map[string]any{"username": "alice"}}
	fake.Profiles["u1"] = &models.Profile{
		ID: "u1", Username: "alice", Role: "user",
		Credits: 3, LastCreditReset: testToday,
	}

	v := newVerifierFixture(t, fake, "", "")
	user, err := v.Verify(context.Background(), "Bearer good-token")
	require.NoError(t, err)
	require.NotNil(t, user)

	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, 3, user.Credits)
	assert.False(t, user.IsAdmin)
	assert.False(t, user.IsBanned)
}

func TestVerifyAbsentOrInvalidCredential(t *testing.T) {
	fake := testutil.NewFakeSupabase()
	fake.AuthStatus = http.StatusUnauthorized
	v := newVerifierFixture(t, fake, "", "")

	user, err := v.Verify(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, user, "missing header is not an error")

	user, err = v.Verify(context.Background(), "Bearer expired")
	require.NoError(t, err)
	assert.Nil(t, user, "invalid token is not an error")
}

func TestVerifyRateLimitedPropagatesDistinctly(t *testing.T) {
	fake := testutil.NewFakeSupabase()
	fake.AuthStatus = http.StatusTooManyRequests
	v := newVerifierFixture(t, fake, "", "")

	user, err := v.Verify(context.Background(), "Bearer tok")
	assert.Nil(t, user)
	require.ErrorIs(t, err, supabase.ErrRateLimited)
}

func TestVerifyCachesWithinTTL(t *testing.T) {
	fake := testutil.NewFakeSupabase()
	fake.Identity = &supabase.Identity{ID: "u1", UserMetadata: map[string]any{"username": "alice"}}
	fake.Profiles["u1"] = &models.Profile{ID: "u1", Username: "alice", Credits: 5, LastCreditReset: testToday}

	v := newVerifierFixture(t, fake, "", "")
	for i := 0; i < 3; i++ {
		user, err := v.Verify(context.Background(), "Bearer tok")
		require.NoError(t, err)
		require.NotNil(t, user)
	}
	assert.Equal(t, 1, fake.AuthCalls, "cached verifications must not hit the identity endpoint")
}

func TestVerifyAppliesDailyReset(t *testing.T) {
	fake := testutil.NewFakeSupabase()
	fake.Identity = &supabase.Identity{ID: "u1", UserMetadata: map[string]any{"username": "alice"}}
	fake.Profiles["u1"] = &models.Profile{ID: "u1", Username: "alice", Credits: 1, LastCreditReset: "2026-08-27"}

	v := newVerifierFixture(t, fake, "", "")
	user, err := v.Verify(context.Background(), "Bearer tok")
	require.NoError(t, err)

	assert.Equal(t, credits.DailyAllowance, user.Credits)
	assert.Equal(t, testToday, user.LastCreditReset)
	assert.Equal(t, credits.DailyAllowance, fake.Profiles["u1"].Credits, "reset must be persisted")
}

func TestVerifyPreservesSurplusOnReset(t *testing.T) {
	fake := testutil.NewFakeSupabase()
	fake.Identity = &supabase.Identity{ID: "u1", UserMetadata: map[string]any{"username": "alice"}}
	fake.Profiles["u1"] = &models.Profile{ID: "u1", Username: "alice", Credits: 20, LastCreditReset: "2026-08-27"}

	v := newVerifierFixture(t, fake, "", "")
	user, err := v.Verify(context.Background(), "Bearer tok")
	require.NoError(t, err)

	assert.Equal(t, 20, user.Credits, "surplus above the allowance is never clawed back")
	assert.Equal(t, testToday, user.LastCreditReset, "date is stamped even without a top-up")
}

func TestVerifySeedsMissingProfile(t *testing.T) {
	fake := testutil.NewFakeSupabase()
	fake.Identity = &supabase.Identity{ID: "new-user", UserMetadata: map[string]any{"username": "bob"}}

	v := newVerifierFixture(t, fake, "", "")
	user, err := v.Verify(context.Background(), "Bearer tok")
	require.NoError(t, err)
	require.NotNil(t, user)

	assert.Equal(t, "bob", user.Username)
	assert.Equal(t, credits.DailyAllowance, user.Credits)
	require.Contains(t, fake.Profiles, "new-user")
}

func TestVerifyAdminFlag(t *testing.T) {
	t.Run("via role column", func(t *testing.T) {
		fake := testutil.NewFakeSupabase()
		fake.Identity = &supabase.Identity{ID: "u1", UserMetadata: map[string]any{"username": "alice"}}
		fake.Profiles["u1"] = &models.Profile{ID: "u1", Username: "alice", Role: "admin", Credits: 5, LastCreditReset: testToday}

		v := newVerifierFixture(t, fake, "", "")
		user, err := v.Verify(context.Background(), "Bearer tok")
		require.NoError(t, err)
		assert.True(t, user.IsAdmin)
	})

	t.Run("via bootstrap username", func(t *testing.T) {
		fake := testutil.NewFakeSupabase()
		fake.Identity = &supabase.Identity{ID: "u1", UserMetadata: map[string]any{"username": "root"}}
		fake.Profiles["u1"] = &models.Profile{ID: "u1", Username: "root", Role: "user", Credits: 5, LastCreditReset: testToday}

		v := newVerifierFixture(t, fake, "", "root")
		user, err := v.Verify(context.Background(), "Bearer tok")
		require.NoError(t, err)
		assert.True(t, user.IsAdmin)
	})
}

func TestVerifyLocalJWTSkipsIdentityEndpoint(t *testing.T) {
	secret := "project-jwt-secret"
	claims := jwt.MapClaims{
		"sub":           "u1",
		"email":         "alice@example.com",
		"role":          "authenticated",
		"user_metadata": map[string]any{"username": "alice"},
		"exp":           time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	fake := testutil.NewFakeSupabase()
	fake.Profiles["u1"] = &models.Profile{ID: "u1", Username: "alice", Credits: 5, LastCreditReset: testToday}

	v := newVerifierFixture(t, fake, secret, "")
	user, err := v.Verify(context.Background(), "Bearer "+token)
	require.NoError(t, err)
	require.NotNil(t, user)

	assert.Equal(t, "u1", user.ID)
	assert.Zero(t, fake.AuthCalls, "a locally verified token must not round-trip to GoTrue")
}

func TestVerifyStripsSchemePrefix(t *testing.T) {
	fake := testutil.NewFakeSupabase()
	fake.Identity = &supabase.Identity{ID: "u1", UserMetadata: map[string]any{"username": "alice"}}
	fake.Profiles["u1"] = &models.Profile{ID: "u1", Username: "alice", Credits: 5, LastCreditReset: testToday}

	v := newVerifierFixture(t, fake, "", "")
	_, err := v.Verify(context.Background(), "Bearer raw-token")
	require.NoError(t, err)
	require.Len(t, fake.SeenTokens, 1)
	assert.Equal(t, "raw-token", fake.SeenTokens[0])
	assert.False(t, strings.HasPrefix(fake.SeenTokens[0], "Bearer"))
}

// Guard against the fixture drifting from the real wire shape.
func TestFakeSupabaseProfileRoundTrip(t *testing.T) {
	p := &models.Profile{ID: "u1", Username: "alice", Credits: 5, LastCreditReset: testToday}
	data, err := json.Marshal([]*models.Profile{p})
	require.NoError(t, err)

	var decoded []models.Profile
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, *p, decoded[0])
}
