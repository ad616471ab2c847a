package supabase_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"siteulation/internal/supabase"
	"siteulation/internal/testutil"
)

func TestGetUserStatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"unauthorized is no session", http.StatusUnauthorized, supabase.ErrInvalidToken},
		{"forbidden is no session", http.StatusForbidden, supabase.ErrInvalidToken},
		{"rate limit stays distinct", http.StatusTooManyRequests, supabase.ErrRateLimited},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fake := testutil.NewFakeSupabase()
			fake.AuthStatus = tc.status
			db := newClientFixture(t, fake)

			_, err := db.GetUser(context.Background(), "tok")
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestGetUserUpstreamFailureIsAPIError(t *testing.T) {
	fake := testutil.NewFakeSupabase()
	fake.AuthStatus = http.StatusBadGateway
	db := newClientFixture(t, fake)

	_, err := db.GetUser(context.Background(), "tok")
	require.Error(t, err)

	var apiErr *supabase.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
}

func TestIdentityUsernameFallbacks(t *testing.T) {
	id := supabase.Identity{UserMetadata: map[string]any{"username": "alice"}}
	assert.Equal(t, "alice", id.Username())

	id = supabase.Identity{Email: "bob@example.com"}
	assert.Equal(t, "bob", id.Username(), "email local part when metadata is absent")

	id = supabase.Identity{}
	assert.Equal(t, "Anonymous", id.Username())
}
