// Package auth turns a raw bearer token into an enriched session user:
// identity from the hosted auth service, flags and balance from the
// profiles table, with a TTL cache in front of both.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"siteulation/internal/credits"
	"siteulation/internal/models"
	"siteulation/internal/supabase"
)

// Verifier resolves bearer credentials. All dependencies are injected so
// cache TTL and upstream behavior are testable.
type Verifier struct {
	db            *supabase.Client
	cache         Cache
	ledger        *credits.Ledger
	jwtSecret     string
	adminUsername string
}

// NewVerifier creates a verifier. jwtSecret is optional; when set, tokens
// are checked locally first and the identity endpoint is only a fallback.
func NewVerifier(db *supabase.Client, cache Cache, ledger *credits.Ledger, jwtSecret, adminUsername string) *Verifier {
	return &Verifier{
		db:            db,
		cache:         cache,
		ledger:        ledger,
		jwtSecret:     jwtSecret,
		adminUsername: adminUsername,
	}
}

// Verify resolves an Authorization header value to a session user.
// Outcomes: (user, nil) for a valid session; (nil, nil) for an absent or
// invalid credential; (nil, supabase.ErrRateLimited) when the identity
// service throttles us; (nil, err) for other upstream failures.
func (v *Verifier) Verify(ctx context.Context, authHeader string) (*models.User, error) {
	if authHeader == "" {
		return nil, nil
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return nil, nil
	}

	if user, ok := v.cache.Get(token); ok {
		return user, nil
	}

	identity, err := v.resolveIdentity(ctx, token)
	if err != nil {
		if errors.Is(err, supabase.ErrInvalidToken) {
			return nil, nil
		}
		return nil, err
	}

	profile, err := v.loadProfile(ctx, identity)
	if err != nil {
		return nil, err
	}

	if err := v.ledger.EnsureDailyReset(ctx, profile); err != nil {
		return nil, err
	}

	user := &models.User{
		ID:              identity.ID,
		Email:           identity.Email,
		Username:        profile.Username,
		Role:            profile.Role,
		IsBanned:        profile.IsBanned,
		Credits:         profile.Credits,
		LastCreditReset: profile.LastCreditReset,
	}
	user.IsAdmin = profile.Role == "admin" ||
		(v.adminUsername != "" && profile.Username == v.adminUsername)

	v.cache.Set(token, user)
	return user, nil
}

// Invalidate drops a token from the cache (e.g. after a ban).
func (v *Verifier) Invalidate(token string) {
	v.cache.Delete(token)
}

func (v *Verifier) resolveIdentity(ctx context.Context, token string) (*supabase.Identity, error) {
	if v.jwtSecret != "" {
		if id, err := v.verifyLocal(token); err == nil {
			return id, nil
		}
		// Fall through to the identity endpoint; it is the authority.
	}
	return v.db.GetUser(ctx, token)
}

// verifyLocal checks the token signature against the project JWT secret
// and rebuilds the identity from the claims, saving a network round trip.
func (v *Verifier) verifyLocal(token string) (*supabase.Identity, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(v.jwtSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("jwt parse: %w", err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("jwt invalid")
	}

	id := &supabase.Identity{
		ID:    stringClaim(claims, "sub"),
		Email: stringClaim(claims, "email"),
		Role:  stringClaim(claims, "role"),
	}
	if meta, ok := claims["user_metadata"].(map[string]any); ok {
		id.UserMetadata = meta
	}
	if id.ID == "" {
		return nil, fmt.Errorf("jwt missing sub claim")
	}
	return id, nil
}

func (v *Verifier) loadProfile(ctx context.Context, identity *supabase.Identity) (*models.Profile, error) {
	profile, err := v.db.GetProfile(ctx, identity.ID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, supabase.ErrNotFound) {
		return nil, err
	}

	// First sighting of this user: seed a default profile row.
	profile = &models.Profile{
		ID:              identity.ID,
		Username:        identity.Username(),
		Role:            "user",
		Credits:         credits.DailyAllowance,
		LastCreditReset: v.ledger.Today(),
	}
	if err := v.db.InsertProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("seed profile: %w", err)
	}
	return profile, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if s, ok := claims[key].(string); ok {
		return s
	}
	return ""
}
