// Package testutil provides an in-memory stand-in for the hosted Supabase
// project: just enough of the PostgREST and GoTrue surface for the routes
// this service actually calls.
package testutil

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"siteulation/internal/models"
	"siteulation/internal/supabase"
)

// FakeSupabase implements http.Handler. Mutate the exported fields to set
// up fixtures; inspect them afterwards for assertions.
type FakeSupabase struct {
	mu sync.Mutex

	// Identity answered by GET /auth/v1/user when AuthStatus is 0 or 200.
	Identity   *supabase.Identity
	AuthStatus int
	AuthCalls  int
	SeenTokens []string

	Profiles       map[string]*models.Profile
	Carts          map[int64]*models.Cart
	CreditRequests map[int64]*models.CreditRequest

	// ViewRPCs logs row ids passed to increment_cart_views.
	ViewRPCs []string
	FailRPC  bool

	// Requests logs "METHOD /path?query" for query-shape assertions.
	Requests []string

	nextCartID int64
	nextReqID  int64
}

// NewFakeSupabase creates an empty fake.
func NewFakeSupabase() *FakeSupabase {
	return &FakeSupabase{
		Profiles:       make(map[string]*models.Profile),
		Carts:          make(map[int64]*models.Cart),
		CreditRequests: make(map[int64]*models.CreditRequest),
	}
}

// AddCart stores a cart and returns its assigned id.
func (f *FakeSupabase) AddCart(cart models.Cart) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextCartID++
	cart.ID = f.nextCartID
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = time.Now().UTC()
	}
	f.Carts[cart.ID] = &cart
	return cart.ID
}

// AddCreditRequest stores a request and returns its assigned id.
func (f *FakeSupabase) AddCreditRequest(req models.CreditRequest) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextReqID++
	req.ID = f.nextReqID
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	f.CreditRequests[req.ID] = &req
	return req.ID
}

func (f *FakeSupabase) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Requests = append(f.Requests, r.Method+" "+r.URL.String())

	switch {
	case r.URL.Path == "/auth/v1/user":
		f.serveAuthUser(w, r)
	case r.URL.Path == "/auth/v1/token":
		writeJSON(w, http.StatusOK, map[string]string{"access_token": "fake-token", "token_type": "bearer"})
	case r.URL.Path == "/auth/v1/admin/users":
		writeJSON(w, http.StatusOK, map[string]string{"id": "created-user"})
	case r.URL.Path == "/rest/v1/profiles":
		f.serveProfiles(w, r)
	case r.URL.Path == "/rest/v1/carts":
		f.serveCarts(w, r)
	case r.URL.Path == "/rest/v1/credit_requests":
		f.serveCreditRequests(w, r)
	case r.URL.Path == "/rest/v1/rpc/increment_cart_views":
		f.serveViewRPC(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (f *FakeSupabase) serveAuthUser(w http.ResponseWriter, r *http.Request) {
	f.AuthCalls++
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	f.SeenTokens = append(f.SeenTokens, token)

	if f.AuthStatus != 0 && f.AuthStatus != http.StatusOK {
		w.WriteHeader(f.AuthStatus)
		return
	}
	if f.Identity == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, f.Identity)
}

func (f *FakeSupabase) serveProfiles(w http.ResponseWriter, r *http.Request) {
	id := eqParam(r, "id")
	switch r.Method {
	case http.MethodGet:
		rows := []*models.Profile{}
		if p, ok := f.Profiles[id]; ok {
			rows = append(rows, p)
		}
		writeJSON(w, http.StatusOK, rows)
	case http.MethodPost:
		var p models.Profile
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.Profiles[p.ID] = &p
		writeJSON(w, http.StatusCreated, []*models.Profile{&p})
	case http.MethodPatch:
		p, ok := f.Profiles[id]
		if !ok {
			writeJSON(w, http.StatusOK, []*models.Profile{})
			return
		}
		patchInto(r, p)
		writeJSON(w, http.StatusOK, []*models.Profile{p})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *FakeSupabase) serveCarts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		rows := []*models.Cart{}
		id, _ := strconv.ParseInt(eqParam(r, "id"), 10, 64)
		userID := eqParam(r, "user_id")
		listedOnly := eqParam(r, "is_listed") == "true"
		for _, cart := range f.Carts {
			if id != 0 && cart.ID != id {
				continue
			}
			if userID != "" && cart.UserID != userID {
				continue
			}
			if listedOnly && !cart.IsListed {
				continue
			}
			rows = append(rows, cart)
		}
		writeJSON(w, http.StatusOK, rows)
	case http.MethodPost:
		var cart models.Cart
		if err := json.NewDecoder(r.Body).Decode(&cart); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.nextCartID++
		cart.ID = f.nextCartID
		cart.CreatedAt = time.Now().UTC()
		f.Carts[cart.ID] = &cart
		writeJSON(w, http.StatusCreated, []*models.Cart{&cart})
	case http.MethodPatch:
		id, _ := strconv.ParseInt(eqParam(r, "id"), 10, 64)
		cart, ok := f.Carts[id]
		if !ok {
			writeJSON(w, http.StatusOK, []*models.Cart{})
			return
		}
		patchInto(r, cart)
		writeJSON(w, http.StatusOK, []*models.Cart{cart})
	case http.MethodDelete:
		id, _ := strconv.ParseInt(eqParam(r, "id"), 10, 64)
		delete(f.Carts, id)
		writeJSON(w, http.StatusOK, []*models.Cart{})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *FakeSupabase) serveCreditRequests(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		rows := []*models.CreditRequest{}
		id, _ := strconv.ParseInt(eqParam(r, "id"), 10, 64)
		status := eqParam(r, "status")
		for _, req := range f.CreditRequests {
			if id != 0 && req.ID != id {
				continue
			}
			if status != "" && req.Status != status {
				continue
			}
			rows = append(rows, req)
		}
		writeJSON(w, http.StatusOK, rows)
	case http.MethodPost:
		var req models.CreditRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.nextReqID++
		req.ID = f.nextReqID
		req.CreatedAt = time.Now().UTC()
		f.CreditRequests[req.ID] = &req
		writeJSON(w, http.StatusCreated, []*models.CreditRequest{&req})
	case http.MethodPatch:
		id, _ := strconv.ParseInt(eqParam(r, "id"), 10, 64)
		req, ok := f.CreditRequests[id]
		if !ok {
			writeJSON(w, http.StatusOK, []*models.CreditRequest{})
			return
		}
		patchInto(r, req)
		writeJSON(w, http.StatusOK, []*models.CreditRequest{req})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *FakeSupabase) serveViewRPC(w http.ResponseWriter, r *http.Request) {
	if f.FailRPC {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	var args map[string]string
	_ = json.NewDecoder(r.Body).Decode(&args)
	f.ViewRPCs = append(f.ViewRPCs, args["row_id"])
	w.WriteHeader(http.StatusNoContent)
}

// CaptureHeaders returns a handler that records the service headers of the
// first request and answers with an empty row set.
func CaptureHeaders(apiKey, auth, prefer *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*apiKey = r.Header.Get("apikey")
		*auth = r.Header.Get("Authorization")
		*prefer = r.Header.Get("Prefer")
		writeJSON(w, http.StatusOK, []any{})
	})
}

// GeminiStub returns a handler that answers any generateContent call with a
// single candidate carrying the given text.
func GeminiStub(text string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]string{{"text": text}}}},
			},
		})
	})
}

// eqParam extracts X from a PostgREST filter like key=eq.X.
func eqParam(r *http.Request, key string) string {
	return strings.TrimPrefix(r.URL.Query().Get(key), "eq.")
}

// patchInto applies a JSON patch body onto an existing row via a
// marshal/unmarshal round trip.
func patchInto(r *http.Request, row any) {
	var fields map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		return
	}
	data, _ := json.Marshal(row)
	var merged map[string]json.RawMessage
	_ = json.Unmarshal(data, &merged)
	for k, v := range fields {
		merged[k] = v
	}
	data, _ = json.Marshal(merged)
	_ = json.Unmarshal(data, row)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
