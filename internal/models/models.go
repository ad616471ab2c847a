package models

import (
	"encoding/json"
	"time"
)

// User is the enriched session user: the identity row joined with its
// profile flags. This is what the auth middleware puts into c.Locals("user").
type User struct {
	ID              string `json:"id"`
	Email           string `json:"email,omitempty"`
	Username        string `json:"username"`
	Role            string `json:"role"`
	IsAdmin         bool   `json:"is_admin"`
	IsBanned        bool   `json:"is_banned"`
	Credits         int    `json:"credits"`
	LastCreditReset string `json:"last_credit_reset"`
}

// Profile mirrors a row of the profiles table.
type Profile struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	Role            string `json:"role,omitempty"`
	IsBanned        bool   `json:"is_banned"`
	Credits         int    `json:"credits"`
	LastCreditReset string `json:"last_credit_reset"`
}

// Cart is a generated project. Code holds the JSON-encoded files structure.
type Cart struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Prompt    string    `json:"prompt"`
	Model     string    `json:"model"`
	Code      string    `json:"code"`
	Views     int64     `json:"views"`
	IsListed  bool      `json:"is_listed"`
	CreatedAt time.Time `json:"created_at"`
}

// CreditRequest lifecycle: pending -> approved | denied (terminal).
type CreditRequest struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Amount    int       `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestDenied   = "denied"
)

// ProjectFile is a single file of a generated project.
type ProjectFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// ProjectFiles is the canonical shape every stored cart code parses as.
type ProjectFiles struct {
	Files []ProjectFile `json:"files"`
}

// DecodeFiles parses a stored code payload into the files structure.
func DecodeFiles(code string) (ProjectFiles, error) {
	var pf ProjectFiles
	if err := json.Unmarshal([]byte(code), &pf); err != nil {
		return ProjectFiles{}, err
	}
	return pf, nil
}
