package api

import (
	"bytes"
	"encoding/json"
	"time"
)

// Roles assigned by the backend. The client never changes a role locally.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Attendance statuses accepted by the backend.
const (
	StatusPresent = "PRESENT"
	StatusAbsent  = "ABSENT"
	StatusHalfDay = "HALF_DAY"
	StatusLate    = "LATE"
)

// ValidStatus reports whether s is one of the backend's attendance statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusHalfDay, StatusLate:
		return true
	}
	return false
}

// ID is an opaque backend identifier. Deployments differ on whether ids are
// serialized as JSON strings or numbers, so decoding accepts both.
type ID string

// UnmarshalJSON accepts string or numeric ids.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON always emits a string.
func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(id))
}

// Identity is the backend's view of a user account, cached client-side as
// the logged-in principal.
type Identity struct {
	ID         ID        `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	Department string    `json:"department,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Address    string    `json:"address,omitempty"`
	CreatedAt  time.Time `json:"createdAt,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt,omitempty"`
}

// LoginResponse is the flat login payload: a bearer token plus the identity
// fields it authorizes.
type LoginResponse struct {
	Token string `json:"token"`
	Identity
}

// RegisterRequest creates an account through the public signup flow.
type RegisterRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Phone      string `json:"phone,omitempty"`
	Department string `json:"department,omitempty"`
	Role       string `json:"role"`
}

// NewUser creates an account through the admin console.
type NewUser struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Phone      string `json:"phone,omitempty"`
	Department string `json:"department,omitempty"`
	Role       string `json:"role"`
}

// UserUpdate carries the mutable profile fields for PUT /users/:id.
// Empty fields are omitted so the backend keeps its current values.
type UserUpdate struct {
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Department string `json:"department,omitempty"`
	Address    string `json:"address,omitempty"`
}

// AttendanceRecord is a read-only projection of one user-day.
type AttendanceRecord struct {
	ID        ID        `json:"id"`
	User      *Identity `json:"user,omitempty"`
	UserID    ID        `json:"userId,omitempty"`
	Date      string    `json:"date"`
	Status    string    `json:"status"`
	MarkedBy  *Identity `json:"markedBy,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// ForUser reports whether the record belongs to the given user id, whichever
// of the two reference shapes the backend used.
func (r AttendanceRecord) ForUser(id ID) bool {
	if r.UserID != "" {
		return r.UserID == id
	}
	return r.User != nil && r.User.ID == id
}

// MarkRequest marks one user on one date.
type MarkRequest struct {
	UserID ID     `json:"userId"`
	Status string `json:"status"`
	Date   string `json:"date"`
}

// BulkMarkRequest marks several users in a single call.
type BulkMarkRequest struct {
	Date    string        `json:"date"`
	Records []MarkRequest `json:"records"`
}

// Stats is the backend's per-user attendance summary.
type Stats struct {
	Present    int     `json:"present"`
	Absent     int     `json:"absent"`
	HalfDay    int     `json:"halfDay"`
	Late       int     `json:"late"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}
