package api

import (
	"sync"
	"time"
)

// Demo fixtures let the frontend be exercised without a backend. Marks made
// during the process lifetime are remembered so the admin views stay
// coherent; nothing is persisted.

var demoMu sync.Mutex

var demoAccounts = []Identity{
	{ID: "d1", Name: "Asha Pillai", Email: "asha@example.com", Role: RoleAdmin, Department: "Operations"},
	{ID: "d2", Name: "John Doe", Email: "john@example.com", Role: RoleUser, Department: "IT"},
	{ID: "d3", Name: "Jane Smith", Email: "jane@example.com", Role: RoleUser, Department: "HR"},
}

var demoRecords []AttendanceRecord

var demoSeq int

func demoLogin(email string) *LoginResponse {
	for _, u := range demoUsers() {
		if u.Email == email {
			return &LoginResponse{Token: "demo-token", Identity: u}
		}
	}
	id := demoIdentity("Demo Admin", email, RoleAdmin)
	return &LoginResponse{Token: "demo-token", Identity: id}
}

func demoIdentity(name, email, role string) Identity {
	demoMu.Lock()
	defer demoMu.Unlock()
	demoSeq++
	u := Identity{
		ID:        ID("demo-" + time.Now().UTC().Format("150405") + string(rune('a'+demoSeq%26))),
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	demoAccounts = append(demoAccounts, u)
	return u
}

func demoUsers() []Identity {
	demoMu.Lock()
	defer demoMu.Unlock()
	out := make([]Identity, len(demoAccounts))
	copy(out, demoAccounts)
	return out
}

func demoUser(id ID) *Identity {
	for _, u := range demoUsers() {
		if u.ID == id {
			v := u
			return &v
		}
	}
	return nil
}

func applyDemoUpdate(u *Identity, req UserUpdate) {
	demoMu.Lock()
	defer demoMu.Unlock()
	for i := range demoAccounts {
		if demoAccounts[i].ID != u.ID {
			continue
		}
		if req.Name != "" {
			demoAccounts[i].Name = req.Name
		}
		if req.Email != "" {
			demoAccounts[i].Email = req.Email
		}
		if req.Phone != "" {
			demoAccounts[i].Phone = req.Phone
		}
		if req.Department != "" {
			demoAccounts[i].Department = req.Department
		}
		if req.Address != "" {
			demoAccounts[i].Address = req.Address
		}
		*u = demoAccounts[i]
	}
}

func demoMark(req MarkRequest) *AttendanceRecord {
	demoMu.Lock()
	defer demoMu.Unlock()
	for i := range demoRecords {
		if demoRecords[i].UserID == req.UserID && demoRecords[i].Date == req.Date {
			demoRecords[i].Status = req.Status
			rec := demoRecords[i]
			return &rec
		}
	}
	demoSeq++
	rec := AttendanceRecord{
		ID:        ID("demo-rec-" + string(rune('a'+demoSeq%26))),
		UserID:    req.UserID,
		Date:      req.Date,
		Status:    req.Status,
		CreatedAt: time.Now().UTC(),
	}
	demoRecords = append(demoRecords, rec)
	return &rec
}

func demoUserAttendance(userID ID) []AttendanceRecord {
	demoMu.Lock()
	defer demoMu.Unlock()
	var out []AttendanceRecord
	for _, r := range demoRecords {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out
}

func demoAttendanceByDate(date string) []AttendanceRecord {
	demoMu.Lock()
	defer demoMu.Unlock()
	var out []AttendanceRecord
	for _, r := range demoRecords {
		if date == "" || r.Date == date {
			out = append(out, r)
		}
	}
	return out
}

func demoStats(userID ID) *Stats {
	var s Stats
	for _, r := range demoUserAttendance(userID) {
		s.Total++
		switch r.Status {
		case StatusPresent:
			s.Present++
		case StatusAbsent:
			s.Absent++
		case StatusHalfDay:
			s.HalfDay++
		case StatusLate:
			s.Late++
		}
	}
	if s.Total > 0 {
		s.Percentage = float64(s.Present) / float64(s.Total) * 100
	}
	return &s
}
