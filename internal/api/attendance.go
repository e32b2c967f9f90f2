package api

import (
	"context"
	"net/http"
	"net/url"
)

// Mark records one user's status for one date.
func (c *Client) Mark(ctx context.Context, req MarkRequest) (*AttendanceRecord, error) {
	if c.Demo {
		return demoMark(req), nil
	}
	var out AttendanceRecord
	if err := c.do(ctx, http.MethodPost, "/attendance/mark", "/attendance/mark", req, &out, "failed to mark attendance"); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkBulk records several users in a single backend call.
func (c *Client) MarkBulk(ctx context.Context, req BulkMarkRequest) error {
	if c.Demo {
		for _, r := range req.Records {
			demoMark(r)
		}
		return nil
	}
	return c.do(ctx, http.MethodPost, "/attendance/mark/bulk", "/attendance/mark/bulk", req, nil, "failed to mark bulk attendance")
}

// UserAttendance returns the full history for one user.
func (c *Client) UserAttendance(ctx context.Context, userID ID) ([]AttendanceRecord, error) {
	if c.Demo {
		return demoUserAttendance(userID), nil
	}
	var out []AttendanceRecord
	if err := c.do(ctx, http.MethodGet, "/attendance/user/:id", "/attendance/user/"+url.PathEscape(string(userID)), nil, &out, "failed to fetch attendance"); err != nil {
		return nil, err
	}
	return out, nil
}

// UserStats returns the backend's summary for one user.
func (c *Client) UserStats(ctx context.Context, userID ID) (*Stats, error) {
	if c.Demo {
		return demoStats(userID), nil
	}
	var out Stats
	if err := c.do(ctx, http.MethodGet, "/attendance/user/:id/stats", "/attendance/user/"+url.PathEscape(string(userID))+"/stats", nil, &out, "failed to fetch attendance stats"); err != nil {
		return nil, err
	}
	return &out, nil
}

// AttendanceByDate returns every record for one date (YYYY-MM-DD).
func (c *Client) AttendanceByDate(ctx context.Context, date string) ([]AttendanceRecord, error) {
	if c.Demo {
		return demoAttendanceByDate(date), nil
	}
	var out []AttendanceRecord
	if err := c.do(ctx, http.MethodGet, "/attendance/date/:date", "/attendance/date/"+url.PathEscape(date), nil, &out, "failed to fetch attendance by date"); err != nil {
		return nil, err
	}
	return out, nil
}

// AllAttendance returns every record the caller may see.
func (c *Client) AllAttendance(ctx context.Context) ([]AttendanceRecord, error) {
	if c.Demo {
		return demoAttendanceByDate(""), nil
	}
	var out []AttendanceRecord
	if err := c.do(ctx, http.MethodGet, "/attendance/all", "/attendance/all", nil, &out, "failed to fetch all attendance"); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateRecord changes the status of an existing record.
func (c *Client) UpdateRecord(ctx context.Context, id ID, status string) (*AttendanceRecord, error) {
	if c.Demo {
		return &AttendanceRecord{ID: id, Status: status}, nil
	}
	body := map[string]string{"status": status}
	var out AttendanceRecord
	if err := c.do(ctx, http.MethodPut, "/attendance/:id", "/attendance/"+url.PathEscape(string(id)), body, &out, "failed to update attendance"); err != nil {
		return nil, err
	}
	return &out, nil
}
