package webui

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"attenddesk/internal/api"
	"attenddesk/internal/gate"
)

const dateLayout = "2006-01-02"

// recordDate parses the backend's date field, which may carry a time part.
func recordDate(s string) (time.Time, bool) {
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	return t, err == nil
}

func (h *Handler) dashboard(c *gin.Context) {
	identity, _ := gate.Identity(c)
	data := gin.H{"Title": "Dashboard", "Identity": identity}

	if claims, ok := h.store.Claims(); ok && !claims.ExpiresAt.IsZero() {
		data["SessionExpires"] = claims.ExpiresAt.Local().Format("Jan 2 15:04")
	}

	stats, err := h.api.UserStats(c.Request.Context(), identity.ID)
	if err != nil {
		if h.expired(c, err) {
			return
		}
		data["Error"] = api.Reason(err)
		h.render(c, http.StatusOK, "dashboard", data)
		return
	}
	data["Stats"] = stats

	today := time.Now().Format(dateLayout)
	records, err := h.api.UserAttendance(c.Request.Context(), identity.ID)
	if err == nil {
		for _, r := range records {
			if d, ok := recordDate(r.Date); ok && d.Format(dateLayout) == today {
				data["Today"] = r
				break
			}
		}
	}

	h.render(c, http.StatusOK, "dashboard", data)
}

func (h *Handler) showProfile(c *gin.Context) {
	identity, _ := gate.Identity(c)
	h.render(c, http.StatusOK, "profile", gin.H{"Title": "My Profile", "Identity": identity})
}

type profileForm struct {
	Name       string `form:"name" binding:"required"`
	Email      string `form:"email" binding:"required,email"`
	Phone      string `form:"phone"`
	Department string `form:"department"`
	Address    string `form:"address"`
}

func (h *Handler) handleProfile(c *gin.Context) {
	identity, _ := gate.Identity(c)

	var form profileForm
	if err := c.ShouldBind(&form); err != nil {
		h.render(c, http.StatusBadRequest, "profile", gin.H{
			"Title":    "My Profile",
			"Identity": identity,
			"Error":    "Name and a valid email are required.",
		})
		return
	}

	patch := api.UserUpdate{
		Name:       form.Name,
		Email:      form.Email,
		Phone:      form.Phone,
		Department: form.Department,
		Address:    form.Address,
	}
	if _, err := h.api.UpdateUser(c.Request.Context(), identity.ID, patch); err != nil {
		if h.expired(c, err) {
			return
		}
		h.render(c, http.StatusOK, "profile", gin.H{
			"Title":    "My Profile",
			"Identity": identity,
			"Error":    api.Reason(err),
		})
		return
	}

	// Keep the cached display data in sync without a re-fetch.
	if err := h.store.UpdateIdentity(c.Request.Context(), patch); err != nil {
		h.render(c, http.StatusOK, "profile", gin.H{
			"Title":    "My Profile",
			"Identity": identity,
			"Error":    "Saved, but the local session could not be refreshed.",
		})
		return
	}

	updated, _ := h.store.Current()
	h.render(c, http.StatusOK, "profile", gin.H{
		"Title":    "My Profile",
		"Identity": updated,
		"Success":  "Profile updated successfully!",
	})
}

// monthStats is the derived summary shown above the history table, computed
// over the filtered month exactly as the original view did.
type monthStats struct {
	Present    int
	Absent     int
	Total      int
	Percentage string
}

func (h *Handler) myAttendance(c *gin.Context) {
	identity, _ := gate.Identity(c)
	now := time.Now()

	month := now.Month()
	if v, err := strconv.Atoi(c.Query("month")); err == nil && v >= 1 && v <= 12 {
		month = time.Month(v)
	}
	year := now.Year()
	if v, err := strconv.Atoi(c.Query("year")); err == nil && v > 2000 {
		year = v
	}

	data := gin.H{
		"Title":    "My Attendance",
		"Identity": identity,
		"Month":    int(month),
		"Year":     year,
		"Months":   monthOptions(),
		"Years":    yearOptions(now.Year()),
	}

	records, err := h.api.UserAttendance(c.Request.Context(), identity.ID)
	if err != nil {
		if h.expired(c, err) {
			return
		}
		data["Error"] = api.Reason(err)
		h.render(c, http.StatusOK, "attendance", data)
		return
	}

	var filtered []api.AttendanceRecord
	for _, r := range records {
		if d, ok := recordDate(r.Date); ok && d.Month() == month && d.Year() == year {
			filtered = append(filtered, r)
		}
	}

	stats := monthStats{Total: len(filtered), Percentage: "0"}
	for _, r := range filtered {
		switch r.Status {
		case api.StatusPresent:
			stats.Present++
		case api.StatusAbsent:
			stats.Absent++
		}
	}
	if stats.Total > 0 {
		stats.Percentage = strconv.FormatFloat(float64(stats.Present)/float64(stats.Total)*100, 'f', 1, 64)
	}

	data["Records"] = filtered
	data["Stats"] = stats
	h.render(c, http.StatusOK, "attendance", data)
}

func monthOptions() []gin.H {
	out := make([]gin.H, 0, 12)
	for m := time.January; m <= time.December; m++ {
		out = append(out, gin.H{"Value": int(m), "Name": m.String()})
	}
	return out
}

func yearOptions(current int) []int {
	return []int{current - 2, current - 1, current}
}
