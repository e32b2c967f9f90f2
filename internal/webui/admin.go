package webui

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"attenddesk/internal/api"
	"attenddesk/internal/marker"
)

func (h *Handler) adminDashboard(c *gin.Context) {
	today := time.Now().Format(dateLayout)
	data := gin.H{"Title": "Admin Dashboard", "Date": today}

	users, err := h.api.ListUsers(c.Request.Context())
	if err != nil {
		if h.expired(c, err) {
			return
		}
		data["Error"] = api.Reason(err)
		h.render(c, http.StatusOK, "admin_dashboard", data)
		return
	}

	admins := 0
	for _, u := range users {
		if u.Role == api.RoleAdmin {
			admins++
		}
	}
	data["TotalUsers"] = len(users)
	data["Admins"] = admins
	data["Employees"] = len(users) - admins

	if records, err := h.api.AttendanceByDate(c.Request.Context(), today); err == nil {
		present := 0
		for _, r := range records {
			if r.Status == api.StatusPresent {
				present++
			}
		}
		data["MarkedToday"] = len(records)
		data["PresentToday"] = present
	}

	h.render(c, http.StatusOK, "admin_dashboard", data)
}

func (h *Handler) adminUsers(c *gin.Context) {
	data := gin.H{"Title": "Users"}
	if msg := c.Query("msg"); msg != "" {
		data["Success"] = msg
	}
	if msg := c.Query("err"); msg != "" {
		data["Error"] = msg
	}

	users, err := h.api.ListUsers(c.Request.Context())
	if err != nil {
		if h.expired(c, err) {
			return
		}
		data["Error"] = api.Reason(err)
	}
	data["Users"] = users
	h.render(c, http.StatusOK, "admin_users", data)
}

func (h *Handler) deleteUser(c *gin.Context) {
	id := api.ID(c.Param("id"))
	if err := h.api.DeleteUser(c.Request.Context(), id); err != nil {
		if h.expired(c, err) {
			return
		}
		c.Redirect(http.StatusSeeOther, "/admin/users?err="+url.QueryEscape(api.Reason(err)))
		return
	}
	c.Redirect(http.StatusSeeOther, "/admin/users?msg="+url.QueryEscape("User deleted."))
}

type userForm struct {
	Name       string `form:"name" binding:"required"`
	Email      string `form:"email" binding:"required,email"`
	Password   string `form:"password"`
	Phone      string `form:"phone"`
	Department string `form:"department"`
	Address    string `form:"address"`
	Role       string `form:"role" binding:"required,oneof=USER ADMIN"`
}

func (h *Handler) showAddUser(c *gin.Context) {
	h.render(c, http.StatusOK, "admin_user_form", gin.H{
		"Title": "Add User",
		"Mode":  "add",
		"User":  api.Identity{Role: api.RoleUser},
	})
}

func (h *Handler) handleAddUser(c *gin.Context) {
	var form userForm
	if err := c.ShouldBind(&form); err != nil || form.Password == "" {
		h.render(c, http.StatusBadRequest, "admin_user_form", gin.H{
			"Title": "Add User",
			"Mode":  "add",
			"Error": "Name, a valid email, a password and a role are required.",
			"User":  formIdentity("", form, c),
		})
		return
	}

	_, err := h.api.CreateUser(c.Request.Context(), api.NewUser{
		Name:       form.Name,
		Email:      form.Email,
		Password:   form.Password,
		Phone:      form.Phone,
		Department: form.Department,
		Role:       form.Role,
	})
	if err != nil {
		if h.expired(c, err) {
			return
		}
		h.render(c, http.StatusOK, "admin_user_form", gin.H{
			"Title": "Add User",
			"Mode":  "add",
			"Error": api.Reason(err),
			"User":  formIdentity("", form, c),
		})
		return
	}
	c.Redirect(http.StatusSeeOther, "/admin/users?msg="+url.QueryEscape("User created."))
}

func (h *Handler) showEditUser(c *gin.Context) {
	id := api.ID(c.Param("id"))
	user, err := h.api.GetUser(c.Request.Context(), id)
	if err != nil {
		if h.expired(c, err) {
			return
		}
		c.Redirect(http.StatusSeeOther, "/admin/users?err="+url.QueryEscape(api.Reason(err)))
		return
	}
	h.render(c, http.StatusOK, "admin_user_form", gin.H{
		"Title": "Edit User",
		"Mode":  "edit",
		"User":  *user,
	})
}

func (h *Handler) handleEditUser(c *gin.Context) {
	id := api.ID(c.Param("id"))

	var form userForm
	if err := c.ShouldBind(&form); err != nil {
		h.render(c, http.StatusBadRequest, "admin_user_form", gin.H{
			"Title": "Edit User",
			"Mode":  "edit",
			"Error": "Name, a valid email and a role are required.",
			"User":  formIdentity(id, form, c),
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
	if _, err := h.api.UpdateUser(c.Request.Context(), id, patch); err != nil {
		if h.expired(c, err) {
			return
		}
		h.render(c, http.StatusOK, "admin_user_form", gin.H{
			"Title": "Edit User",
			"Mode":  "edit",
			"Error": api.Reason(err),
			"User":  formIdentity(id, form, c),
		})
		return
	}

	// Editing your own account also refreshes the cached session identity.
	if current, ok := h.store.Current(); ok && current.ID == id {
		_ = h.store.UpdateIdentity(c.Request.Context(), patch)
	}
	c.Redirect(http.StatusSeeOther, "/admin/users?msg="+url.QueryEscape("User updated."))
}

func formIdentity(id api.ID, form userForm, c *gin.Context) api.Identity {
	role := form.Role
	if role == "" {
		role = c.PostForm("role")
	}
	return api.Identity{
		ID:         id,
		Name:       c.PostForm("name"),
		Email:      c.PostForm("email"),
		Phone:      c.PostForm("phone"),
		Department: c.PostForm("department"),
		Address:    c.PostForm("address"),
		Role:       role,
	}
}

// attRow is one line of the marking table: a user, their record for the day
// if any, and the transient marking state for that row.
type attRow struct {
	User     api.Identity
	Status   string
	RecordID api.ID
	InFlight bool
	Result   *marker.Result
}

func (h *Handler) adminAttendance(c *gin.Context) {
	date := c.Query("date")
	if _, err := time.Parse(dateLayout, date); err != nil {
		date = time.Now().Format(dateLayout)
	}

	data := gin.H{
		"Title":    "Attendance Management",
		"Date":     date,
		"Statuses": []string{api.StatusPresent, api.StatusAbsent, api.StatusHalfDay, api.StatusLate},
	}
	if msg := c.Query("msg"); msg != "" {
		data["Success"] = msg
	}
	if msg := c.Query("err"); msg != "" {
		data["Error"] = msg
	}

	users, err := h.api.ListUsers(c.Request.Context())
	if err != nil {
		if h.expired(c, err) {
			return
		}
		data["Error"] = api.Reason(err)
		h.render(c, http.StatusOK, "admin_attendance", data)
		return
	}
	records, err := h.api.AttendanceByDate(c.Request.Context(), date)
	if err != nil {
		if h.expired(c, err) {
			return
		}
		data["Error"] = api.Reason(err)
		h.render(c, http.StatusOK, "admin_attendance", data)
		return
	}

	inflight := h.marker.InFlight()
	results := h.marker.Results()
	rows := make([]attRow, 0, len(users))
	for _, u := range users {
		row := attRow{User: u, InFlight: inflight[u.ID]}
		for _, r := range records {
			if r.ForUser(u.ID) {
				row.Status = r.Status
				row.RecordID = r.ID
				break
			}
		}
		if res, ok := results[u.ID]; ok {
			v := res
			row.Result = &v
		}
		rows = append(rows, row)
	}

	data["Rows"] = rows
	h.render(c, http.StatusOK, "admin_attendance", data)
}

func (h *Handler) markOne(c *gin.Context) {
	job := marker.Job{
		UserID: api.ID(c.PostForm("user_id")),
		Status: c.PostForm("status"),
		Date:   c.PostForm("date"),
	}
	back := "/admin/attendance?date=" + url.QueryEscape(job.Date)

	if job.UserID == "" || !api.ValidStatus(job.Status) {
		c.Redirect(http.StatusSeeOther, back+"&err="+url.QueryEscape("Pick a user and a valid status."))
		return
	}

	err := h.marker.Mark(c.Request.Context(), job)
	switch {
	case errors.Is(err, marker.ErrInFlight):
		c.Redirect(http.StatusSeeOther, back+"&err="+url.QueryEscape("A mark for that user is already in progress."))
	case err != nil:
		if h.expired(c, err) {
			return
		}
		c.Redirect(http.StatusSeeOther, back+"&err="+url.QueryEscape(api.Reason(err)))
	default:
		c.Redirect(http.StatusSeeOther, back+"&msg="+url.QueryEscape(job.Status+" marked."))
	}
}

func (h *Handler) markBulk(c *gin.Context) {
	date := c.PostForm("date")
	status := c.PostForm("status")
	ids := c.PostFormArray("user_ids")
	back := "/admin/attendance?date=" + url.QueryEscape(date)

	if len(ids) == 0 {
		c.Redirect(http.StatusSeeOther, back+"&err="+url.QueryEscape("Select at least one user."))
		return
	}

	for _, id := range ids {
		job := marker.Job{UserID: api.ID(id), Status: status, Date: date}
		if err := h.marker.Enqueue(c.Request.Context(), job); err != nil {
			c.Redirect(http.StatusSeeOther, back+"&err="+url.QueryEscape(api.Reason(err)))
			return
		}
	}
	c.Redirect(http.StatusSeeOther, back+"&msg="+url.QueryEscape("Marking queued for selected users."))
}

// markingStatus feeds the row spinners: per-user in-flight flags plus the
// latest outcomes.
func (h *Handler) markingStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"inflight": h.marker.InFlight(),
		"results":  h.marker.Results(),
	})
}
