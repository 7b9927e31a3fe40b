package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

/* ================================ Auth ================================== */

// Login exchanges credentials for a token pair and installs it on the client.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login",
		map[string]string{"email": email, "password": password}, &out, "")
	if err != nil {
		return out, err
	}
	c.SetTokens(out.Access, out.Refresh)
	return out, nil
}

type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone,omitempty"`
	UserType  string `json:"user_type,omitempty"`
}

func (c *Client) Register(ctx context.Context, in RegisterInput) (AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/register", in, &out, "")
	if err != nil {
		return out, err
	}
	c.SetTokens(out.Access, out.Refresh)
	return out, nil
}

func (c *Client) Me(ctx context.Context) (User, error) {
	var out User
	err := c.request(ctx, http.MethodGet, "/api/auth/me", nil, &out)
	return out, err
}

func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	return c.request(ctx, http.MethodPost, "/api/auth/change-password",
		map[string]string{"old_password": oldPassword, "new_password": newPassword}, nil)
}

func (c *Client) Profile(ctx context.Context) (User, error) {
	var out User
	err := c.request(ctx, http.MethodGet, "/api/auth/profile", nil, &out)
	return out, err
}

type ProfileInput struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

func (c *Client) UpdateProfile(ctx context.Context, in ProfileInput) (User, error) {
	var out User
	err := c.request(ctx, http.MethodPatch, "/api/auth/profile", in, &out)
	return out, err
}

/* ================================ Users ================================= */

type UserInput struct {
	Email     string `json:"email,omitempty"`
	Password  string `json:"password,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	UserType  string `json:"user_type,omitempty"`
	IsActive  *bool  `json:"is_active,omitempty"`
}

// ListUsers requires an admin token.
func (c *Client) ListUsers(ctx context.Context, opts ListOptions) (Page[User], error) {
	var out Page[User]
	err := c.request(ctx, http.MethodGet, "/api/auth/users"+opts.query(), nil, &out)
	return out, err
}

// CreateUser requires an admin token.
func (c *Client) CreateUser(ctx context.Context, in UserInput) (User, error) {
	var out User
	err := c.request(ctx, http.MethodPost, "/api/auth/users", in, &out)
	return out, err
}

// GetUser accepts a uuid or "me".
func (c *Client) GetUser(ctx context.Context, id string) (User, error) {
	var out User
	err := c.request(ctx, http.MethodGet, "/api/auth/users/"+id, nil, &out)
	return out, err
}

func (c *Client) UpdateUser(ctx context.Context, id string, in UserInput) (User, error) {
	var out User
	err := c.request(ctx, http.MethodPatch, "/api/auth/users/"+id, in, &out)
	return out, err
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.request(ctx, http.MethodDelete, "/api/auth/users/"+id, nil, nil)
}

/* =============================== Clients ================================ */

// ListOptions narrows collection endpoints. Zero values are omitted.
type ListOptions struct {
	Page     int
	PageSize int
	Search   string
	Status   string
	ClientID string
	City     string
	IsActive *bool
}

func (o ListOptions) query() string {
	v := url.Values{}
	if o.Page > 0 {
		v.Set("page", strconv.Itoa(o.Page))
	}
	if o.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(o.PageSize))
	}
	if o.Search != "" {
		v.Set("search", o.Search)
	}
	if o.Status != "" {
		v.Set("status", o.Status)
	}
	if o.ClientID != "" {
		v.Set("client", o.ClientID)
	}
	if o.City != "" {
		v.Set("city", o.City)
	}
	if o.IsActive != nil {
		v.Set("is_active", strconv.FormatBool(*o.IsActive))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

type ClientInput struct {
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Address     string `json:"address,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	PostalCode  string `json:"postal_code,omitempty"`
	Country     string `json:"country,omitempty"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
	Occupation  string `json:"occupation,omitempty"`
	Company     string `json:"company,omitempty"`
}

func (c *Client) ListClients(ctx context.Context, opts ListOptions) (Page[ClientRecord], error) {
	var out Page[ClientRecord]
	err := c.request(ctx, http.MethodGet, "/api/clients"+opts.query(), nil, &out)
	return out, err
}

func (c *Client) GetClient(ctx context.Context, id string) (ClientRecord, error) {
	var out ClientRecord
	err := c.request(ctx, http.MethodGet, "/api/clients/"+id, nil, &out)
	return out, err
}

func (c *Client) CreateClient(ctx context.Context, in ClientInput) (ClientRecord, error) {
	var out ClientRecord
	err := c.request(ctx, http.MethodPost, "/api/clients", in, &out)
	return out, err
}

func (c *Client) UpdateClient(ctx context.Context, id string, in ClientInput) (ClientRecord, error) {
	var out ClientRecord
	err := c.request(ctx, http.MethodPatch, "/api/clients/"+id, in, &out)
	return out, err
}

func (c *Client) DeleteClient(ctx context.Context, id string) error {
	return c.request(ctx, http.MethodDelete, "/api/clients/"+id, nil, nil)
}

func (c *Client) ActivateClient(ctx context.Context, id string) (ClientRecord, error) {
	var out ClientRecord
	err := c.request(ctx, http.MethodPost, "/api/clients/"+id+"/activate", nil, &out)
	return out, err
}

func (c *Client) DeactivateClient(ctx context.Context, id string) (ClientRecord, error) {
	var out ClientRecord
	err := c.request(ctx, http.MethodPost, "/api/clients/"+id+"/deactivate", nil, &out)
	return out, err
}

func (c *Client) ClientStats(ctx context.Context) (ClientStats, error) {
	var out ClientStats
	err := c.request(ctx, http.MethodGet, "/api/clients/stats", nil, &out)
	return out, err
}

func (c *Client) ClientAppointments(ctx context.Context, id string) ([]Appointment, error) {
	var out struct {
		Results []Appointment `json:"results"`
	}
	err := c.request(ctx, http.MethodGet, "/api/clients/"+id+"/appointments", nil, &out)
	return out.Results, err
}

func (c *Client) ClientNotes(ctx context.Context, id string) ([]ClientNote, error) {
	var out struct {
		Results []ClientNote `json:"results"`
	}
	err := c.request(ctx, http.MethodGet, "/api/clients/"+id+"/notes", nil, &out)
	return out.Results, err
}

func (c *Client) AddClientNote(ctx context.Context, id, title, content string) (ClientNote, error) {
	var out ClientNote
	err := c.request(ctx, http.MethodPost, "/api/clients/"+id+"/notes",
		map[string]string{"title": title, "content": content}, &out)
	return out, err
}

// NotesSummary holds a client's note count plus the most recent notes.
type NotesSummary struct {
	Count  int64        `json:"count"`
	Latest []ClientNote `json:"latest"`
}

func (c *Client) ClientNotesSummary(ctx context.Context, id string) (NotesSummary, error) {
	var out NotesSummary
	err := c.request(ctx, http.MethodGet, "/api/clients/"+id+"/notes_summary", nil, &out)
	return out, err
}

/* ================================ Cases ================================= */

type CaseInput struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	ClientID    string `json:"client_id,omitempty"`
	Status      string `json:"status,omitempty"`
}

func (c *Client) ListCases(ctx context.Context, opts ListOptions) (Page[Case], error) {
	var out Page[Case]
	err := c.request(ctx, http.MethodGet, "/api/cases"+opts.query(), nil, &out)
	return out, err
}

func (c *Client) GetCase(ctx context.Context, id string) (Case, error) {
	var out Case
	err := c.request(ctx, http.MethodGet, "/api/cases/"+id, nil, &out)
	return out, err
}

func (c *Client) CreateCase(ctx context.Context, in CaseInput) (Case, error) {
	var out Case
	err := c.request(ctx, http.MethodPost, "/api/cases", in, &out)
	return out, err
}

func (c *Client) UpdateCase(ctx context.Context, id string, in CaseInput) (Case, error) {
	var out Case
	err := c.request(ctx, http.MethodPatch, "/api/cases/"+id, in, &out)
	return out, err
}

func (c *Client) DeleteCase(ctx context.Context, id string) error {
	return c.request(ctx, http.MethodDelete, "/api/cases/"+id, nil, nil)
}

func (c *Client) AddCaseNote(ctx context.Context, id, content string) (CaseNote, error) {
	var out CaseNote
	err := c.request(ctx, http.MethodPost, "/api/cases/"+id+"/add_note",
		map[string]string{"content": content}, &out)
	return out, err
}

func (c *Client) AssignCaseToMe(ctx context.Context, id string) error {
	return c.request(ctx, http.MethodPost, "/api/cases/"+id+"/assign_to_me", nil, nil)
}

func (c *Client) CloseCase(ctx context.Context, id string) (Case, error) {
	var out Case
	err := c.request(ctx, http.MethodPost, "/api/cases/"+id+"/close", nil, &out)
	return out, err
}

/* ============================= Appointments ============================= */

type AppointmentInput struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	ClientID    string `json:"client_id,omitempty"`
	CaseID      string `json:"case_id,omitempty"`
	StartTime   string `json:"start_time,omitempty"`
	EndTime     string `json:"end_time,omitempty"`
	Location    string `json:"location,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

func (c *Client) ListAppointments(ctx context.Context, opts ListOptions) (Page[Appointment], error) {
	var out Page[Appointment]
	err := c.request(ctx, http.MethodGet, "/api/appointments"+opts.query(), nil, &out)
	return out, err
}

func (c *Client) GetAppointment(ctx context.Context, id string) (Appointment, error) {
	var out Appointment
	err := c.request(ctx, http.MethodGet, "/api/appointments/"+id, nil, &out)
	return out, err
}

func (c *Client) CreateAppointment(ctx context.Context, in AppointmentInput) (Appointment, error) {
	var out Appointment
	err := c.request(ctx, http.MethodPost, "/api/appointments", in, &out)
	return out, err
}

func (c *Client) UpdateAppointment(ctx context.Context, id string, in AppointmentInput) (Appointment, error) {
	var out Appointment
	err := c.request(ctx, http.MethodPatch, "/api/appointments/"+id, in, &out)
	return out, err
}

func (c *Client) DeleteAppointment(ctx context.Context, id string) error {
	return c.request(ctx, http.MethodDelete, "/api/appointments/"+id, nil, nil)
}

func (c *Client) appointmentAction(ctx context.Context, id, action string) (Appointment, error) {
	var out Appointment
	err := c.request(ctx, http.MethodPost, "/api/appointments/"+id+"/"+action, nil, &out)
	return out, err
}

func (c *Client) ConfirmAppointment(ctx context.Context, id string) (Appointment, error) {
	return c.appointmentAction(ctx, id, "confirm")
}

func (c *Client) CancelAppointment(ctx context.Context, id string) (Appointment, error) {
	return c.appointmentAction(ctx, id, "cancel")
}

func (c *Client) CompleteAppointment(ctx context.Context, id string) (Appointment, error) {
	return c.appointmentAction(ctx, id, "complete")
}

func (c *Client) UpcomingAppointments(ctx context.Context) ([]Appointment, error) {
	var out struct {
		Results []Appointment `json:"results"`
	}
	err := c.request(ctx, http.MethodGet, "/api/appointments/upcoming", nil, &out)
	return out.Results, err
}

func (c *Client) TodayAppointments(ctx context.Context) ([]Appointment, error) {
	var out struct {
		Results []Appointment `json:"results"`
	}
	err := c.request(ctx, http.MethodGet, "/api/appointments/today", nil, &out)
	return out.Results, err
}

func (c *Client) AppointmentStats(ctx context.Context) (AppointmentStats, error) {
	var out AppointmentStats
	err := c.request(ctx, http.MethodGet, "/api/appointments/stats", nil, &out)
	return out, err
}

// CalendarEntry is the flattened shape the calendar view renders.
type CalendarEntry struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Status      string `json:"status"`
	ClientName  string `json:"client_name"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// Calendar lists appointments between start and end (YYYY-MM-DD or RFC3339).
func (c *Client) Calendar(ctx context.Context, start, end string) ([]CalendarEntry, error) {
	v := url.Values{}
	v.Set("start", start)
	v.Set("end", end)
	var out struct {
		Results []CalendarEntry `json:"results"`
	}
	err := c.request(ctx, http.MethodGet, "/api/appointments/calendar?"+v.Encode(), nil, &out)
	return out.Results, err
}

/* ================================ Billing =============================== */

type InvoiceItemInput struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TaxRate     float64 `json:"tax_rate"`
}

type InvoiceInput struct {
	ClientID  string             `json:"client_id,omitempty"`
	CaseID    string             `json:"case_id,omitempty"`
	IssueDate string             `json:"issue_date,omitempty"`
	DueDate   string             `json:"due_date,omitempty"`
	Notes     string             `json:"notes,omitempty"`
	Status    string             `json:"status,omitempty"`
	Items     []InvoiceItemInput `json:"items,omitempty"`
}

func (c *Client) ListInvoices(ctx context.Context, opts ListOptions) (Page[Invoice], error) {
	var out Page[Invoice]
	err := c.request(ctx, http.MethodGet, "/api/billing/invoices"+opts.query(), nil, &out)
	return out, err
}

func (c *Client) GetInvoice(ctx context.Context, id string) (Invoice, error) {
	var out Invoice
	err := c.request(ctx, http.MethodGet, "/api/billing/invoices/"+id, nil, &out)
	return out, err
}

func (c *Client) CreateInvoice(ctx context.Context, in InvoiceInput) (Invoice, error) {
	var out Invoice
	err := c.request(ctx, http.MethodPost, "/api/billing/invoices", in, &out)
	return out, err
}

func (c *Client) UpdateInvoice(ctx context.Context, id string, in InvoiceInput) (Invoice, error) {
	var out Invoice
	err := c.request(ctx, http.MethodPatch, "/api/billing/invoices/"+id, in, &out)
	return out, err
}

func (c *Client) DeleteInvoice(ctx context.Context, id string) error {
	return c.request(ctx, http.MethodDelete, "/api/billing/invoices/"+id, nil, nil)
}

func (c *Client) MarkInvoicePaid(ctx context.Context, id string) (Invoice, error) {
	var out Invoice
	err := c.request(ctx, http.MethodPost, "/api/billing/invoices/"+id+"/mark_paid", nil, &out)
	return out, err
}

func (c *Client) SendInvoice(ctx context.Context, id string) (Invoice, error) {
	var out Invoice
	err := c.request(ctx, http.MethodPost, "/api/billing/invoices/"+id+"/send", nil, &out)
	return out, err
}

/* =============================== Dashboard ============================== */

func (c *Client) Dashboard(ctx context.Context) (DashboardOverview, error) {
	var out DashboardOverview
	err := c.request(ctx, http.MethodGet, "/api/dashboard", nil, &out)
	return out, err
}

func (c *Client) DashboardStats(ctx context.Context) ([]DashboardStat, error) {
	var out struct {
		Results []DashboardStat `json:"results"`
	}
	err := c.request(ctx, http.MethodGet, "/api/dashboard/stats", nil, &out)
	return out.Results, err
}

func (c *Client) SnapshotDashboardStats(ctx context.Context) (DashboardStat, error) {
	var out DashboardStat
	err := c.request(ctx, http.MethodPost, "/api/dashboard/stats/snapshot", nil, &out)
	return out, err
}

func (c *Client) RecentActivities(ctx context.Context) ([]Activity, error) {
	var out struct {
		Results []Activity `json:"results"`
	}
	err := c.request(ctx, http.MethodGet, "/api/dashboard/activities", nil, &out)
	return out.Results, err
}

type ActivityPoint struct {
	Day       string `json:"day"`
	Total     int64  `json:"total"`
	Completed int64  `json:"completed"`
	Cancelled int64  `json:"cancelled"`
}

type GrowthPoint struct {
	Day        string `json:"day"`
	NewClients int64  `json:"new_clients"`
}

func chartQuery(days int) string {
	if days <= 0 {
		return ""
	}
	return "?days=" + strconv.Itoa(days)
}

// ActivityChart returns per-day appointment counts over the last `days` days
// (server default when days <= 0).
func (c *Client) ActivityChart(ctx context.Context, days int) ([]ActivityPoint, error) {
	var out struct {
		Results []ActivityPoint `json:"results"`
	}
	err := c.request(ctx, http.MethodGet, "/api/dashboard/activity-chart"+chartQuery(days), nil, &out)
	return out.Results, err
}

// ClientGrowth returns per-day new-client counts over the last `days` days.
func (c *Client) ClientGrowth(ctx context.Context, days int) ([]GrowthPoint, error) {
	var out struct {
		Results []GrowthPoint `json:"results"`
	}
	err := c.request(ctx, http.MethodGet, "/api/dashboard/client-growth"+chartQuery(days), nil, &out)
	return out.Results, err
}
