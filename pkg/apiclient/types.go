package apiclient

import "time"

// Page is the list envelope every collection endpoint returns.
type Page[T any] struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
	Pages    int   `json:"pages"`
	Results  []T   `json:"results"`
}

type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FullName  string `json:"full_name"`
	Phone     string `json:"phone"`
	UserType  string `json:"user_type"`
	IsActive  bool   `json:"is_active"`
}

type AuthResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	User    User   `json:"user"`
}

type ClientRecord struct {
	ID          string     `json:"id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	FullName    string     `json:"full_name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	Address     string     `json:"address"`
	City        string     `json:"city"`
	State       string     `json:"state"`
	PostalCode  string     `json:"postal_code"`
	Country     string     `json:"country"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Occupation  string     `json:"occupation"`
	Company     string     `json:"company"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type CityCount struct {
	City  string `json:"city"`
	Count int64  `json:"count"`
}

type ClientStats struct {
	TotalClients        int64       `json:"total_clients"`
	ActiveClients       int64       `json:"active_clients"`
	InactiveClients     int64       `json:"inactive_clients"`
	NewClientsThisMonth int64       `json:"new_clients_this_month"`
	TopCities           []CityCount `json:"top_cities"`
}

type ClientNote struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"client_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ClientDocument struct {
	ID           string    `json:"id"`
	ClientID     string    `json:"client_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Mime         string    `json:"mime"`
	Size         int64     `json:"size"`
	OriginalName string    `json:"original_name"`
	CreatedAt    time.Time `json:"created_at"`
}

type CaseNote struct {
	ID        string    `json:"id"`
	CaseID    string    `json:"case_id"`
	AuthorID  *string   `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type Case struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	ClientID    string        `json:"client_id"`
	Status      string        `json:"status"`
	ClosedAt    *time.Time    `json:"closed_at"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	NotesCount  int64         `json:"notes_count"`
	Client      *ClientRecord `json:"client,omitempty"`
	Assignees   []User        `json:"assignees,omitempty"`
	Notes       []CaseNote    `json:"notes,omitempty"`
}

type Appointment struct {
	ID          string    `json:"id"`
	ClientID    *string   `json:"client_id"`
	CaseID      *string   `json:"case_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Status      string    `json:"status"`
	Location    string    `json:"location"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
}

type AppointmentStats struct {
	Total     int64 `json:"total"`
	Today     int64 `json:"today"`
	Upcoming  int64 `json:"upcoming"`
	Completed int64 `json:"completed"`
	Cancelled int64 `json:"cancelled"`
}

type InvoiceItem struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TaxRate     float64 `json:"tax_rate"`
	Amount      float64 `json:"amount"`
}

type Invoice struct {
	ID            string        `json:"id"`
	InvoiceNumber string        `json:"invoice_number"`
	ClientID      string        `json:"client_id"`
	CaseID        *string       `json:"case_id"`
	IssueDate     time.Time     `json:"issue_date"`
	DueDate       time.Time     `json:"due_date"`
	Status        string        `json:"status"`
	Subtotal      float64       `json:"subtotal"`
	TaxAmount     float64       `json:"tax_amount"`
	Total         float64       `json:"total"`
	Notes         string        `json:"notes"`
	PaidAt        *time.Time    `json:"paid_at"`
	Items         []InvoiceItem `json:"items,omitempty"`
}

type Activity struct {
	ID          string    `json:"id"`
	ActionType  string    `json:"action_type"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type DashboardOverview struct {
	TotalClients          int64          `json:"total_clients"`
	NewClientsThisMonth   int64          `json:"new_clients_this_month"`
	TotalAppointments     int64          `json:"total_appointments"`
	UpcomingAppointments  int64          `json:"upcoming_appointments"`
	CompletedAppointments int64          `json:"completed_appointments"`
	CancelledAppointments int64          `json:"cancelled_appointments"`
	RevenueThisMonth      float64        `json:"revenue_this_month"`
	RecentClients         []ClientRecord `json:"recent_clients"`
	UpcomingList          []Appointment  `json:"upcoming_appointments_list"`
	RecentActivities      []Activity     `json:"recent_activities"`
	UserInfo              User           `json:"user_info"`
}

type DashboardStat struct {
	StatDate              time.Time `json:"stat_date"`
	TotalClients          int64     `json:"total_clients"`
	NewClientsThisMonth   int64     `json:"new_clients_this_month"`
	TotalAppointments     int64     `json:"total_appointments"`
	UpcomingAppointments  int64     `json:"upcoming_appointments"`
	CompletedAppointments int64     `json:"completed_appointments"`
	CancelledAppointments int64     `json:"cancelled_appointments"`
	RevenueThisMonth      float64   `json:"revenue_this_month"`
}
