package models

import (
	"time"

	"github.com/google/uuid"
)

/* =============================== Enums ================================== */

// UserType defines the kind of account in the office.
type UserType string

const (
	UserAdmin     UserType = "admin"
	UserLawyer    UserType = "lawyer"
	UserParalegal UserType = "paralegal"
)

// CaseStatus defines lifecycle states for a case.
type CaseStatus string

const (
	CaseOpen       CaseStatus = "open"
	CaseInProgress CaseStatus = "in_progress"
	CasePending    CaseStatus = "pending"
	CaseClosed     CaseStatus = "closed"
)

// AppointmentStatus defines lifecycle states for an appointment.
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCancelled AppointmentStatus = "cancelled"
	AppointmentCompleted AppointmentStatus = "completed"
)

// InvoiceStatus defines lifecycle states for an invoice.
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoiceSent      InvoiceStatus = "sent"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

/* =============================== Entities =============================== */

// User represents a staff member of the office (admin, lawyer or paralegal).
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Phone        string    `json:"phone"`
	UserType     UserType  `gorm:"type:varchar(20);default:'lawyer'" json:"user_type"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FullName joins first and last name for display.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Client represents a person the office works for.
type Client struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FirstName   string     `gorm:"not null" json:"first_name"`
	LastName    string     `gorm:"not null" json:"last_name"`
	Email       string     `gorm:"uniqueIndex;not null" json:"email"`
	Phone       string     `json:"phone"`
	Address     string     `json:"address"`
	City        string     `json:"city"`
	State       string     `json:"state"`
	PostalCode  string     `json:"postal_code"`
	Country     string     `json:"country"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Occupation  string     `json:"occupation"`
	Company     string     `json:"company"`
	IsActive    bool       `gorm:"default:true" json:"is_active"`
	CreatedByID uuid.UUID  `gorm:"type:uuid;not null;index" json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relations
	Notes     []ClientNote     `gorm:"constraint:OnDelete:CASCADE" json:"notes,omitempty"`
	Documents []ClientDocument `gorm:"constraint:OnDelete:CASCADE" json:"documents,omitempty"`
}

// FullName joins first and last name for display.
func (c Client) FullName() string { return c.FirstName + " " + c.LastName }

// ClientNote is a free-form note attached to a client.
type ClientNote struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ClientID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"client_id"`
	Title       string     `gorm:"not null" json:"title"`
	Content     string     `gorm:"type:text" json:"content"`
	CreatedByID *uuid.UUID `gorm:"type:uuid" json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ClientDocument is a file stored for a client. The object itself lives in
// external storage under a per-client key; only metadata is persisted here.
type ClientDocument struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ClientID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"client_id"`
	Title        string     `gorm:"not null" json:"title"`
	Description  string     `json:"description"`
	Key          string     `gorm:"not null" json:"-"`
	Mime         string     `gorm:"not null" json:"mime"`
	Size         int64      `gorm:"not null" json:"size"`
	OriginalName string     `json:"original_name"`
	UploadedByID *uuid.UUID `gorm:"type:uuid" json:"uploaded_by"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Case represents a legal matter for a client.
type Case struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	ClientID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"client_id"`
	Status      CaseStatus `gorm:"type:varchar(20);default:'open'" json:"status"`
	CreatedByID *uuid.UUID `gorm:"type:uuid;index" json:"created_by"`
	ClosedAt    *time.Time `json:"closed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relations
	Client    *Client    `json:"client,omitempty"`
	Assignees []User     `gorm:"many2many:case_assignees" json:"assignees,omitempty"`
	Notes     []CaseNote `gorm:"constraint:OnDelete:CASCADE" json:"notes,omitempty"`
}

// CaseNote is a note on a case, attributed to its author.
type CaseNote struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CaseID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"case_id"`
	AuthorID  *uuid.UUID `gorm:"type:uuid" json:"author_id"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Appointment belongs to the user who scheduled it and optionally references
// a client and a case. Overlapping time ranges are allowed.
type Appointment struct {
	ID          uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID      uuid.UUID         `gorm:"type:uuid;not null;index" json:"user_id"`
	ClientID    *uuid.UUID        `gorm:"type:uuid;index" json:"client_id"`
	CaseID      *uuid.UUID        `gorm:"type:uuid" json:"case_id"`
	Title       string            `gorm:"not null" json:"title"`
	Description string            `json:"description"`
	StartTime   time.Time         `gorm:"not null;index" json:"start_time"`
	EndTime     time.Time         `gorm:"not null" json:"end_time"`
	Status      AppointmentStatus `gorm:"type:varchar(20);default:'scheduled'" json:"status"`
	Location    string            `json:"location"`
	Notes       string            `json:"notes"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Invoice is billed to a client, optionally tied to a case. Amounts are
// computed server-side from the line items.
type Invoice struct {
	ID            uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceNumber string        `gorm:"uniqueIndex;not null" json:"invoice_number"`
	ClientID      uuid.UUID     `gorm:"type:uuid;not null;index" json:"client_id"`
	CaseID        *uuid.UUID    `gorm:"type:uuid" json:"case_id"`
	IssueDate     time.Time     `gorm:"not null" json:"issue_date"`
	DueDate       time.Time     `gorm:"not null" json:"due_date"`
	Status        InvoiceStatus `gorm:"type:varchar(20);default:'draft'" json:"status"`
	Subtotal      float64       `gorm:"type:numeric(12,2)" json:"subtotal"`
	TaxAmount     float64       `gorm:"type:numeric(12,2)" json:"tax_amount"`
	Total         float64       `gorm:"type:numeric(12,2)" json:"total"`
	Notes         string        `json:"notes"`
	CreatedByID   *uuid.UUID    `gorm:"type:uuid;index" json:"created_by"`
	PaidAt        *time.Time    `json:"paid_at"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`

	// Relations
	Items []InvoiceItem `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// InvoiceItem is a single billed line on an invoice.
type InvoiceItem struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceID   uuid.UUID `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Description string    `gorm:"not null" json:"description"`
	Quantity    float64   `gorm:"type:numeric(10,2);not null" json:"quantity"`
	UnitPrice   float64   `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	TaxRate     float64   `gorm:"type:numeric(5,2);default:0" json:"tax_rate"`
	Amount      float64   `gorm:"type:numeric(12,2)" json:"amount"`
	CreatedAt   time.Time `json:"created_at"`
}

// DashboardStat is a per-user daily rollup, written by the snapshot endpoint.
// Unique per (user, date).
type DashboardStat struct {
	ID                    uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID                uuid.UUID `gorm:"type:uuid;not null;index:idx_user_stat_date,unique" json:"user_id"`
	StatDate              time.Time `gorm:"type:date;not null;index:idx_user_stat_date,unique" json:"stat_date"`
	TotalClients          int64     `gorm:"default:0" json:"total_clients"`
	NewClientsThisMonth   int64     `gorm:"default:0" json:"new_clients_this_month"`
	TotalAppointments     int64     `gorm:"default:0" json:"total_appointments"`
	UpcomingAppointments  int64     `gorm:"default:0" json:"upcoming_appointments"`
	CompletedAppointments int64     `gorm:"default:0" json:"completed_appointments"`
	CancelledAppointments int64     `gorm:"default:0" json:"cancelled_appointments"`
	RevenueThisMonth      float64   `gorm:"type:numeric(12,2);default:0" json:"revenue_this_month"`
	CreatedAt             time.Time `json:"created_at"`
}

// RecentActivity is an append-only log entry describing a mutation the user
// performed. Written best-effort by the handlers.
type RecentActivity struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	ActionType      string     `gorm:"type:varchar(40);not null" json:"action_type"`
	Description     string     `gorm:"type:varchar(255)" json:"description"`
	RelatedObjectID *uuid.UUID `gorm:"type:uuid" json:"related_object_id"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
}
