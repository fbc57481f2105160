package models

import (
	"time"

	"github.com/google/uuid"
)

/* =============================== Enums ================================== */

// Role defines the type of user in the system.
type Role string

const (
	RoleClient Role = "client"
	RoleAdmin  Role = "admin"
)

// ProjectStatus defines lifecycle states for a project.
type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectPaused    ProjectStatus = "paused"
	ProjectCompleted ProjectStatus = "completed"
	ProjectCancelled ProjectStatus = "cancelled"
)

// MilestoneStatus defines lifecycle states for a milestone.
type MilestoneStatus string

const (
	MilestonePending    MilestoneStatus = "pending"
	MilestoneInProgress MilestoneStatus = "in_progress"
	MilestoneCompleted  MilestoneStatus = "completed"
)

// InvoiceStatus defines lifecycle states for an invoice.
type InvoiceStatus string

const (
	InvoicePending InvoiceStatus = "pending"
	InvoicePartial InvoiceStatus = "partial"
	InvoicePaid    InvoiceStatus = "paid"
	InvoiceOverdue InvoiceStatus = "overdue"
)

// PayStatus defines lifecycle states for a payment transaction.
type PayStatus string

const (
	PayPending  PayStatus = "pending"
	PayApproved PayStatus = "approved"
	PayRejected PayStatus = "rejected"
)

// DeliveryStatus defines review states for a delivery.
type DeliveryStatus string

const (
	DeliveryPending           DeliveryStatus = "pending"
	DeliveryApproved          DeliveryStatus = "approved"
	DeliveryRejected          DeliveryStatus = "rejected"
	DeliveryRevisionRequested DeliveryStatus = "revision_requested"
)

// SenderType tells who wrote a message.
type SenderType string

const (
	SenderClient SenderType = "client"
	SenderAdmin  SenderType = "admin"
)

// TaskStatus defines lifecycle states for a task.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
)

/* =============================== Entities =============================== */

// User is a login identity: either a portal client or the studio admin.
type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string     `json:"-"`
	Role         Role       `gorm:"type:varchar(20);not null" json:"role"`
	ClientID     *uuid.UUID `gorm:"type:uuid;index" json:"client_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Client is a customer of the studio, with running billing totals in cents.
type Client struct {
	ID                  uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name                string     `gorm:"not null" json:"name"`
	Email               string     `gorm:"uniqueIndex;not null" json:"email"`
	Company             string     `json:"company"`
	Phone               string     `json:"phone"`
	TotalBilled         int64      `gorm:"not null;default:0" json:"total_billed"`
	TotalPaid           int64      `gorm:"not null;default:0" json:"total_paid"`
	Active              bool       `gorm:"not null;default:true" json:"active"`
	MagicToken          *string    `gorm:"uniqueIndex" json:"-"`
	MagicTokenExpiresAt *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// Project belongs to one client.
type Project struct {
	ID          uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ClientID    uuid.UUID     `gorm:"type:uuid;not null;index" json:"client_id"`
	Name        string        `gorm:"not null" json:"name"`
	Description string        `json:"description"`
	Status      ProjectStatus `gorm:"type:varchar(20);default:'active'" json:"status"`
	Progress    int           `gorm:"not null;default:0" json:"progress"`
	BudgetCents int64         `gorm:"not null;default:0" json:"budget_cents"`
	StartDate   *time.Time    `json:"start_date"`
	EndDate     *time.Time    `json:"end_date"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	Milestones []Milestone `json:"milestones,omitempty"`
}

// Milestone belongs to one project and is ordered by Order.
type Milestone struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID uuid.UUID       `gorm:"type:uuid;not null;index" json:"project_id"`
	Title     string          `gorm:"not null" json:"title"`
	Order     int             `gorm:"column:sort_order;not null;default:0" json:"order"`
	Status    MilestoneStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`
	Progress  int             `gorm:"not null;default:0" json:"progress"`
	DueDate   *time.Time      `json:"due_date"`
	CreatedAt time.Time       `json:"created_at"`
}

// Invoice belongs to one client. Amounts are stored in cents.
type Invoice struct {
	ID              uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ClientID        uuid.UUID     `gorm:"type:uuid;not null;index" json:"client_id"`
	ProjectID       *uuid.UUID    `gorm:"type:uuid;index" json:"project_id,omitempty"`
	Number          string        `gorm:"uniqueIndex;not null" json:"number"`
	TotalCents      int64         `gorm:"not null" json:"total"`
	PaidAmountCents int64         `gorm:"not null;default:0" json:"paid_amount"`
	Status          InvoiceStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`
	DueDate         time.Time     `json:"due_date"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`

	Items    []InvoiceItem `json:"items,omitempty"`
	Payments []Payment     `json:"payments,omitempty"`
}

// Balance is what is still owed on the invoice.
func (inv Invoice) Balance() int64 { return inv.TotalCents - inv.PaidAmountCents }

// InvoiceItem is a line entry of an invoice.
type InvoiceItem struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceID      uuid.UUID `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Description    string    `gorm:"not null" json:"description"`
	Quantity       int       `gorm:"not null" json:"quantity"`
	UnitPriceCents int64     `gorm:"not null" json:"unit_price"`
}

// Payment is a ledger entry against an invoice, also used to track a
// provider transaction while it is pending.
type Payment struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"invoice_id"`
	AmountCents   int64      `gorm:"not null" json:"amount"`
	Method        string     `gorm:"type:varchar(20);not null" json:"method"` // card, pix, transfer, cash...
	Provider      string     `gorm:"type:varchar(20)" json:"provider"`        // stripe, mercadopago, pix, manual, mock
	TransactionID *string    `gorm:"uniqueIndex" json:"transaction_id,omitempty"`
	Status        PayStatus  `gorm:"type:varchar(20);default:'pending'" json:"status"`
	PaidAt        *time.Time `json:"paid_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Delivery is a work artifact submitted for client review.
type Delivery struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"project_id"`
	Title          string         `gorm:"not null" json:"title"`
	Description    string         `json:"description"`
	FileKey        string         `json:"-"`
	Status         DeliveryStatus `gorm:"type:varchar(30);default:'pending'" json:"status"`
	ClientFeedback *string        `json:"client_feedback"`
	ReviewedAt     *time.Time     `json:"reviewed_at"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Message is one entry of a project's conversation.
type Message struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID     uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_msg_project_corr,priority:1" json:"project_id"`
	SenderID      uuid.UUID  `gorm:"type:uuid;not null" json:"sender_id"`
	SenderType    SenderType `gorm:"type:varchar(10);not null" json:"sender_type"`
	Content       string     `gorm:"type:text;not null" json:"content"`
	CorrelationID *string    `gorm:"uniqueIndex:idx_msg_project_corr,priority:2" json:"correlation_id,omitempty"`
	IsRead        bool       `gorm:"not null;default:false" json:"is_read"`
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`
}

// Notification belongs to one user. Deleting is a soft mark-as-read.
type Notification struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Title     string     `gorm:"not null" json:"title"`
	Body      string     `json:"body"`
	Type      string     `gorm:"type:varchar(30)" json:"type"`
	Link      string     `json:"link"`
	IsRead    bool       `gorm:"not null;default:false" json:"is_read"`
	ReadAt    *time.Time `json:"read_at"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
}

// Task belongs to one project.
type Task struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"project_id"`
	Title       string     `gorm:"not null" json:"title"`
	Status      TaskStatus `gorm:"type:varchar(20);default:'todo'" json:"status"`
	DueDate     *time.Time `json:"due_date"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ActivityLog is an audit entry for important changes.
type ActivityLog struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	EntityType string    `gorm:"type:varchar(30);not null;index:idx_activity_entity"`
	EntityID   uuid.UUID `gorm:"type:uuid;not null;index:idx_activity_entity"`
	ActorID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Action     string    `gorm:"type:varchar(50);not null"` // e.g. created, reviewed, payment_recorded
	OldStatus  string    `gorm:"type:varchar(30)"`
	NewStatus  string    `gorm:"type:varchar(30)"`
	Reason     string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// ContactMessage is a submission of the public contact form.
type ContactMessage struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"not null" json:"email"`
	Subject   string    `json:"subject"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Testimonial is shown on the landing page when published.
type Testimonial struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Author    string    `gorm:"not null" json:"author"`
	Role      string    `json:"role"`
	Quote     string    `gorm:"type:text;not null" json:"quote"`
	Rating    int       `gorm:"not null;default:5" json:"rating"`
	Published bool      `gorm:"not null;default:false" json:"published"`
	CreatedAt time.Time `json:"created_at"`
}

// All lists every entity for AutoMigrate.
func All() []any {
	return []any{
		&User{}, &Client{}, &Project{}, &Milestone{}, &Invoice{}, &InvoiceItem{}, &Payment{},
		&Delivery{}, &Message{}, &Notification{}, &Task{}, &ActivityLog{},
		&ContactMessage{}, &Testimonial{},
	}
}
