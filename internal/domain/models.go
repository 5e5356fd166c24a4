package domain

import (
	"time"
)

// BidStatus represents the coarse outcome state of a bid
type BidStatus string

const (
	BidStatusOpen      BidStatus = "Open"
	BidStatusSubmitted BidStatus = "Submitted"
	BidStatusWon       BidStatus = "Won"
	BidStatusLost      BidStatus = "Lost"
)

// IsValid checks if the BidStatus is a valid enum value
func (s BidStatus) IsValid() bool {
	switch s {
	case BidStatusOpen, BidStatusSubmitted, BidStatusWon, BidStatusLost:
		return true
	}
	return false
}

// IsTerminal reports whether the status is a final outcome
func (s BidStatus) IsTerminal() bool {
	return s == BidStatusWon || s == BidStatusLost
}

// Bid represents a tracked sales opportunity moving through stages to an outcome
type Bid struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	Title       string    `gorm:"type:varchar(200);not null;index"`
	Description string    `gorm:"type:text"`
	Status      BidStatus `gorm:"type:varchar(50);not null;default:'Open';index"`
	Stage       string    `gorm:"type:varchar(100);not null"`
	DueDate     time.Time `gorm:"type:date;not null;column:due_date;index"`
	AssignedTo  string    `gorm:"type:varchar(200);not null;column:assigned_to;index"`
	CreatedBy   string    `gorm:"type:varchar(200);column:created_by"`
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	ClientName  string    `gorm:"type:varchar(200);not null;column:client_name"`
	BidValue    *float64  `gorm:"type:decimal(15,2);column:bid_value"`
	Reason      string    `gorm:"type:varchar(500)"`
	// LockVersion guards concurrent stage transitions. Every transition
	// bumps it; a writer holding a stale version loses with a conflict.
	LockVersion int64 `gorm:"not null;default:0;column:lock_version"`
}

// StageInterval is a time-bounded record of a bid occupying one stage.
// completed_at is null while the interval is open; a bid has at most one
// open interval at any time.
type StageInterval struct {
	ID          int64      `gorm:"primaryKey;autoIncrement"`
	BidID       int64      `gorm:"not null;index;column:bid_id"`
	Bid         *Bid       `gorm:"foreignKey:BidID"`
	Stage       string     `gorm:"type:varchar(100);not null"`
	StageOwner  string     `gorm:"type:varchar(100);not null;column:stage_owner"`
	StartedAt   time.Time  `gorm:"not null;column:started_at"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
	Notes       string     `gorm:"type:text"`
}

// TableName overrides the default table name to match the migration
func (StageInterval) TableName() string {
	return "bid_stages"
}

// IsOpen reports whether the interval is still in progress
func (si *StageInterval) IsOpen() bool {
	return si.CompletedAt == nil
}

// HistoryRecord is an immutable audit entry for one field mutation on a bid.
// Rows are append-only; nothing ever updates or deletes them.
type HistoryRecord struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	BidID        int64     `gorm:"not null;index;column:bid_id"`
	Bid          *Bid      `gorm:"foreignKey:BidID"`
	ChangedAt    time.Time `gorm:"not null;index;column:changed_at"`
	ChangedBy    string    `gorm:"type:varchar(200);not null;column:changed_by"`
	FieldChanged string    `gorm:"type:varchar(100);not null;column:field_changed"`
	OldValue     string    `gorm:"type:text;column:old_value"`
	NewValue     string    `gorm:"type:text;column:new_value"`
}

// TableName overrides the default table name to match the migration
func (HistoryRecord) TableName() string {
	return "bid_history"
}

// UserRole represents a role a user can have
type UserRole string

const (
	RoleSalesperson UserRole = "salesperson"
	RoleManager     UserRole = "manager"
	RoleAdmin       UserRole = "admin"
)

// IsValid checks if the UserRole is a valid enum value
func (r UserRole) IsValid() bool {
	switch r {
	case RoleSalesperson, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// User represents a user in the system
type User struct {
	ID       int64    `gorm:"primaryKey;autoIncrement"`
	Username string   `gorm:"type:varchar(100);not null;uniqueIndex"`
	Role     UserRole `gorm:"type:varchar(50);not null;default:'salesperson'"`
}

// Document records an uploaded file attached to a bid. The file body lives
// in the configured storage backend; only the reference is persisted here.
type Document struct {
	ID               int64     `gorm:"primaryKey;autoIncrement"`
	BidID            int64     `gorm:"not null;index;column:bid_id"`
	Bid              *Bid      `gorm:"foreignKey:BidID"`
	DocumentName     string    `gorm:"type:varchar(255);not null;column:document_name"`
	ContentType      string    `gorm:"type:varchar(100);column:content_type"`
	Size             int64     `gorm:"not null;default:0"`
	StorageReference string    `gorm:"type:varchar(500);not null;column:storage_reference"`
	UploadedAt       time.Time `gorm:"not null;column:uploaded_at"`
}

// NotificationType represents the type of notification
type NotificationType string

const (
	NotificationTypeStageTransition NotificationType = "stage_transition"
)

// Notification represents a message for a stage owner role, produced when a
// bid moves into a stage that role owns
type Notification struct {
	ID            int64      `gorm:"primaryKey;autoIncrement"`
	RecipientRole string     `gorm:"type:varchar(100);not null;index;column:recipient_role"`
	Type          string     `gorm:"type:varchar(50);not null"`
	Title         string     `gorm:"type:varchar(200);not null"`
	Message       string     `gorm:"type:varchar(500);not null"`
	BidID         *int64     `gorm:"column:bid_id"`
	Read          bool       `gorm:"column:read;not null;default:false;index"`
	ReadAt        *time.Time `gorm:"column:read_at"`
	CreatedAt     time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"`
}
