package domain

// DTOs for API responses

type BidDTO struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      BidStatus `json:"status"`
	Stage       string    `json:"stage"`
	StageOwner  string    `json:"stageOwner"`
	DueDate     string    `json:"dueDate"` // YYYY-MM-DD
	AssignedTo  string    `json:"assignedTo"`
	CreatedBy   string    `json:"createdBy,omitempty"`
	ClientName  string    `json:"clientName"`
	BidValue    *float64  `json:"bidValue,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	LockVersion int64     `json:"lockVersion"`
	CreatedAt   string    `json:"createdAt"` // ISO 8601
}

type StageIntervalDTO struct {
	ID          int64   `json:"id"`
	BidID       int64   `json:"bidId"`
	Stage       string  `json:"stage"`
	StageOwner  string  `json:"stageOwner"`
	StartedAt   string  `json:"startedAt"`
	CompletedAt *string `json:"completedAt,omitempty"`
	Notes       string  `json:"notes,omitempty"`
}

type HistoryRecordDTO struct {
	ID           int64  `json:"id"`
	BidID        int64  `json:"bidId"`
	ChangedAt    string `json:"changedAt"`
	ChangedBy    string `json:"changedBy"`
	FieldChanged string `json:"fieldChanged"`
	OldValue     string `json:"oldValue,omitempty"`
	NewValue     string `json:"newValue,omitempty"`
}

type UserDTO struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Role     UserRole `json:"role"`
}

type DocumentDTO struct {
	ID           int64  `json:"id"`
	BidID        int64  `json:"bidId"`
	DocumentName string `json:"documentName"`
	ContentType  string `json:"contentType,omitempty"`
	Size         int64  `json:"size"`
	UploadedAt   string `json:"uploadedAt"`
}

type NotificationDTO struct {
	ID            int64   `json:"id"`
	RecipientRole string  `json:"recipientRole"`
	Type          string  `json:"type"`
	Title         string  `json:"title"`
	Message       string  `json:"message"`
	BidID         *int64  `json:"bidId,omitempty"`
	Read          bool    `json:"read"`
	ReadAt        *string `json:"readAt,omitempty"`
	CreatedAt     string  `json:"createdAt"`
}

// UnreadCountDTO represents the count of unread notifications for a role
type UnreadCountDTO struct {
	Count int64 `json:"count"`
}

// StageRegistryEntryDTO maps a stage to its accountable owner
type StageRegistryEntryDTO struct {
	Stage    string `json:"stage"`
	Owner    string `json:"owner"`
	Terminal bool   `json:"terminal"`
}

// StatusCountDTO holds the number of bids in one status
type StatusCountDTO struct {
	Status BidStatus `json:"status"`
	Count  int64     `json:"count"`
}

// LossReasonCountDTO aggregates lost bids by recorded reason
type LossReasonCountDTO struct {
	Reason string `json:"reason"`
	Count  int64  `json:"count"`
}

// DashboardDTO holds portfolio-level metrics across all bids
type DashboardDTO struct {
	TotalBids         int64                `json:"totalBids"`
	OpenBids          int64                `json:"openBids"`
	WonBids           int64                `json:"wonBids"`
	LostBids          int64                `json:"lostBids"`
	WinRate           float64              `json:"winRate"`       // won / (won + lost), 0 when undecided
	PipelineValue     float64              `json:"pipelineValue"` // summed bid_value of non-lost bids
	UpcomingDeadlines int64                `json:"upcomingDeadlines"`
	AvgBidAgeDays     float64              `json:"avgBidAgeDays"` // undecided bids only
	StatusCounts      []StatusCountDTO     `json:"statusCounts"`
	LossReasons       []LossReasonCountDTO `json:"lossReasons,omitempty"`
}

// ActiveStageDTO is one row of the active-stage projection: a bid currently
// sitting in an open stage and the role accountable for moving it
type ActiveStageDTO struct {
	BidID      int64  `json:"bidId"`
	BidTitle   string `json:"bidTitle"`
	Stage      string `json:"stage"`
	StageOwner string `json:"stageOwner"`
	Since      string `json:"since"`
}

// BidListDTO wraps a page of bids with the total match count
type BidListDTO struct {
	Bids  []BidDTO `json:"bids"`
	Total int64    `json:"total"`
}

// NotificationListDTO wraps a page of notifications with the total match count
type NotificationListDTO struct {
	Notifications []NotificationDTO `json:"notifications"`
	Total         int64             `json:"total"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// Request payloads

type CreateBidRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description,omitempty" validate:"max=2000"`
	DueDate     string   `json:"dueDate" validate:"required,datetime=2006-01-02"`
	AssignedTo  string   `json:"assignedTo" validate:"required,max=200"`
	ClientName  string   `json:"clientName" validate:"required,max=200"`
	BidValue    *float64 `json:"bidValue,omitempty" validate:"omitempty,gte=0"`
}

type UpdateBidRequest struct {
	Title       *string  `json:"title,omitempty" validate:"omitempty,max=200"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=2000"`
	DueDate     *string  `json:"dueDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	AssignedTo  *string  `json:"assignedTo,omitempty" validate:"omitempty,max=200"`
	ClientName  *string  `json:"clientName,omitempty" validate:"omitempty,max=200"`
	BidValue    *float64 `json:"bidValue,omitempty" validate:"omitempty,gte=0"`
}

// TransitionStageRequest moves a bid to a new stage. LockVersion must match
// the bid's current version or the transition fails with a conflict.
type TransitionStageRequest struct {
	Stage       string `json:"stage" validate:"required,max=100"`
	Notes       string `json:"notes,omitempty" validate:"max=2000"`
	LockVersion int64  `json:"lockVersion" validate:"gte=0"`
}

// SetStatusRequest changes a bid's status. Reason is required when the new
// status is Lost.
type SetStatusRequest struct {
	Status      BidStatus `json:"status" validate:"required,oneof=Open Submitted Won Lost"`
	Reason      string    `json:"reason,omitempty" validate:"max=500"`
	LockVersion int64     `json:"lockVersion" validate:"gte=0"`
}

type CreateUserRequest struct {
	Username string   `json:"username" validate:"required,min=3,max=100,alphanum"`
	Role     UserRole `json:"role" validate:"required,oneof=salesperson manager admin"`
}

type UpdateUserRoleRequest struct {
	Role UserRole `json:"role" validate:"required,oneof=salesperson manager admin"`
}
