package domain

import "time"

// StageTransitioned is published after a bid moves into a new stage. The
// transition is already committed when subscribers see the event.
type StageTransitioned struct {
	BidID      int64
	BidTitle   string
	FromStage  string
	ToStage    string
	StageOwner string
	ChangedBy  string
	ChangedAt  time.Time
}

// StatusChanged is published after a bid's status changes, including the
// Won and Lost outcomes.
type StatusChanged struct {
	BidID     int64
	BidTitle  string
	OldStatus BidStatus
	NewStatus BidStatus
	Reason    string
	ChangedBy string
	ChangedAt time.Time
}
