package mapper

import (
	"time"

	"github.com/bidwatch/bid-api/internal/domain"
)

const timestampFormat = "2006-01-02T15:04:05Z"

// ToBidDTO converts Bid to BidDTO
func ToBidDTO(bid *domain.Bid) domain.BidDTO {
	return domain.BidDTO{
		ID:          bid.ID,
		Title:       bid.Title,
		Description: bid.Description,
		Status:      bid.Status,
		Stage:       bid.Stage,
		StageOwner:  domain.OwnerFor(bid.Stage),
		DueDate:     bid.DueDate.Format("2006-01-02"),
		AssignedTo:  bid.AssignedTo,
		CreatedBy:   bid.CreatedBy,
		ClientName:  bid.ClientName,
		BidValue:    bid.BidValue,
		Reason:      bid.Reason,
		LockVersion: bid.LockVersion,
		CreatedAt:   bid.CreatedAt.Format(timestampFormat),
	}
}

// ToBidDTOs converts a slice of Bids to BidDTOs
func ToBidDTOs(bids []domain.Bid) []domain.BidDTO {
	dtos := make([]domain.BidDTO, len(bids))
	for i := range bids {
		dtos[i] = ToBidDTO(&bids[i])
	}
	return dtos
}

// ToStageIntervalDTO converts StageInterval to StageIntervalDTO
func ToStageIntervalDTO(interval *domain.StageInterval) domain.StageIntervalDTO {
	dto := domain.StageIntervalDTO{
		ID:         interval.ID,
		BidID:      interval.BidID,
		Stage:      interval.Stage,
		StageOwner: interval.StageOwner,
		StartedAt:  interval.StartedAt.Format(timestampFormat),
		Notes:      interval.Notes,
	}

	if interval.CompletedAt != nil {
		completed := interval.CompletedAt.Format(timestampFormat)
		dto.CompletedAt = &completed
	}

	return dto
}

// ToStageIntervalDTOs converts a slice of StageIntervals to DTOs
func ToStageIntervalDTOs(intervals []domain.StageInterval) []domain.StageIntervalDTO {
	dtos := make([]domain.StageIntervalDTO, len(intervals))
	for i := range intervals {
		dtos[i] = ToStageIntervalDTO(&intervals[i])
	}
	return dtos
}

// ToActiveStageDTO converts an open StageInterval to the active-stage
// projection. The interval's Bid must be preloaded.
func ToActiveStageDTO(interval *domain.StageInterval) domain.ActiveStageDTO {
	dto := domain.ActiveStageDTO{
		BidID:      interval.BidID,
		Stage:      interval.Stage,
		StageOwner: interval.StageOwner,
		Since:      interval.StartedAt.Format(timestampFormat),
	}
	if interval.Bid != nil {
		dto.BidTitle = interval.Bid.Title
	}
	return dto
}

// ToActiveStageDTOs converts a slice of open StageIntervals to DTOs
func ToActiveStageDTOs(intervals []domain.StageInterval) []domain.ActiveStageDTO {
	dtos := make([]domain.ActiveStageDTO, len(intervals))
	for i := range intervals {
		dtos[i] = ToActiveStageDTO(&intervals[i])
	}
	return dtos
}

// ToHistoryRecordDTO converts HistoryRecord to HistoryRecordDTO
func ToHistoryRecordDTO(record *domain.HistoryRecord) domain.HistoryRecordDTO {
	return domain.HistoryRecordDTO{
		ID:           record.ID,
		BidID:        record.BidID,
		ChangedAt:    record.ChangedAt.Format(timestampFormat),
		ChangedBy:    record.ChangedBy,
		FieldChanged: record.FieldChanged,
		OldValue:     record.OldValue,
		NewValue:     record.NewValue,
	}
}

// ToHistoryRecordDTOs converts a slice of HistoryRecords to DTOs
func ToHistoryRecordDTOs(records []domain.HistoryRecord) []domain.HistoryRecordDTO {
	dtos := make([]domain.HistoryRecordDTO, len(records))
	for i := range records {
		dtos[i] = ToHistoryRecordDTO(&records[i])
	}
	return dtos
}

// ToUserDTO converts User to UserDTO
func ToUserDTO(user *domain.User) domain.UserDTO {
	return domain.UserDTO{
		ID:       user.ID,
		Username: user.Username,
		Role:     user.Role,
	}
}

// ToDocumentDTO converts Document to DocumentDTO
func ToDocumentDTO(doc *domain.Document) domain.DocumentDTO {
	return domain.DocumentDTO{
		ID:           doc.ID,
		BidID:        doc.BidID,
		DocumentName: doc.DocumentName,
		ContentType:  doc.ContentType,
		Size:         doc.Size,
		UploadedAt:   doc.UploadedAt.Format(timestampFormat),
	}
}

// ToNotificationDTO converts Notification to NotificationDTO
func ToNotificationDTO(n *domain.Notification) domain.NotificationDTO {
	dto := domain.NotificationDTO{
		ID:            n.ID,
		RecipientRole: n.RecipientRole,
		Type:          n.Type,
		Title:         n.Title,
		Message:       n.Message,
		BidID:         n.BidID,
		Read:          n.Read,
		CreatedAt:     n.CreatedAt.Format(timestampFormat),
	}

	if n.ReadAt != nil {
		readAt := n.ReadAt.Format(timestampFormat)
		dto.ReadAt = &readAt
	}

	return dto
}

// ParseDueDate parses a YYYY-MM-DD due date string
func ParseDueDate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}
