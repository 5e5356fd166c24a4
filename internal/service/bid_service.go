package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bidwatch/bid-api/internal/auth"
	"github.com/bidwatch/bid-api/internal/config"
	"github.com/bidwatch/bid-api/internal/domain"
	"github.com/bidwatch/bid-api/internal/events"
	"github.com/bidwatch/bid-api/internal/mapper"
	"github.com/bidwatch/bid-api/internal/repository"
)

// BidService owns the bid lifecycle: creation, stage transitions, outcome
// changes, and the audit trail. Every mutation runs in a single transaction
// so the bid row, its stage intervals, and the history ledger never drift
// apart.
type BidService struct {
	bidRepo   *repository.BidRepository
	stageRepo *repository.StageIntervalRepository
	histRepo  *repository.HistoryRepository
	bus       *events.Bus
	reminders *config.RemindersConfig
	logger    *zap.Logger
	db        *gorm.DB
}

func NewBidService(
	bidRepo *repository.BidRepository,
	stageRepo *repository.StageIntervalRepository,
	histRepo *repository.HistoryRepository,
	bus *events.Bus,
	reminders *config.RemindersConfig,
	logger *zap.Logger,
	db *gorm.DB,
) *BidService {
	return &BidService{
		bidRepo:   bidRepo,
		stageRepo: stageRepo,
		histRepo:  histRepo,
		bus:       bus,
		reminders: reminders,
		logger:    logger,
		db:        db,
	}
}

// Create opens a new bid in the initial stage with an open stage interval.
// Creation itself is not an audited change; the ledger starts with the
// first mutation.
func (s *BidService) Create(ctx context.Context, req *domain.CreateBidRequest) (*domain.BidDTO, error) {
	dueDate, err := mapper.ParseDueDate(req.DueDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid due date %q", ErrInvalidInput, req.DueDate)
	}

	actor := auth.ActorName(ctx)
	now := time.Now().UTC()
	stage := domain.InitialStage()

	bid := &domain.Bid{
		Title:       req.Title,
		Description: req.Description,
		Status:      domain.BidStatusOpen,
		Stage:       stage,
		DueDate:     dueDate,
		AssignedTo:  req.AssignedTo,
		CreatedBy:   actor,
		CreatedAt:   now,
		ClientName:  req.ClientName,
		BidValue:    req.BidValue,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.bidRepo.WithTx(tx).Create(ctx, bid); err != nil {
			return fmt.Errorf("failed to create bid: %w", err)
		}

		interval := &domain.StageInterval{
			BidID:      bid.ID,
			Stage:      stage,
			StageOwner: domain.OwnerFor(stage),
			StartedAt:  now,
			Notes:      "Bid created",
		}
		if err := s.stageRepo.WithTx(tx).Create(ctx, interval); err != nil {
			return fmt.Errorf("failed to open initial stage: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("bid created",
		zap.Int64("bid_id", bid.ID),
		zap.String("title", bid.Title),
		zap.String("created_by", actor))

	dto := mapper.ToBidDTO(bid)
	return &dto, nil
}

func (s *BidService) GetByID(ctx context.Context, id int64) (*domain.BidDTO, error) {
	bid, err := s.bidRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get bid: %w", err)
	}

	dto := mapper.ToBidDTO(bid)
	return &dto, nil
}

// Update applies a partial update to a bid's descriptive fields. Every
// changed field is logged to the audit trail individually.
func (s *BidService) Update(ctx context.Context, id int64, req *domain.UpdateBidRequest) (*domain.BidDTO, error) {
	bid, err := s.bidRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get bid: %w", err)
	}

	if bid.Status.IsTerminal() {
		return nil, ErrBidClosed
	}

	actor := auth.ActorName(ctx)
	updates := make(map[string]interface{})

	type change struct {
		field    string
		oldValue string
		newValue string
	}
	var changes []change

	if req.Title != nil && *req.Title != bid.Title {
		updates["title"] = *req.Title
		changes = append(changes, change{"title", bid.Title, *req.Title})
	}
	if req.Description != nil && *req.Description != bid.Description {
		updates["description"] = *req.Description
		changes = append(changes, change{"description", bid.Description, *req.Description})
	}
	if req.DueDate != nil {
		dueDate, err := mapper.ParseDueDate(*req.DueDate)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid due date %q", ErrInvalidInput, *req.DueDate)
		}
		if !dueDate.Equal(bid.DueDate) {
			updates["due_date"] = dueDate
			changes = append(changes, change{"due_date", bid.DueDate.Format("2006-01-02"), *req.DueDate})
		}
	}
	if req.AssignedTo != nil && *req.AssignedTo != bid.AssignedTo {
		updates["assigned_to"] = *req.AssignedTo
		changes = append(changes, change{"assigned_to", bid.AssignedTo, *req.AssignedTo})
	}
	if req.ClientName != nil && *req.ClientName != bid.ClientName {
		updates["client_name"] = *req.ClientName
		changes = append(changes, change{"client_name", bid.ClientName, *req.ClientName})
	}
	if req.BidValue != nil && (bid.BidValue == nil || *bid.BidValue != *req.BidValue) {
		updates["bid_value"] = *req.BidValue
		oldValue := ""
		if bid.BidValue != nil {
			oldValue = strconv.FormatFloat(*bid.BidValue, 'f', 2, 64)
		}
		changes = append(changes, change{"bid_value", oldValue, strconv.FormatFloat(*req.BidValue, 'f', 2, 64)})
	}

	if len(updates) == 0 {
		dto := mapper.ToBidDTO(bid)
		return &dto, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.bidRepo.WithTx(tx).UpdateFields(ctx, id, updates); err != nil {
			return fmt.Errorf("failed to update bid: %w", err)
		}
		hist := s.histRepo.WithTx(tx)
		for _, c := range changes {
			if err := hist.RecordChange(ctx, id, actor, c.field, c.oldValue, c.newValue); err != nil {
				return fmt.Errorf("failed to record audit entry: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	bid, err = s.bidRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload bid: %w", err)
	}

	dto := mapper.ToBidDTO(bid)
	return &dto, nil
}

// TransitionStage moves a bid to a new pipeline stage. The terminal stages
// are reached only through SetStatus.
func (s *BidService) TransitionStage(ctx context.Context, id int64, req *domain.TransitionStageRequest) (*domain.BidDTO, error) {
	bid, err := s.bidRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get bid: %w", err)
	}

	if bid.Status.IsTerminal() {
		return nil, ErrBidClosed
	}
	if !domain.IsKnownStage(req.Stage) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStage, req.Stage)
	}
	if domain.IsTerminalStage(req.Stage) {
		return nil, fmt.Errorf("%w: stage %q is set by the bid outcome", ErrInvalidStatus, req.Stage)
	}
	if req.Stage == bid.Stage {
		return nil, fmt.Errorf("%w: bid is already in stage %q", ErrStageAlreadyVisited, req.Stage)
	}

	actor := auth.ActorName(ctx)
	now := time.Now().UTC()
	fromStage := bid.Stage

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := s.bidRepo.WithTx(tx).UpdateGuarded(ctx, id, req.LockVersion, map[string]interface{}{
			"stage": req.Stage,
		})
		if err != nil {
			return fmt.Errorf("failed to update bid stage: %w", err)
		}
		if rows == 0 {
			return ErrConflict
		}
		return s.applyStageTx(ctx, tx, bid, req.Stage, req.Notes, actor, now)
	})
	if err != nil {
		return nil, err
	}

	s.publishTransition(ctx, bid, fromStage, req.Stage, actor, now)

	bid, err = s.bidRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload bid: %w", err)
	}

	dto := mapper.ToBidDTO(bid)
	return &dto, nil
}

// SetStatus changes a bid's outcome status. Won and Lost are compound: they
// also move the bid into the matching terminal stage in the same
// transaction.
func (s *BidService) SetStatus(ctx context.Context, id int64, req *domain.SetStatusRequest) (*domain.BidDTO, error) {
	bid, err := s.bidRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get bid: %w", err)
	}

	if !req.Status.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, req.Status)
	}
	if bid.Status.IsTerminal() {
		return nil, ErrBidClosed
	}
	if req.Status == bid.Status {
		dto := mapper.ToBidDTO(bid)
		return &dto, nil
	}
	if req.Status == domain.BidStatusLost && req.Reason == "" {
		return nil, ErrReasonRequired
	}

	actor := auth.ActorName(ctx)
	now := time.Now().UTC()
	oldStatus := bid.Status
	fromStage := bid.Stage

	updates := map[string]interface{}{"status": req.Status}
	var targetStage, stageNotes string
	switch req.Status {
	case domain.BidStatusWon:
		targetStage = domain.StageAwarded
		stageNotes = "Bid won!"
		updates["stage"] = targetStage
	case domain.BidStatusLost:
		targetStage = domain.StageLost
		stageNotes = "Bid lost: " + req.Reason
		updates["stage"] = targetStage
		updates["reason"] = req.Reason
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := s.bidRepo.WithTx(tx).UpdateGuarded(ctx, id, req.LockVersion, updates)
		if err != nil {
			return fmt.Errorf("failed to update bid status: %w", err)
		}
		if rows == 0 {
			return ErrConflict
		}

		hist := s.histRepo.WithTx(tx)
		if err := hist.RecordChange(ctx, id, actor, "status", string(oldStatus), string(req.Status)); err != nil {
			return fmt.Errorf("failed to record audit entry: %w", err)
		}
		if req.Status == domain.BidStatusLost {
			if err := hist.RecordChange(ctx, id, actor, "reason", bid.Reason, req.Reason); err != nil {
				return fmt.Errorf("failed to record audit entry: %w", err)
			}
		}

		if targetStage != "" {
			return s.applyStageTx(ctx, tx, bid, targetStage, stageNotes, actor, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("bid status changed",
		zap.Int64("bid_id", id),
		zap.String("old_status", string(oldStatus)),
		zap.String("new_status", string(req.Status)),
		zap.String("changed_by", actor))

	s.bus.PublishStatusChange(ctx, domain.StatusChanged{
		BidID:     id,
		BidTitle:  bid.Title,
		OldStatus: oldStatus,
		NewStatus: req.Status,
		Reason:    req.Reason,
		ChangedBy: actor,
		ChangedAt: now,
	})
	if targetStage != "" {
		s.publishTransition(ctx, bid, fromStage, targetStage, actor, now)
	}

	bid, err = s.bidRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload bid: %w", err)
	}

	dto := mapper.ToBidDTO(bid)
	return &dto, nil
}

// applyStageTx closes the bid's open interval, opens one for the new stage,
// and appends the stage change to the audit trail. The bid row update and
// version bump happen before this in the same transaction.
func (s *BidService) applyStageTx(ctx context.Context, tx *gorm.DB, bid *domain.Bid, toStage, notes, actor string, now time.Time) error {
	stages := s.stageRepo.WithTx(tx)

	visited, err := stages.HasVisitedStage(ctx, bid.ID, toStage)
	if err != nil {
		return fmt.Errorf("failed to check stage history: %w", err)
	}
	if visited {
		return fmt.Errorf("%w: %q", ErrStageAlreadyVisited, toStage)
	}

	if err := stages.CloseOpen(ctx, bid.ID, now); err != nil {
		return fmt.Errorf("failed to close open stage interval: %w", err)
	}

	interval := &domain.StageInterval{
		BidID:      bid.ID,
		Stage:      toStage,
		StageOwner: domain.OwnerFor(toStage),
		StartedAt:  now,
		Notes:      notes,
	}
	if err := stages.Create(ctx, interval); err != nil {
		return fmt.Errorf("failed to open stage interval: %w", err)
	}

	if err := s.histRepo.WithTx(tx).RecordChange(ctx, bid.ID, actor, "stage", bid.Stage, toStage); err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

func (s *BidService) publishTransition(ctx context.Context, bid *domain.Bid, fromStage, toStage, actor string, now time.Time) {
	s.logger.Info("bid stage transitioned",
		zap.Int64("bid_id", bid.ID),
		zap.String("from_stage", fromStage),
		zap.String("to_stage", toStage),
		zap.String("changed_by", actor))

	s.bus.PublishStageTransition(ctx, domain.StageTransitioned{
		BidID:      bid.ID,
		BidTitle:   bid.Title,
		FromStage:  fromStage,
		ToStage:    toStage,
		StageOwner: domain.OwnerFor(toStage),
		ChangedBy:  actor,
		ChangedAt:  now,
	})
}

func (s *BidService) List(ctx context.Context, page, pageSize int, filters *repository.BidFilters, sortBy repository.BidSortOption) (*domain.BidListDTO, error) {
	// Clamp page size
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 200 {
		pageSize = 200
	}
	if page < 1 {
		page = 1
	}

	bids, total, err := s.bidRepo.List(ctx, page, pageSize, filters, sortBy)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids: %w", err)
	}

	return &domain.BidListDTO{
		Bids:  mapper.ToBidDTOs(bids),
		Total: total,
	}, nil
}

// Search matches bids by title or client name
func (s *BidService) Search(ctx context.Context, query string, limit int) ([]domain.BidDTO, error) {
	if limit < 1 || limit > 100 {
		limit = 25
	}
	bids, err := s.bidRepo.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search bids: %w", err)
	}
	return mapper.ToBidDTOs(bids), nil
}

// GetDueSoon returns open bids due within the configured reminder window,
// including any already past due
func (s *BidService) GetDueSoon(ctx context.Context) ([]domain.BidDTO, error) {
	cutoff := time.Now().UTC().Add(s.reminders.DueSoonWindow())
	bids, err := s.bidRepo.GetDueSoon(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to get due-soon bids: %w", err)
	}
	return mapper.ToBidDTOs(bids), nil
}

// GetStageIntervals returns the bid's stage occupancy timeline in
// chronological order
func (s *BidService) GetStageIntervals(ctx context.Context, bidID int64) ([]domain.StageIntervalDTO, error) {
	if _, err := s.bidRepo.GetByID(ctx, bidID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get bid: %w", err)
	}

	intervals, err := s.stageRepo.GetByBidID(ctx, bidID)
	if err != nil {
		return nil, fmt.Errorf("failed to get stage intervals: %w", err)
	}
	return mapper.ToStageIntervalDTOs(intervals), nil
}

// GetActiveStages projects every bid currently sitting in an open stage
// together with the role accountable for moving it, oldest stage first
func (s *BidService) GetActiveStages(ctx context.Context) ([]domain.ActiveStageDTO, error) {
	intervals, err := s.stageRepo.GetActiveIntervals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get active stages: %w", err)
	}
	return mapper.ToActiveStageDTOs(intervals), nil
}

// GetAuditTrail returns the full history ledger for a bid, newest first
func (s *BidService) GetAuditTrail(ctx context.Context, bidID int64) ([]domain.HistoryRecordDTO, error) {
	if _, err := s.bidRepo.GetByID(ctx, bidID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get bid: %w", err)
	}

	records, err := s.histRepo.GetByBidID(ctx, bidID)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit trail: %w", err)
	}
	return mapper.ToHistoryRecordDTOs(records), nil
}

// GetRecentActivity returns the latest audit records across all bids
func (s *BidService) GetRecentActivity(ctx context.Context) ([]domain.HistoryRecordDTO, error) {
	records, err := s.histRepo.GetRecent(ctx, s.reminders.RecentActivityLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent activity: %w", err)
	}
	return mapper.ToHistoryRecordDTOs(records), nil
}

// GetStageRegistry returns every known stage and its accountable owner
func (s *BidService) GetStageRegistry(ctx context.Context) []domain.StageRegistryEntryDTO {
	names := domain.StageNames()
	entries := make([]domain.StageRegistryEntryDTO, len(names))
	for i, name := range names {
		entries[i] = domain.StageRegistryEntryDTO{
			Stage:    name,
			Owner:    domain.OwnerFor(name),
			Terminal: domain.IsTerminalStage(name),
		}
	}
	return entries
}
