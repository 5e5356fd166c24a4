package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bidwatch/bid-api/internal/domain"
	"github.com/bidwatch/bid-api/internal/mapper"
	"github.com/bidwatch/bid-api/internal/repository"
)

type UserService struct {
	userRepo *repository.UserRepository
	logger   *zap.Logger
}

func NewUserService(userRepo *repository.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// Create registers a new user. Usernames are unique; a taken name fails
// with ErrDuplicateUsername.
func (s *UserService) Create(ctx context.Context, req *domain.CreateUserRequest) (*domain.UserDTO, error) {
	if !req.Role.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidInput, req.Role)
	}

	if _, err := s.userRepo.GetByUsername(ctx, req.Username); err == nil {
		return nil, ErrDuplicateUsername
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	user := &domain.User{
		Username: req.Username,
		Role:     req.Role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// The unique index can still fire under a concurrent create
		return nil, ErrDuplicateUsername
	}

	s.logger.Info("user created",
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)))

	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*domain.UserDTO, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*domain.UserDTO, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

func (s *UserService) List(ctx context.Context) ([]domain.UserDTO, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	dtos := make([]domain.UserDTO, len(users))
	for i := range users {
		dtos[i] = mapper.ToUserDTO(&users[i])
	}
	return dtos, nil
}

// UpdateRole changes a user's role. Demoting the last admin is refused so
// the system always has at least one.
func (s *UserService) UpdateRole(ctx context.Context, id int64, role domain.UserRole) (*domain.UserDTO, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidInput, role)
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.Role == domain.RoleAdmin && role != domain.RoleAdmin {
		admins, err := s.countAdmins(ctx)
		if err != nil {
			return nil, err
		}
		if admins <= 1 {
			return nil, fmt.Errorf("%w: cannot demote the last admin", ErrPermissionDenied)
		}
	}

	if err := s.userRepo.UpdateRole(ctx, id, role); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	s.logger.Info("user role updated",
		zap.String("username", user.Username),
		zap.String("old_role", string(user.Role)),
		zap.String("new_role", string(role)))

	user.Role = role
	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if user.Role == domain.RoleAdmin {
		admins, err := s.countAdmins(ctx)
		if err != nil {
			return err
		}
		if admins <= 1 {
			return fmt.Errorf("%w: cannot delete the last admin", ErrPermissionDenied)
		}
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (s *UserService) countAdmins(ctx context.Context) (int, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list users: %w", err)
	}
	count := 0
	for i := range users {
		if users[i].Role == domain.RoleAdmin {
			count++
		}
	}
	return count, nil
}
