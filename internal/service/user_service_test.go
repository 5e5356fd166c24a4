package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bidwatch/bid-api/internal/domain"
	"github.com/bidwatch/bid-api/internal/repository"
	"github.com/bidwatch/bid-api/internal/service"
	"github.com/bidwatch/bid-api/internal/testutil"
)

func newUserService(t *testing.T, db *gorm.DB) *service.UserService {
	t.Helper()
	return service.NewUserService(repository.NewUserRepository(db), zap.NewNop())
}

func TestUserService_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newUserService(t, db)

	dto, err := svc.Create(context.Background(), &domain.CreateUserRequest{
		Username: "alice",
		Role:     domain.RoleSalesperson,
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", dto.Username)
	assert.Equal(t, domain.RoleSalesperson, dto.Role)
	assert.NotZero(t, dto.ID)
}

func TestUserService_Create_DuplicateUsername(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newUserService(t, db)

	_, err := svc.Create(context.Background(), &domain.CreateUserRequest{
		Username: "alice",
		Role:     domain.RoleSalesperson,
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), &domain.CreateUserRequest{
		Username: "alice",
		Role:     domain.RoleManager,
	})
	assert.ErrorIs(t, err, service.ErrDuplicateUsername)
}

func TestUserService_Create_InvalidRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newUserService(t, db)

	_, err := svc.Create(context.Background(), &domain.CreateUserRequest{
		Username: "bob",
		Role:     "superuser",
	})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestUserService_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newUserService(t, db)

	_, err := svc.GetByID(context.Background(), 9999)
	assert.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestUserService_UpdateRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newUserService(t, db)
	user := testutil.CreateTestUser(t, db, "bob", domain.RoleSalesperson)

	dto, err := svc.UpdateRole(context.Background(), user.ID, domain.RoleManager)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleManager, dto.Role)
}

func TestUserService_UpdateRole_LastAdminGuard(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newUserService(t, db)
	admin := testutil.CreateTestUser(t, db, "root", domain.RoleAdmin)

	_, err := svc.UpdateRole(context.Background(), admin.ID, domain.RoleSalesperson)
	assert.ErrorIs(t, err, service.ErrPermissionDenied)

	// With a second admin the demotion goes through
	testutil.CreateTestUser(t, db, "backup", domain.RoleAdmin)
	dto, err := svc.UpdateRole(context.Background(), admin.ID, domain.RoleSalesperson)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSalesperson, dto.Role)
}

func TestUserService_Delete_LastAdminGuard(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newUserService(t, db)
	admin := testutil.CreateTestUser(t, db, "root", domain.RoleAdmin)

	err := svc.Delete(context.Background(), admin.ID)
	assert.ErrorIs(t, err, service.ErrPermissionDenied)

	testutil.CreateTestUser(t, db, "backup", domain.RoleAdmin)
	require.NoError(t, svc.Delete(context.Background(), admin.ID))

	_, err = svc.GetByID(context.Background(), admin.ID)
	assert.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestUserService_List(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newUserService(t, db)
	testutil.CreateTestUser(t, db, "alice", domain.RoleSalesperson)
	testutil.CreateTestUser(t, db, "bob", domain.RoleManager)

	users, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
