package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"audiochamber/internal/adapters/persistence/models"
	"audiochamber/internal/adapters/persistence/repositories"
	"audiochamber/internal/core/domain"
	"audiochamber/internal/pkg/pagination"
	"audiochamber/internal/pkg/password"
)

type userFixture struct {
	svc    *UserService
	users  repositories.UserRepository
	tokens repositories.RefreshTokenRepository
	admin  domain.Actor
	owner  domain.Actor
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	db := newTestDB(t)
	f := &userFixture{
		users:  repositories.NewUserRepository(db),
		tokens: repositories.NewRefreshTokenRepository(db),
	}
	f.svc = NewUserService(f.users, f.tokens)
	f.admin = createUser(t, f.users, "admin@example.com", domain.RoleAdmin, "secret1").Actor()
	f.owner = createUser(t, f.users, "owner@example.com", domain.RoleOwner, "").Actor()
	return f
}

func TestSelfServiceGuards(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	if _, err := f.svc.SetRole(ctx, f.admin.ID, f.admin, domain.RoleUser); !errors.Is(err, domain.ErrCannotChangeOwnRole) {
		t.Fatalf("self role change err = %v", err)
	}
	if err := f.svc.DeleteUser(ctx, f.admin.ID, f.admin); !errors.Is(err, domain.ErrCannotDeleteSelf) {
		t.Fatalf("self delete err = %v", err)
	}
	if _, err := f.svc.SetActive(ctx, f.admin.ID, f.admin, false); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("self deactivate err = %v", err)
	}

	stored, _ := f.users.GetByID(ctx, f.admin.ID)
	if stored.Role != domain.RoleAdmin || !stored.IsActive {
		t.Fatalf("admin changed: %+v", stored)
	}
}

func TestSetRole(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	user := createUser(t, f.users, "user@example.com", domain.RoleUser, "")

	res, err := f.svc.SetRole(ctx, user.ID, f.admin, domain.RoleAdmin)
	if err != nil || res.Role != domain.RoleAdmin {
		t.Fatalf("promote = %+v, %v", res, err)
	}
	if _, err := f.svc.SetRole(ctx, user.ID, f.admin, domain.RoleOwner); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("assign owner err = %v", err)
	}
	if _, err := f.svc.SetRole(ctx, f.owner.ID, f.admin, domain.RoleUser); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("admin demoting owner err = %v", err)
	}
	if _, err := f.svc.SetRole(ctx, 9999, f.admin, domain.RoleUser); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing user err = %v", err)
	}
}

func TestSetActiveRevokesSessions(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	user := createUser(t, f.users, "user@example.com", domain.RoleUser, "")

	token := &models.RefreshToken{UserID: user.ID, TokenHash: "h1", ExpiresAt: time.Now().Add(time.Hour)}
	if err := f.tokens.Create(ctx, token); err != nil {
		t.Fatalf("create token: %v", err)
	}

	res, err := f.svc.SetActive(ctx, user.ID, f.admin, false)
	if err != nil || res.IsActive {
		t.Fatalf("deactivate = %+v, %v", res, err)
	}
	if n, _ := f.tokens.CountActiveByUserID(ctx, user.ID); n != 0 {
		t.Fatalf("%d sessions survived deactivation", n)
	}

	res, err = f.svc.SetActive(ctx, user.ID, f.admin, true)
	if err != nil || !res.IsActive {
		t.Fatalf("reactivate = %+v, %v", res, err)
	}
}

func TestDeleteUser(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	user := createUser(t, f.users, "user@example.com", domain.RoleUser, "")

	if err := f.svc.DeleteUser(ctx, f.owner.ID, f.admin); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("admin deleting owner err = %v", err)
	}
	if err := f.svc.DeleteUser(ctx, user.ID, f.admin); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := f.svc.GetUserByID(ctx, user.ID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("deleted user err = %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	err := f.svc.ChangePassword(ctx, f.admin.ID, &ChangePasswordInput{CurrentPassword: "wrong", NewPassword: "newsecret"})
	if !errors.Is(err, domain.ErrOldPasswordWrong) {
		t.Fatalf("wrong current err = %v", err)
	}
	err = f.svc.ChangePassword(ctx, f.admin.ID, &ChangePasswordInput{CurrentPassword: "secret1", NewPassword: "123"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("short password err = %v", err)
	}
	err = f.svc.ChangePassword(ctx, f.owner.ID, &ChangePasswordInput{CurrentPassword: "x", NewPassword: "newsecret"})
	if !errors.Is(err, domain.ErrNoPasswordCredential) {
		t.Fatalf("federated account err = %v", err)
	}

	if err := f.svc.ChangePassword(ctx, f.admin.ID, &ChangePasswordInput{CurrentPassword: "secret1", NewPassword: "newsecret"}); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	stored, _ := f.users.GetByID(ctx, f.admin.ID)
	if !password.Verify("newsecret", stored.Password) {
		t.Fatal("new password not stored")
	}
}

func TestListUsers(t *testing.T) {
	f := newUserFixture(t)
	createUser(t, f.users, "user@example.com", domain.RoleUser, "")

	res, err := f.svc.ListUsers(context.Background(), pagination.New(1, 2))
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	users, ok := res.Data.([]*models.UserResponse)
	if !ok || len(users) != 2 {
		t.Fatalf("data = %#v", res.Data)
	}
	if res.Meta.Total != 3 || !res.Meta.HasNext {
		t.Fatalf("meta = %+v", res.Meta)
	}
}

// racingDeleteRepo deletes the user just before each Update lands
type racingDeleteRepo struct {
	repositories.UserRepository
}

func (r racingDeleteRepo) Update(ctx context.Context, user *models.User) error {
	if err := r.UserRepository.Delete(ctx, user.ID); err != nil {
		return err
	}
	return r.UserRepository.Update(ctx, user)
}

func TestConcurrentDeleteIsNotUndone(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	svc := NewUserService(racingDeleteRepo{f.users}, f.tokens)

	user := createUser(t, f.users, "user@example.com", domain.RoleUser, "")
	if _, err := svc.SetRole(ctx, user.ID, f.admin, domain.RoleAdmin); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("SetRole err = %v, want ErrUserNotFound", err)
	}
	if _, err := f.users.GetByID(ctx, user.ID); err == nil {
		t.Fatal("deleted user was recreated by the role change")
	}
}
