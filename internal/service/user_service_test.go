package service

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/helpdesk-mini/internal/auth"
	"github.com/spec-kit/helpdesk-mini/internal/config"
	"github.com/spec-kit/helpdesk-mini/internal/domain"
	"github.com/spec-kit/helpdesk-mini/internal/repository"
)

func authHashForTest(password string) (string, error) {
	return auth.HashPassword(password, bcrypt.MinCost)
}

func newAuthServiceForTest(users repository.UserRepository) *AuthService {
	return NewAuthService(config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 5,
		BcryptCost:            bcrypt.MinCost,
	}, users)
}

func TestListAgentsFiltersRolesAndActive(t *testing.T) {
	agent := testUser("a1", domain.RoleAgent)
	admin := testUser("adm", domain.RoleAdmin)
	requester := testUser("u1", domain.RoleUser)
	inactive := testUser("a2", domain.RoleAgent)
	inactive.Active = false
	repo := newFakeUserRepo(agent, admin, requester, inactive)
	svc := NewUserService(repo)
	ctx := context.Background()

	agents, err := svc.ListAgents(ctx, &agent)
	if err != nil {
		t.Fatalf("ListAgents: %v", err)
	}
	if len(agents) != 2 {
		t.Fatalf("expected agent and admin only, got %d", len(agents))
	}
	for _, candidate := range agents {
		if !candidate.Role.CanBeAssignee() || !candidate.Active {
			t.Errorf("unexpected candidate %s (%s, active=%v)",
				candidate.ID, candidate.Role, candidate.Active)
		}
	}

	// Plain users have no business with the assignment picker.
	_, err = svc.ListAgents(ctx, &requester)
	assertCode(t, err, "ACCESS_DENIED")
}

func TestDeactivateUser(t *testing.T) {
	admin := testUser("adm", domain.RoleAdmin)
	agent := testUser("a1", domain.RoleAgent)
	target := testUser("u1", domain.RoleUser)
	repo := newFakeUserRepo(admin, agent, target)
	svc := NewUserService(repo)
	ctx := context.Background()

	_, err := svc.Deactivate(ctx, &agent, target.ID)
	assertCode(t, err, "ACCESS_DENIED")

	_, err = svc.Deactivate(ctx, &admin, admin.ID)
	assertCode(t, err, "SELF_DEACTIVATION")

	_, err = svc.Deactivate(ctx, &admin, "ghost")
	assertCode(t, err, "NOT_FOUND")

	deactivated, err := svc.Deactivate(ctx, &admin, target.ID)
	if err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if deactivated.Active {
		t.Errorf("expected inactive user")
	}
	stored, _ := repo.GetByID(ctx, target.ID)
	if stored.Active {
		t.Errorf("deactivation must persist")
	}
}

func TestDeactivatedUserCannotLogIn(t *testing.T) {
	admin := testUser("adm", domain.RoleAdmin)
	target := testUser("u1", domain.RoleUser)
	hash, err := authHashForTest("hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	target.PasswordHash = hash
	repo := newFakeUserRepo(admin, target)

	userSvc := NewUserService(repo)
	authSvc := newAuthServiceForTest(repo)
	ctx := context.Background()

	if _, _, _, err := authSvc.Login(ctx, target.Email, "hunter2"); err != nil {
		t.Fatalf("login before deactivation: %v", err)
	}

	if _, err := userSvc.Deactivate(ctx, &admin, target.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	_, _, _, err = authSvc.Login(ctx, target.Email, "hunter2")
	assertCode(t, err, "UNAUTHORIZED")
}

func TestUpdateRoleValidation(t *testing.T) {
	admin := testUser("adm", domain.RoleAdmin)
	target := testUser("u1", domain.RoleUser)
	repo := newFakeUserRepo(admin, target)
	svc := NewUserService(repo)
	ctx := context.Background()

	_, err := svc.UpdateRole(ctx, &target, admin.ID, domain.RoleAgent)
	assertCode(t, err, "ACCESS_DENIED")

	_, err = svc.UpdateRole(ctx, &admin, target.ID, domain.Role("owner"))
	assertCode(t, err, "INVALID_ROLE")

	promoted, err := svc.UpdateRole(ctx, &admin, target.ID, domain.RoleAgent)
	if err != nil {
		t.Fatalf("UpdateRole: %v", err)
	}
	if promoted.Role != domain.RoleAgent {
		t.Errorf("expected agent role, got %s", promoted.Role)
	}
}
