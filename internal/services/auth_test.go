package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/artograph/artograph-backend/internal/repos"
	"github.com/artograph/artograph-backend/internal/requestdata"
	"github.com/artograph/artograph-backend/internal/testutil"
	"github.com/artograph/artograph-backend/internal/types"
)

func newAuthService(t *testing.T) AuthService {
	t.Helper()
	gdb := testutil.NewTestDB(t)
	log := testutil.NewTestLogger(t)
	return NewAuthService(gdb, log, repos.NewUserRepo(gdb, log), "test-secret", time.Hour)
}

func TestRegisterAndLoginRoundtrip(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	user, err := svc.RegisterUser(ctx, "  Dana@Example.COM ", "hunter22", "Dana Wells", "")
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if user.Email != "dana@example.com" {
		t.Fatalf("email not normalized: got=%q", user.Email)
	}
	if user.Role != types.RoleTherapist {
		t.Fatalf("default role: want=THERAPIST got=%q", user.Role)
	}
	if user.Password == "hunter22" {
		t.Fatalf("password stored in plaintext")
	}

	token, loggedIn, err := svc.LoginUser(ctx, "dana@example.com", "hunter22")
	if err != nil {
		t.Fatalf("LoginUser: %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Fatalf("login user id: want=%s got=%s", user.ID, loggedIn.ID)
	}
	if token == "" {
		t.Fatalf("login returned empty token")
	}

	authedCtx, err := svc.SetContextFromToken(ctx, token)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	rd := requestdata.GetRequestData(authedCtx)
	if rd == nil || rd.UserID != user.ID {
		t.Fatalf("request data: got=%+v", rd)
	}
	if rd.Role != types.RoleTherapist {
		t.Fatalf("request data role: got=%q", rd.Role)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	if _, err := svc.RegisterUser(ctx, "dup@example.com", "pw", "One", ""); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.RegisterUser(ctx, "DUP@example.com", "pw", "Two", "")
	if err == nil || !strings.Contains(err.Error(), "already in use") {
		t.Fatalf("duplicate register: want already-in-use error got=%v", err)
	}
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	svc := newAuthService(t)
	if _, err := svc.RegisterUser(context.Background(), "r@example.com", "pw", "R", "SUPERUSER"); err == nil {
		t.Fatalf("unknown role must be rejected")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	if _, err := svc.RegisterUser(ctx, "sam@example.com", "correct", "Sam", ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, _, err := svc.LoginUser(ctx, "sam@example.com", "wrong")
	if err == nil || !strings.Contains(err.Error(), "invalid email or password") {
		t.Fatalf("wrong password: got=%v", err)
	}
	// Unknown accounts produce the same message.
	_, _, err = svc.LoginUser(ctx, "ghost@example.com", "whatever")
	if err == nil || !strings.Contains(err.Error(), "invalid email or password") {
		t.Fatalf("unknown account: got=%v", err)
	}
}

func TestSetContextFromTokenRejectsGarbage(t *testing.T) {
	svc := newAuthService(t)
	if _, err := svc.SetContextFromToken(context.Background(), "not-a-jwt"); err == nil {
		t.Fatalf("garbage token must be rejected")
	}
}

func TestSetContextFromTokenRejectsWrongKey(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()
	if _, err := svc.RegisterUser(ctx, "kay@example.com", "pw", "Kay", ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	token, _, err := svc.LoginUser(ctx, "kay@example.com", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	gdb := testutil.NewTestDB(t)
	log := testutil.NewTestLogger(t)
	other := NewAuthService(gdb, log, repos.NewUserRepo(gdb, log), "different-secret", time.Hour)
	if _, err := other.SetContextFromToken(ctx, token); err == nil {
		t.Fatalf("token signed with another key must be rejected")
	}
}
