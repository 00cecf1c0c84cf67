package service_test

import (
	"context"
	"testing"
	"time"

	"gamehub/internal/config"
	"gamehub/internal/models"
	"gamehub/internal/repository"
	"gamehub/internal/service"
	"gamehub/internal/worker"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type captureMail struct {
	tasks []worker.EmailTask
}

func (m *captureMail) Enqueue(task worker.EmailTask) error {
	m.tasks = append(m.tasks, task)
	return nil
}

func newAuthFixture(t *testing.T) (*service.AuthService, *repository.PostgresRepository, *gorm.DB, *captureMail) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	repo := repository.NewPostgresRepository(db)
	mail := &captureMail{}
	svc := service.NewAuthService(repo, mail, config.AuthConfig{
		JWTSecret:     "test-secret",
		TokenTTL:      time.Hour,
		VerifyCodeTTL: 24 * time.Hour,
		ResetCodeTTL:  time.Hour,
	})
	return svc, repo, db, mail
}

func register(t *testing.T, svc *service.AuthService) models.RegisterRequest {
	t.Helper()
	req := models.RegisterRequest{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "hunter2hunter2",
	}
	if _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	return req
}

func TestRegisterCreatesVerifiableAccount(t *testing.T) {
	svc, repo, _, mail := newAuthFixture(t)
	ctx := context.Background()

	register(t, svc)

	user, err := repo.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("expected user to exist: %v", err)
	}
	if user.UserCode == "" {
		t.Fatalf("expected a stable user code")
	}
	if user.PasswordHash == "hunter2hunter2" {
		t.Fatalf("password must not be stored in plain text")
	}
	if user.IsVerified {
		t.Fatalf("expected account to start unverified")
	}
	if user.EmailVerificationCode == "" || user.EmailVerificationExpiry == nil {
		t.Fatalf("expected a pending verification code with expiry")
	}
	if len(mail.tasks) != 1 || mail.tasks[0].To != "alice@example.com" {
		t.Fatalf("expected one verification mail, got %v", mail.tasks)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)
	ctx := context.Background()

	register(t, svc)

	_, err := svc.Register(ctx, models.RegisterRequest{
		Email:    "alice@example.com",
		Username: "someone-else",
		Password: "hunter2hunter2",
	})
	if err != service.ErrDuplicateAccount {
		t.Fatalf("expected duplicate account error, got %v", err)
	}
}

func TestVerifyEmail(t *testing.T) {
	svc, repo, _, _ := newAuthFixture(t)
	ctx := context.Background()

	register(t, svc)
	user, _ := repo.GetUserByEmail(ctx, "alice@example.com")

	if err := svc.VerifyEmail(ctx, "no-such-code"); err != service.ErrCodeInvalid {
		t.Fatalf("expected invalid code error, got %v", err)
	}

	if err := svc.VerifyEmail(ctx, user.EmailVerificationCode); err != nil {
		t.Fatalf("verification failed: %v", err)
	}

	user, _ = repo.GetUserByEmail(ctx, "alice@example.com")
	if !user.IsVerified {
		t.Fatalf("expected account to be verified")
	}
	if user.EmailVerificationCode != "" {
		t.Fatalf("expected verification code to be cleared")
	}
}

func TestVerifyEmailExpiredCode(t *testing.T) {
	svc, repo, db, _ := newAuthFixture(t)
	ctx := context.Background()

	register(t, svc)
	user, _ := repo.GetUserByEmail(ctx, "alice@example.com")

	past := time.Now().Add(-time.Minute)
	db.Model(&models.User{}).Where("id = ?", user.ID).
		Update("email_verification_expiry", past)

	if err := svc.VerifyEmail(ctx, user.EmailVerificationCode); err != service.ErrCodeExpired {
		t.Fatalf("expected expired code error, got %v", err)
	}
}

func TestLoginIssuesValidToken(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)
	ctx := context.Background()

	req := register(t, svc)

	resp, err := svc.Login(ctx, models.LoginRequest{Username: req.Username, Password: req.Password})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	claims, err := svc.VerifyToken(resp.Token)
	if err != nil {
		t.Fatalf("issued token failed verification: %v", err)
	}
	if claims.Username != "alice" || claims.UserID == 0 {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)
	ctx := context.Background()

	register(t, svc)

	if _, err := svc.Login(ctx, models.LoginRequest{Username: "alice", Password: "wrong"}); err != service.ErrInvalidCredentials {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := svc.Login(ctx, models.LoginRequest{Username: "nobody", Password: "x"}); err != service.ErrInvalidCredentials {
		t.Fatalf("expected invalid credentials for unknown user, got %v", err)
	}
}

func TestVerifyTokenRejectsTampering(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)
	ctx := context.Background()

	if _, err := svc.VerifyToken("not-a-token"); err == nil {
		t.Fatalf("expected garbage token to be rejected")
	}

	req := register(t, svc)
	resp, err := svc.Login(ctx, models.LoginRequest{Username: req.Username, Password: req.Password})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	other := service.NewAuthService(nil, nil, config.AuthConfig{
		JWTSecret: "different-secret",
		TokenTTL:  time.Hour,
	})
	if _, err := other.VerifyToken(resp.Token); err == nil {
		t.Fatalf("expected token signed with another secret to be rejected")
	}
}

func TestPasswordResetFlow(t *testing.T) {
	svc, repo, _, mail := newAuthFixture(t)
	ctx := context.Background()

	req := register(t, svc)

	// unknown addresses do not error and send nothing
	if err := svc.RequestPasswordReset(ctx, "ghost@example.com"); err != nil {
		t.Fatalf("reset request for unknown email should not fail: %v", err)
	}
	if len(mail.tasks) != 1 {
		t.Fatalf("expected no mail for unknown address")
	}

	if err := svc.RequestPasswordReset(ctx, req.Email); err != nil {
		t.Fatalf("reset request failed: %v", err)
	}
	if len(mail.tasks) != 2 {
		t.Fatalf("expected a reset mail to be queued")
	}

	user, _ := repo.GetUserByEmail(ctx, req.Email)
	if user.PasswordResetCode == "" {
		t.Fatalf("expected a stored reset code")
	}

	if err := svc.ResetPassword(ctx, user.PasswordResetCode, "new-password-42"); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	if _, err := svc.Login(ctx, models.LoginRequest{Username: req.Username, Password: req.Password}); err != service.ErrInvalidCredentials {
		t.Fatalf("expected old password to stop working, got %v", err)
	}
	if _, err := svc.Login(ctx, models.LoginRequest{Username: req.Username, Password: "new-password-42"}); err != nil {
		t.Fatalf("expected new password to work: %v", err)
	}

	// the code is single use
	if err := svc.ResetPassword(ctx, user.PasswordResetCode, "another-pass"); err != service.ErrCodeInvalid {
		t.Fatalf("expected used code to be rejected, got %v", err)
	}
}
