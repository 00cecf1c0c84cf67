package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gamehub/internal/config"
	"gamehub/internal/models"
	"gamehub/internal/repository"
	"gamehub/internal/worker"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost trades hash time for resistance to offline cracking
const bcryptCost = 12

// UserStore is the account persistence surface the auth flows need
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByVerificationCode(ctx context.Context, code string) (*models.User, error)
	GetUserByResetCode(ctx context.Context, code string) (*models.User, error)
	UserExists(ctx context.Context, email, username, phone string) (bool, error)
	MarkVerified(ctx context.Context, id uint) error
	SetResetCode(ctx context.Context, id uint, code string, expiry time.Time) error
	UpdatePassword(ctx context.Context, id uint, passwordHash string) error
}

// MailEnqueuer hands outbound mail to the worker pool
type MailEnqueuer interface {
	Enqueue(task worker.EmailTask) error
}

// TokenClaims are the JWT claims carried by issued tokens
type TokenClaims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// AuthService handles registration, verification, login and password
// reset
type AuthService struct {
	users UserStore
	mail  MailEnqueuer
	cfg   config.AuthConfig
}

// NewAuthService creates a new auth service
func NewAuthService(users UserStore, mail MailEnqueuer, cfg config.AuthConfig) *AuthService {
	return &AuthService{users: users, mail: mail, cfg: cfg}
}

// Register creates a new account and queues the verification email
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResponse, error) {
	exists, err := s.users.UserExists(ctx, req.Email, req.Username, req.PhoneNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing accounts: %w", err)
	}
	if exists {
		return nil, ErrDuplicateAccount
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	verifyCode := uuid.NewString()
	verifyExpiry := time.Now().Add(s.cfg.VerifyCodeTTL)

	user := &models.User{
		UserCode:                uuid.NewString(),
		Username:                req.Username,
		Email:                   req.Email,
		PhoneNumber:             req.PhoneNumber,
		PasswordHash:            string(hash),
		IsActive:                true,
		EmailVerificationCode:   verifyCode,
		EmailVerificationExpiry: &verifyExpiry,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		// a concurrent registration can still trip the unique indexes
		return nil, ErrDuplicateAccount
	}

	s.sendMail(worker.EmailTask{
		To:      user.Email,
		Subject: "Verify your GameHub account",
		Body: fmt.Sprintf("Hi %s,\n\nYour verification code is: %s\nIt expires in %s.\n",
			user.Username, verifyCode, s.cfg.VerifyCodeTTL),
	})

	return &models.RegisterResponse{
		Message:  "User registered successfully.",
		Username: user.Username,
	}, nil
}

// VerifyEmail confirms an account using its verification code
func (s *AuthService) VerifyEmail(ctx context.Context, code string) error {
	if code == "" {
		return ErrCodeInvalid
	}
	user, err := s.users.GetUserByVerificationCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrCodeInvalid
		}
		return fmt.Errorf("failed to look up verification code: %w", err)
	}
	if user.EmailVerificationExpiry == nil || time.Now().After(*user.EmailVerificationExpiry) {
		return ErrCodeExpired
	}
	return s.users.MarkVerified(ctx, user.ID)
}

// Login checks credentials and issues a signed token
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.users.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &models.LoginResponse{Message: "Login successful.", Token: token}, nil
}

// RequestPasswordReset issues a reset code by email. Unknown addresses
// are not revealed to the caller.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			log.Printf("Password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	code := uuid.NewString()
	expiry := time.Now().Add(s.cfg.ResetCodeTTL)
	if err := s.users.SetResetCode(ctx, user.ID, code, expiry); err != nil {
		return fmt.Errorf("failed to store reset code: %w", err)
	}

	s.sendMail(worker.EmailTask{
		To:      user.Email,
		Subject: "Reset your GameHub password",
		Body: fmt.Sprintf("Hi %s,\n\nYour password reset code is: %s\nIt expires in %s.\n",
			user.Username, code, s.cfg.ResetCodeTTL),
	})
	return nil
}

// ResetPassword sets a new password using a valid reset code
func (s *AuthService) ResetPassword(ctx context.Context, code, newPassword string) error {
	if code == "" {
		return ErrCodeInvalid
	}
	user, err := s.users.GetUserByResetCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrCodeInvalid
		}
		return fmt.Errorf("failed to look up reset code: %w", err)
	}
	if user.PasswordResetExpiry == nil || time.Now().After(*user.PasswordResetExpiry) {
		return ErrCodeExpired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.users.UpdatePassword(ctx, user.ID, string(hash))
}

// VerifyToken parses and validates a bearer token
func (s *AuthService) VerifyToken(tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredentials
	}
	return claims, nil
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	claims := TokenClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.cfg.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// sendMail is best effort: mail backpressure must not fail the request
func (s *AuthService) sendMail(task worker.EmailTask) {
	if s.mail == nil {
		return
	}
	if err := s.mail.Enqueue(task); err != nil {
		log.Printf("⚠️  Failed to queue mail to %s: %v", task.To, err)
	}
}
