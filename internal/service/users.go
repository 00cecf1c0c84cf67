package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gamehub/internal/avatar"
	"gamehub/internal/models"
	"gamehub/internal/repository"
)

// ProfileStore is the account surface profile handling needs
type ProfileStore interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateAvatar(ctx context.Context, id uint, avatarURL string) error
}

// UserService serves profiles and manages avatars
type UserService struct {
	users       ProfileStore
	leaderboard *LeaderboardService
	avatars     *avatar.Store
}

// NewUserService creates a new user service
func NewUserService(users ProfileStore, leaderboard *LeaderboardService, avatars *avatar.Store) *UserService {
	return &UserService{users: users, leaderboard: leaderboard, avatars: avatars}
}

// Profile returns the authenticated user's own profile, including
// their rank in every game they appear in
func (s *UserService) Profile(ctx context.Context, accountID uint) (*models.ProfileResponse, error) {
	user, err := s.users.GetUserByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if !user.IsActive {
		return nil, ErrAccountNotFound
	}

	return &models.ProfileResponse{
		ID:         user.ID,
		Username:   user.Username,
		AvatarURL:  s.avatarOrDefault(user),
		IsVerified: user.IsVerified,
		Games:      s.leaderboard.RanksForUser(user.UserCode),
		CreatedAt:  user.CreatedAt,
	}, nil
}

// PublicProfile returns another user's profile as seen by anyone
func (s *UserService) PublicProfile(ctx context.Context, username string) (*models.PublicProfileResponse, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if !user.IsActive {
		return nil, ErrAccountNotFound
	}

	return &models.PublicProfileResponse{
		Username:  user.Username,
		AvatarURL: s.avatarOrDefault(user),
		Games:     s.leaderboard.RanksForUser(user.UserCode),
	}, nil
}

// UpdateAvatar stores an uploaded image and records its URL
func (s *UserService) UpdateAvatar(ctx context.Context, accountID uint, filename string, file io.Reader) (string, error) {
	user, err := s.users.GetUserByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrAccountNotFound
		}
		return "", fmt.Errorf("failed to load account: %w", err)
	}

	avatarURL, err := s.avatars.Save(user.UserCode, filename, file)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := s.users.UpdateAvatar(ctx, user.ID, avatarURL); err != nil {
		return "", fmt.Errorf("failed to record avatar: %w", err)
	}
	return avatarURL, nil
}

// RemoveAvatar deletes the stored image and falls back to a generated
// default
func (s *UserService) RemoveAvatar(ctx context.Context, accountID uint) (string, error) {
	user, err := s.users.GetUserByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrAccountNotFound
		}
		return "", fmt.Errorf("failed to load account: %w", err)
	}

	if err := s.avatars.Remove(user.UserCode); err != nil {
		return "", err
	}
	fallback := avatar.DefaultURL(user.Username)
	if err := s.users.UpdateAvatar(ctx, user.ID, fallback); err != nil {
		return "", fmt.Errorf("failed to record avatar: %w", err)
	}
	return fallback, nil
}

func (s *UserService) avatarOrDefault(user *models.User) string {
	if user.AvatarURL != "" {
		return user.AvatarURL
	}
	return avatar.DefaultURL(user.Username)
}
