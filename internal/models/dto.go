package models

import "time"

// RegisterRequest is the payload for account registration
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Username    string `json:"username" validate:"required,min=3,max=50"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,min=7,max=15"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
}

// RegisterResponse confirms a successful registration
type RegisterResponse struct {
	Message  string `json:"message"`
	Username string `json:"username"`
}

// LoginRequest is the payload for login
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued token
type LoginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// PasswordResetRequest asks for a reset code by email
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// PasswordResetConfirm sets a new password using a reset code
type PasswordResetConfirm struct {
	Code        string `json:"code" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

// SubmitScoreRequest is the payload for a score submission
type SubmitScoreRequest struct {
	GameID string `json:"game_id" validate:"required,min=1,max=50"`
	Score  int    `json:"score" validate:"min=0"`
}

// SubmitScoreResponse reports the ledger outcome and, when the ranking
// index could be updated, the resulting rank fields. RankAvailable is
// false while the index is awaiting reconciliation.
type SubmitScoreResponse struct {
	Message       string `json:"message"`
	GameID        string `json:"game_id"`
	Score         int    `json:"score"`
	Improved      bool   `json:"improved"`
	PreviousBest  int    `json:"previous_best"`
	Rank          int    `json:"rank,omitempty"`
	RankAvailable bool   `json:"rank_available"`
}

// LeaderboardEntry is a single row of a game leaderboard
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// LeaderboardResponse is the top-N view of one game
type LeaderboardResponse struct {
	GameID  string             `json:"game_id"`
	Entries []LeaderboardEntry `json:"leaderboard"`
}

// UserRankResponse is one user's position in one game
type UserRankResponse struct {
	GameID string `json:"game_id"`
	Rank   int    `json:"rank"`
	Score  int    `json:"score"`
}

// GameRank is a per-game rank summary shown on profiles
type GameRank struct {
	GameID string `json:"game_id"`
	Rank   int    `json:"rank"`
	Score  int    `json:"score"`
}

// ProfileResponse is the authenticated user's own profile
type ProfileResponse struct {
	ID         uint       `json:"id"`
	Username   string     `json:"username"`
	AvatarURL  string     `json:"avatar_url,omitempty"`
	IsVerified bool       `json:"is_verified"`
	Games      []GameRank `json:"games"`
	CreatedAt  time.Time  `json:"created_at"`
}

// PublicProfileResponse is another user's profile as seen by anyone
type PublicProfileResponse struct {
	Username  string     `json:"username"`
	AvatarURL string     `json:"avatar_url,omitempty"`
	Games     []GameRank `json:"games"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
