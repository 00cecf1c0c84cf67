package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gamehub/internal/models"

	"gorm.io/gorm"
)

// ErrUserNotFound is returned when a lookup matches no user
var ErrUserNotFound = errors.New("user not found")

// PostgresRepository handles all user-table operations
type PostgresRepository struct {
	db *gorm.DB
}

// NewPostgresRepository creates a new Postgres repository
func NewPostgresRepository(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CreateUser inserts a new account. Unique-constraint violations on
// email, username or phone surface as a duplicate error for the
// service layer to translate.
func (r *PostgresRepository) CreateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetUserByID retrieves a user by numeric account id
func (r *PostgresRepository) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username
func (r *PostgresRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getUserBy(ctx, "username = ?", username)
}

// GetUserByEmail retrieves a user by email
func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getUserBy(ctx, "email = ?", email)
}

// GetUserByCode retrieves a user by stable user code
func (r *PostgresRepository) GetUserByCode(ctx context.Context, code string) (*models.User, error) {
	return r.getUserBy(ctx, "user_code = ?", code)
}

// GetUserByVerificationCode retrieves a user by pending email verification code
func (r *PostgresRepository) GetUserByVerificationCode(ctx context.Context, code string) (*models.User, error) {
	return r.getUserBy(ctx, "email_verification_code = ?", code)
}

// GetUserByResetCode retrieves a user by pending password reset code
func (r *PostgresRepository) GetUserByResetCode(ctx context.Context, code string) (*models.User, error) {
	return r.getUserBy(ctx, "password_reset_code = ?", code)
}

func (r *PostgresRepository) getUserBy(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UserExists reports whether any account already uses the given email,
// username or phone number
func (r *PostgresRepository) UserExists(ctx context.Context, email, username, phone string) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ? OR username = ?", email, username)
	if phone != "" {
		q = r.db.WithContext(ctx).Model(&models.User{}).
			Where("email = ? OR username = ? OR phone_number = ?", email, username, phone)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkVerified flags the account verified and clears the pending code
func (r *PostgresRepository) MarkVerified(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]any{
			"is_verified":               true,
			"email_verification_code":   "",
			"email_verification_expiry": nil,
		}).Error
}

// SetResetCode stores a password reset code and its expiry
func (r *PostgresRepository) SetResetCode(ctx context.Context, id uint, code string, expiry time.Time) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]any{
			"password_reset_code":   code,
			"password_reset_expiry": expiry,
		}).Error
}

// UpdatePassword sets a new password hash and clears any reset code
func (r *PostgresRepository) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]any{
			"password_hash":         passwordHash,
			"password_reset_code":   "",
			"password_reset_expiry": nil,
		}).Error
}

// UpdateAvatar sets the avatar URL
func (r *PostgresRepository) UpdateAvatar(ctx context.Context, id uint, avatarURL string) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Update("avatar_url", avatarURL).Error
}

// UsernamesByCodes resolves stable user codes to display usernames in
// one query, for leaderboard rendering
func (r *PostgresRepository) UsernamesByCodes(ctx context.Context, codes []string) (map[string]string, error) {
	if len(codes) == 0 {
		return map[string]string{}, nil
	}
	var rows []struct {
		UserCode string
		Username string
	}
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Select("user_code", "username").
		Where("user_code IN ?", codes).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to resolve usernames: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.UserCode] = row.Username
	}
	return out, nil
}

// GetAllUsers retrieves all users (used by the seeder)
func (r *PostgresRepository) GetAllUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Find(&users).Error
	return users, err
}

// BulkInsertUsers efficiently inserts multiple users
func (r *PostgresRepository) BulkInsertUsers(ctx context.Context, users []models.User, batchSize int) error {
	return r.db.WithContext(ctx).CreateInBatches(users, batchSize).Error
}

// Ping checks if database is reachable
func (r *PostgresRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate runs database migrations
func (r *PostgresRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&models.User{}, &models.ScoreRecord{})
}
