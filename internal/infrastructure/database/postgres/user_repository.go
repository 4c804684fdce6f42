package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"signa-backend/internal/domain/user"
	"signa-backend/internal/infrastructure/database/postgres/models"
	"signa-backend/pkg/utils"
)

// UserRepository implements the domain user.Repository interface.
type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) user.Repository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	var dbModel models.UserModel
	err := r.db.DB.WithContext(ctx).Where("username = ?", username).First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, user.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return toUserEntity(&dbModel), nil
}

func (r *UserRepository) GetByID(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	var dbModel models.UserModel
	err := r.db.DB.WithContext(ctx).First(&dbModel, "id = ?", userID).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, user.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return toUserEntity(&dbModel), nil
}

func (r *UserRepository) EmailInUse(ctx context.Context, email string, excludeUserID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.DB.WithContext(ctx).Model(&models.UserModel{}).
		Where("email = ? AND id <> ?", email, excludeUserID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}

	return count > 0, nil
}

// UpsertFromProvider creates or refreshes the mirror row keyed by username in
// one transaction. Profile fields and last login are always refreshed; the
// password hash only when the row is new or the supplied plaintext no longer
// verifies against the stored hash. The unique constraint on username is the
// final arbiter between concurrent logins for the same RF.
func (r *UserRepository) UpsertFromProvider(ctx context.Context, username, password string, profile user.ProviderProfile) (*user.User, bool, error) {
	var dbModel models.UserModel
	var created bool

	err := r.db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		err := tx.Where("username = ?", username).First(&dbModel).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			created = true
			dbModel = models.UserModel{
				ID:       uuid.New(),
				Username: username,
			}
		case err != nil:
			return fmt.Errorf("failed to look up user: %w", err)
		}

		dbModel.Name = profile.Name
		dbModel.Email = profile.Email
		dbModel.CPF = profile.CPF
		dbModel.LastLogin = &now

		if created || !utils.CheckPassword(dbModel.PasswordHashed, password) {
			dbModel.PasswordHashed = password // hashed by the model hook
		}

		if err := tx.Save(&dbModel).Error; err != nil {
			return fmt.Errorf("failed to upsert user: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return toUserEntity(&dbModel), created, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, password string) error {
	hashed, err := utils.EnsureHashed(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	result := r.db.DB.WithContext(ctx).Model(&models.UserModel{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"password_hashed": hashed,
			"updated_at":      time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return user.ErrUserNotFound
	}

	return nil
}

func toUserEntity(m *models.UserModel) *user.User {
	return &user.User{
		ID:             m.ID,
		Username:       m.Username,
		Name:           m.Name,
		Email:          m.Email,
		CPF:            m.CPF,
		PasswordHashed: m.PasswordHashed,
		LastLogin:      m.LastLogin,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}
