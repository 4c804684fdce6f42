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
)

// EmailChangeRepository implements the domain user.EmailChangeRepository
// interface.
type EmailChangeRepository struct {
	db *DB
}

func NewEmailChangeRepository(db *DB) user.EmailChangeRepository {
	return &EmailChangeRepository{db: db}
}

func (r *EmailChangeRepository) Create(ctx context.Context, request *user.EmailChangeRequest) error {
	if request.ID == uuid.Nil {
		request.ID = uuid.New()
	}
	request.CreatedAt = time.Now()
	request.Used = false

	dbModel := models.EmailChangeModel{
		ID:        request.ID,
		UserID:    request.UserID,
		NewEmail:  request.NewEmail,
		Token:     request.Token,
		Used:      request.Used,
		CreatedAt: request.CreatedAt,
	}

	if err := r.db.DB.WithContext(ctx).Create(&dbModel).Error; err != nil {
		return fmt.Errorf("failed to create email change request: %w", err)
	}

	request.CreatedAt = dbModel.CreatedAt

	return nil
}

func (r *EmailChangeRepository) GetByToken(ctx context.Context, token string) (*user.EmailChangeRequest, error) {
	var dbModel models.EmailChangeModel
	err := r.db.DB.WithContext(ctx).Where("token = ?", token).First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, user.ErrEmailChangeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get email change request: %w", err)
	}

	return &user.EmailChangeRequest{
		ID:        dbModel.ID,
		UserID:    dbModel.UserID,
		NewEmail:  dbModel.NewEmail,
		Token:     dbModel.Token,
		Used:      dbModel.Used,
		CreatedAt: dbModel.CreatedAt,
	}, nil
}

// Confirm applies the local half of an email change in one transaction: the
// mirror's email and the used flag move together, so concurrent readers never
// observe a confirmed token with an unchanged email.
func (r *EmailChangeRepository) Confirm(ctx context.Context, userID, requestID uuid.UUID, newEmail string) error {
	return r.db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		result := tx.Model(&models.UserModel{}).
			Where("id = ?", userID).
			Updates(map[string]interface{}{
				"email":      newEmail,
				"updated_at": now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update user email: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return user.ErrUserNotFound
		}

		result = tx.Model(&models.EmailChangeModel{}).
			Where("id = ? AND used = false", requestID).
			Update("used", true)
		if result.Error != nil {
			return fmt.Errorf("failed to mark request as used: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return user.ErrEmailChangeNotFound
		}

		return nil
	})
}
