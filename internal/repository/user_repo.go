package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/horas-api/internal/models"
)

// UserRepository provides access to accounts.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (models.User, error)
	GetByIdentifier(ctx context.Context, identifier string) (models.User, error)
	Save(ctx context.Context, user *models.User) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs a user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

// GetByIdentifier matches either the e-mail (case-insensitive) or the CPF.
func (r *userRepository) GetByIdentifier(ctx context.Context, identifier string) (models.User, error) {
	identifier = strings.TrimSpace(identifier)
	var user models.User
	if err := r.db.WithContext(ctx).
		Where("LOWER(email) = ? OR cpf = ?", strings.ToLower(identifier), identifier).
		First(&user).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Save creates the user or updates it when the ID is set.
func (r *userRepository) Save(ctx context.Context, user *models.User) error {
	return translateError(r.db.WithContext(ctx).Save(user).Error)
}
