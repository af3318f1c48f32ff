package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Kuany4953/wasil-sub000/domain"
)

// UserRepositoryImpl implements domain.UserRepository using GORM
type UserRepositoryImpl struct {
	db *gorm.DB
}

// DBUser represents the database model for User (with GORM tags)
type DBUser struct {
	ID              string         `gorm:"primaryKey;size:36"`
	Phone           string         `gorm:"uniqueIndex;size:32;not null"`
	FirstName       string         `gorm:"size:128"`
	LastName        string         `gorm:"size:128"`
	Email           string         `gorm:"size:255"`
	ProfilePhoto    string         `gorm:"size:512"`
	UserType        string         `gorm:"index;size:16;default:rider"`
	Rating          float64        `gorm:"default:5.0"`
	TotalRides      int            `gorm:"default:0"`
	IsVerified      bool           `gorm:"index"`
	IsActive        bool           `gorm:"index;default:true"`
	ProfileComplete bool           `gorm:"index"`
	Language        string         `gorm:"size:8;default:en"`
	CreatedAt       time.Time      `gorm:"index"`
	UpdatedAt       time.Time      `gorm:"index"`
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for GORM
func (DBUser) TableName() string {
	return "users"
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) domain.UserRepository {
	return &UserRepositoryImpl{db: db}
}

// Create implements domain.UserRepository
func (r *UserRepositoryImpl) Create(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	dbUser := r.domainToDB(user)
	if err := r.db.WithContext(ctx).Create(dbUser).Error; err != nil {
		return err
	}
	user.CreatedAt = dbUser.CreatedAt
	user.UpdatedAt = dbUser.UpdatedAt
	return nil
}

// FindByPhone implements domain.UserRepository
func (r *UserRepositoryImpl) FindByPhone(ctx context.Context, phone string) (*domain.User, error) {
	var dbUser DBUser
	err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&dbUser).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbUser), nil
}

// FindByID implements domain.UserRepository
func (r *UserRepositoryImpl) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var dbUser DBUser
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&dbUser).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbUser), nil
}

// UpdateFields implements domain.UserRepository. The phone column is immutable
// after creation; callers pass only allow-listed profile columns.
func (r *UserRepositoryImpl) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	updates := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		updates[k] = v
	}
	updates["updated_at"] = time.Now()

	res := r.db.WithContext(ctx).Model(&DBUser{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// domainToDB converts domain user to database user
func (r *UserRepositoryImpl) domainToDB(user *domain.User) *DBUser {
	return &DBUser{
		ID:              user.ID,
		Phone:           user.Phone,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		Email:           user.Email,
		ProfilePhoto:    user.ProfilePhoto,
		UserType:        string(user.UserType),
		Rating:          user.Rating,
		TotalRides:      user.TotalRides,
		IsVerified:      user.IsVerified,
		IsActive:        user.IsActive,
		ProfileComplete: user.ProfileComplete,
		Language:        string(user.Language),
	}
}

// dbToDomain converts database user to domain user
func (r *UserRepositoryImpl) dbToDomain(dbUser *DBUser) *domain.User {
	return &domain.User{
		ID:              dbUser.ID,
		Phone:           dbUser.Phone,
		FirstName:       dbUser.FirstName,
		LastName:        dbUser.LastName,
		Email:           dbUser.Email,
		ProfilePhoto:    dbUser.ProfilePhoto,
		UserType:        domain.UserType(dbUser.UserType),
		Rating:          dbUser.Rating,
		TotalRides:      dbUser.TotalRides,
		IsVerified:      dbUser.IsVerified,
		IsActive:        dbUser.IsActive,
		ProfileComplete: dbUser.ProfileComplete,
		Language:        domain.Language(dbUser.Language),
		CreatedAt:       dbUser.CreatedAt,
		UpdatedAt:       dbUser.UpdatedAt,
	}
}
