package repositories

import (
	"context"

	"github.com/yigit/examadmin/internal/app/models"
	"github.com/yigit/examadmin/internal/app/repositories/user"
)

// IUserRepository defines the interface for user-related database operations
type IUserRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id int64) error

	// Authentication
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	UpdateLastLogin(ctx context.Context, userID int64) error

	// Listing
	GetByIDs(ctx context.Context, ids []int64) ([]*models.User, error)
	List(ctx context.Context, offset uint64, limit int) ([]*models.User, int64, error)
	ListByRole(ctx context.Context, role models.RoleType) ([]*models.User, error)
	ListWithStudents(ctx context.Context) ([]*models.User, error)
}

// IStudentRepository defines the interface for student profile operations
type IStudentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	GetByID(ctx context.Context, id int64) (*models.Student, error)
	GetByUserID(ctx context.Context, userID int64) (*models.Student, error)
	GetByIndex(ctx context.Context, index string) (*models.Student, error)
	List(ctx context.Context) ([]*models.Student, error)
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id int64) error
}

var (
	_ IUserRepository    = (*user.Repository)(nil)
	_ IStudentRepository = (*user.StudentRepository)(nil)
)
