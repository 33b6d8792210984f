package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/bloglist/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/gorm"
)

// pgUser is the relational row for a user. IDs are ObjectID hex strings so
// blog ownership references look the same whichever store holds credentials.
type pgUser struct {
	ID           string `gorm:"primaryKey;size:24"`
	Username     string `gorm:"uniqueIndex;not null"`
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

func (pgUser) TableName() string { return "users" }

// pgUserBlog links a user to a blog they own, ordered by ID
type pgUserBlog struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    string `gorm:"size:24;index"`
	BlogID    string `gorm:"size:24"`
	CreatedAt time.Time
}

func (pgUserBlog) TableName() string { return "user_blogs" }

// PostgresUserRepository implements UserRepository for PostgreSQL
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// Migrate creates the users and user_blogs tables
func (r *PostgresUserRepository) Migrate() error {
	return r.db.AutoMigrate(&pgUser{}, &pgUserBlog{})
}

// CreateUser creates a new user in PostgreSQL
func (r *PostgresUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	user.ID = primitive.NewObjectID()
	user.Blogs = []primitive.ObjectID{}
	row := pgUser{
		ID:           user.ID.Hex(),
		Username:     user.Username,
		Name:         user.Name,
		PasswordHash: user.PasswordHash,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateUsername
		}
		return err
	}
	return nil
}

// GetUserByID retrieves a user by ID from PostgreSQL
func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.first(ctx, "id = ?", id.Hex())
}

// GetUserByUsername retrieves a user by username from PostgreSQL
func (r *PostgresUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *PostgresUserRepository) first(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var row pgUser
	if err := r.db.WithContext(ctx).Where(query, arg).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	users, err := r.withBlogs(ctx, []pgUser{row})
	if err != nil {
		return nil, err
	}
	return &users[0], nil
}

// GetUsersByIDs retrieves every user whose ID is in ids
func (r *PostgresUserRepository) GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	hexes := make([]string, 0, len(ids))
	for _, id := range ids {
		hexes = append(hexes, id.Hex())
	}

	var rows []pgUser
	if err := r.db.WithContext(ctx).Where("id IN ?", hexes).Order("created_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.withBlogs(ctx, rows)
}

// GetUsers retrieves all users from PostgreSQL
func (r *PostgresUserRepository) GetUsers(ctx context.Context) ([]models.User, error) {
	var rows []pgUser
	if err := r.db.WithContext(ctx).Order("created_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.withBlogs(ctx, rows)
}

// withBlogs converts rows to users and loads their owned blog references
func (r *PostgresUserRepository) withBlogs(ctx context.Context, rows []pgUser) ([]models.User, error) {
	users := make([]models.User, 0, len(rows))
	if len(rows) == 0 {
		return users, nil
	}

	userIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		userIDs = append(userIDs, row.ID)
	}

	var links []pgUserBlog
	if err := r.db.WithContext(ctx).Where("user_id IN ?", userIDs).Order("id").Find(&links).Error; err != nil {
		return nil, err
	}
	owned := make(map[string][]primitive.ObjectID, len(rows))
	for _, link := range links {
		blogID, err := primitive.ObjectIDFromHex(link.BlogID)
		if err != nil {
			continue
		}
		owned[link.UserID] = append(owned[link.UserID], blogID)
	}

	for _, row := range rows {
		id, err := primitive.ObjectIDFromHex(row.ID)
		if err != nil {
			return nil, err
		}
		blogs := owned[row.ID]
		if blogs == nil {
			blogs = []primitive.ObjectID{}
		}
		users = append(users, models.User{
			ID:           id,
			Username:     row.Username,
			Name:         row.Name,
			PasswordHash: row.PasswordHash,
			Blogs:        blogs,
		})
	}
	return users, nil
}

// AppendBlog records blogID as owned by the user
func (r *PostgresUserRepository) AppendBlog(ctx context.Context, userID, blogID primitive.ObjectID) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&pgUser{}).Where("id = ?", userID.Hex()).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrUserNotFound
	}
	return r.db.WithContext(ctx).Create(&pgUserBlog{UserID: userID.Hex(), BlogID: blogID.Hex()}).Error
}

// DeleteAll removes every user and ownership link
func (r *PostgresUserRepository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&pgUserBlog{}).Error; err != nil {
			return err
		}
		return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&pgUser{}).Error
	})
}
