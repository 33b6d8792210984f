package repositories

import (
	"context"
	"errors"

	"github.com/anonto42/bloglist/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BlogRepository defines the interface for blog data operations
type BlogRepository interface {
	CreateBlog(ctx context.Context, blog *models.Blog) error
	GetBlogByID(ctx context.Context, id string) (*models.Blog, error)
	GetBlogsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Blog, error)
	GetAllBlogs(ctx context.Context) ([]models.Blog, error)
	ReplaceBlog(ctx context.Context, id string, req models.UpdateBlogRequest) (*models.Blog, error)
	DeleteBlog(ctx context.Context, id string) error
	AppendComment(ctx context.Context, id string, comment string) (*models.Blog, error)
	DeleteAll(ctx context.Context) error
}

// MongoBlogRepository implements BlogRepository for MongoDB
type MongoBlogRepository struct {
	collection *mongo.Collection
}

// NewMongoBlogRepository creates a new MongoBlogRepository
func NewMongoBlogRepository(db *mongo.Database) *MongoBlogRepository {
	return &MongoBlogRepository{collection: db.Collection("blogs")}
}

// ParseID converts a hex string into an ObjectID, returning ErrInvalidID on failure
func ParseID(id string) (primitive.ObjectID, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return objID, nil
}

// CreateBlog inserts a new blog, assigning its ID
func (r *MongoBlogRepository) CreateBlog(ctx context.Context, blog *models.Blog) error {
	blog.ID = primitive.NewObjectID()
	if blog.Comments == nil {
		blog.Comments = []string{}
	}
	_, err := r.collection.InsertOne(ctx, blog)
	return err
}

// GetBlogByID retrieves a blog by ID
func (r *MongoBlogRepository) GetBlogByID(ctx context.Context, id string) (*models.Blog, error) {
	objID, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	var blog models.Blog
	if err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&blog); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrBlogNotFound
		}
		return nil, err
	}
	return &blog, nil
}

// GetBlogsByIDs retrieves every blog whose ID is in ids
func (r *MongoBlogRepository) GetBlogsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Blog, error) {
	if len(ids) == 0 {
		return []models.Blog{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// GetAllBlogs retrieves all blogs in insertion order
func (r *MongoBlogRepository) GetAllBlogs(ctx context.Context) ([]models.Blog, error) {
	return r.find(ctx, bson.D{})
}

func (r *MongoBlogRepository) find(ctx context.Context, filter interface{}) ([]models.Blog, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	blogs := []models.Blog{}
	if err = cursor.All(ctx, &blogs); err != nil {
		return nil, err
	}
	return blogs, nil
}

// ReplaceBlog overwrites title, author, url and likes and returns the updated blog
func (r *MongoBlogRepository) ReplaceBlog(ctx context.Context, id string, req models.UpdateBlogRequest) (*models.Blog, error) {
	objID, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	update := bson.M{
		"$set": bson.M{
			"title":  req.Title,
			"author": req.Author,
			"url":    req.URL,
			"likes":  req.Likes,
		},
	}
	return r.findOneAndUpdate(ctx, objID, update)
}

// AppendComment adds comment to the end of the blog's comment list
func (r *MongoBlogRepository) AppendComment(ctx context.Context, id string, comment string) (*models.Blog, error) {
	objID, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	return r.findOneAndUpdate(ctx, objID, bson.M{"$push": bson.M{"comments": comment}})
}

func (r *MongoBlogRepository) findOneAndUpdate(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.Blog, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var blog models.Blog
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&blog); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrBlogNotFound
		}
		return nil, err
	}
	return &blog, nil
}

// DeleteBlog deletes a blog by ID
func (r *MongoBlogRepository) DeleteBlog(ctx context.Context, id string) error {
	objID, err := ParseID(id)
	if err != nil {
		return err
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrBlogNotFound
	}
	return nil
}

// DeleteAll removes every blog
func (r *MongoBlogRepository) DeleteAll(ctx context.Context) error {
	_, err := r.collection.DeleteMany(ctx, bson.D{})
	return err
}
