package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/campuslink-app/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when a referenced document does not exist.
var ErrNotFound = fmt.Errorf("not found")

// visibleFilter is the query-time lifecycle predicate: active, and either no
// timer or a timer that has not elapsed yet. Expired documents stay stored
// and simply stop matching.
func visibleFilter(now time.Time) bson.M {
	return bson.M{
		"is_active": true,
		"$or": []bson.M{
			{"timer.enabled": false},
			{"timer.expires_at": bson.M{"$gt": now}},
		},
	}
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	GetVisiblePosts(ctx context.Context, now time.Time) ([]models.Post, error)
	GetPostsByAuthor(ctx context.Context, authorID uint) ([]models.Post, error)
	DeletePost(ctx context.Context, id string) error
	SetTimer(ctx context.Context, id string, timer models.ContentTimer) error
	AddLike(ctx context.Context, id string, userID uint) (bool, error)
	RemoveLike(ctx context.Context, id string, userID uint) (bool, error)
	AddComment(ctx context.Context, id string, comment *models.Comment) error
	RemoveComment(ctx context.Context, id string, commentID string, userID uint) (bool, error)
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

// CreatePost creates a new post in MongoDB
func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID()
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	post.IsActive = true
	if post.Likes == nil {
		post.Likes = []uint{}
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	_, err := r.collection.InsertOne(ctx, post)
	return err
}

// GetPostByID retrieves a post by ID. A direct fetch bypasses the lifecycle
// filter; expired documents are still returned.
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid post ID format: %w", err)
	}

	var post models.Post
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&post)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

// GetVisiblePosts retrieves all posts passing the lifecycle filter, newest
// first.
func (r *MongoPostRepository) GetVisiblePosts(ctx context.Context, now time.Time) ([]models.Post, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, visibleFilter(now), findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var posts []models.Post
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPostsByAuthor retrieves all posts by one author, newest first
func (r *MongoPostRepository) GetPostsByAuthor(ctx context.Context, authorID uint) ([]models.Post, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"author_id": authorID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var posts []models.Post
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// DeletePost deletes a post by ID
func (r *MongoPostRepository) DeletePost(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid post ID format: %w", err)
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetTimer replaces the post's timer state
func (r *MongoPostRepository) SetTimer(ctx context.Context, id string, timer models.ContentTimer) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid post ID format: %w", err)
	}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{
		"$set": bson.M{"timer": timer, "updated_at": time.Now()},
	})
	return err
}

// AddLike adds the user to the post's like set. Returns false when the user
// had already liked the post; the conditional filter makes the
// check-and-add atomic under concurrent requests.
func (r *MongoPostRepository) AddLike(ctx context.Context, id string, userID uint) (bool, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("invalid post ID format: %w", err)
	}
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objID, "likes": bson.M{"$ne": userID}},
		bson.M{"$addToSet": bson.M{"likes": userID}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// RemoveLike removes the user from the post's like set. Returns false when
// there was no like to remove.
func (r *MongoPostRepository) RemoveLike(ctx context.Context, id string, userID uint) (bool, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("invalid post ID format: %w", err)
	}
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objID},
		bson.M{"$pull": bson.M{"likes": userID}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// AddComment prepends a comment to the post document
func (r *MongoPostRepository) AddComment(ctx context.Context, id string, comment *models.Comment) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid post ID format: %w", err)
	}
	comment.ID = primitive.NewObjectID()
	comment.CreatedAt = time.Now()

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{
		"$push": bson.M{"comments": bson.M{
			"$each":     []models.Comment{*comment},
			"$position": 0,
		}},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveComment pulls a comment owned by userID. Returns false when no such
// comment belongs to the user.
func (r *MongoPostRepository) RemoveComment(ctx context.Context, id string, commentID string, userID uint) (bool, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("invalid post ID format: %w", err)
	}
	commentObjID, err := primitive.ObjectIDFromHex(commentID)
	if err != nil {
		return false, fmt.Errorf("invalid comment ID format: %w", err)
	}
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objID},
		bson.M{"$pull": bson.M{"comments": bson.M{"_id": commentObjID, "user_id": userID}}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}
