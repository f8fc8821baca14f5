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

// PollRepository defines the interface for poll data operations
type PollRepository interface {
	CreatePoll(ctx context.Context, poll *models.Poll) error
	GetPollByID(ctx context.Context, id string) (*models.Poll, error)
	GetVisiblePolls(ctx context.Context, now time.Time) ([]models.Poll, error)
	DeletePoll(ctx context.Context, id string) error
	SetTimer(ctx context.Context, id string, timer models.ContentTimer) error
	// CastVote atomically records a vote for options[optionIndex]. It returns
	// false when the user is already present in any option's voter set, so
	// two racing requests from the same user can never both land.
	CastVote(ctx context.Context, id string, optionIndex int, userID uint) (bool, error)
}

// MongoPollRepository implements PollRepository for MongoDB
type MongoPollRepository struct {
	collection *mongo.Collection
}

// NewMongoPollRepository creates a new MongoPollRepository
func NewMongoPollRepository(db *mongo.Database) *MongoPollRepository {
	return &MongoPollRepository{collection: db.Collection("polls")}
}

// CreatePoll creates a new poll in MongoDB
func (r *MongoPollRepository) CreatePoll(ctx context.Context, poll *models.Poll) error {
	poll.ID = primitive.NewObjectID()
	poll.CreatedAt = time.Now()
	poll.UpdatedAt = poll.CreatedAt
	poll.IsActive = true
	for i := range poll.Options {
		if poll.Options[i].Voters == nil {
			poll.Options[i].Voters = []uint{}
		}
	}
	_, err := r.collection.InsertOne(ctx, poll)
	return err
}

// GetPollByID retrieves a poll by ID. A direct fetch bypasses the lifecycle
// filter; expired documents are still returned.
func (r *MongoPollRepository) GetPollByID(ctx context.Context, id string) (*models.Poll, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid poll ID format: %w", err)
	}

	var poll models.Poll
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&poll)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &poll, nil
}

// GetVisiblePolls retrieves all polls passing the lifecycle filter, newest
// first.
func (r *MongoPollRepository) GetVisiblePolls(ctx context.Context, now time.Time) ([]models.Poll, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, visibleFilter(now), findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var polls []models.Poll
	if err = cursor.All(ctx, &polls); err != nil {
		return nil, err
	}
	return polls, nil
}

// DeletePoll deletes a poll by ID
func (r *MongoPollRepository) DeletePoll(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid poll ID format: %w", err)
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

// SetTimer replaces the poll's timer state
func (r *MongoPollRepository) SetTimer(ctx context.Context, id string, timer models.ContentTimer) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid poll ID format: %w", err)
	}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{
		"$set": bson.M{"timer": timer, "updated_at": time.Now()},
	})
	return err
}

// CastVote performs a single conditional update: the filter only matches the
// poll when no option's voter set contains the user, and the update adds the
// user to the chosen option. A read-then-write sequence here would let two
// concurrent requests from the same user both pass the membership check;
// pushing the check into the update filter closes that window.
func (r *MongoPollRepository) CastVote(ctx context.Context, id string, optionIndex int, userID uint) (bool, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("invalid poll ID format: %w", err)
	}

	filter := bson.M{
		"_id":            objID,
		"options.voters": bson.M{"$ne": userID},
	}
	update := bson.M{
		"$addToSet": bson.M{fmt.Sprintf("options.%d.voters", optionIndex): userID},
		"$set":      bson.M{"updated_at": time.Now()},
	}

	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}
