package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/quartierboard/board-api/internal/database"
	"github.com/quartierboard/board-api/internal/domain"
)

// InfoStore handles persistence for the info aggregate.
type InfoStore struct {
	col *mongo.Collection
}

func NewInfoStore(db *mongo.Database) *InfoStore {
	return &InfoStore{col: db.Collection(database.InfosCollection)}
}

// Insert stores a new info, assigning its ID and initial version.
func (s *InfoStore) Insert(ctx context.Context, info *domain.Info) error {
	if info.ID.IsZero() {
		info.ID = primitive.NewObjectID()
	}
	info.Version = 1
	if info.Votes == nil {
		info.Votes = []domain.Vote{}
	}
	if info.Comments == nil {
		info.Comments = []domain.Comment{}
	}
	_, err := s.col.InsertOne(ctx, info)
	return err
}

// Get returns one info by ID.
func (s *InfoStore) Get(ctx context.Context, id primitive.ObjectID) (*domain.Info, error) {
	var info domain.Info
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&info)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &info, nil
}

// All returns every info sorted by descending aggregate vote score.
func (s *InfoStore) All(ctx context.Context) ([]domain.Info, error) {
	opts := options.Find().SetSort(bson.D{{Key: "voteCount", Value: -1}})
	cur, err := s.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	infos := []domain.Info{}
	if err := cur.All(ctx, &infos); err != nil {
		return nil, err
	}
	return infos, nil
}

// ByOwner returns every info owned by the given user.
func (s *InfoStore) ByOwner(ctx context.Context, userID string) ([]domain.Info, error) {
	cur, err := s.col.Find(ctx, bson.M{"userID": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	infos := []domain.Info{}
	if err := cur.All(ctx, &infos); err != nil {
		return nil, err
	}
	return infos, nil
}

// Replace writes the aggregate back with a compare-and-swap on its
// version counter. A concurrent writer makes the filter miss and the
// caller gets ErrConflict; it should reload and retry its mutation.
func (s *InfoStore) Replace(ctx context.Context, info *domain.Info) error {
	currentVersion := info.Version
	info.Version++
	res, err := s.col.ReplaceOne(ctx, bson.M{"_id": info.ID, "version": currentVersion}, info)
	if err != nil {
		info.Version = currentVersion
		return err
	}
	if res.MatchedCount == 0 {
		info.Version = currentVersion
		return ErrConflict
	}
	return nil
}

// Delete removes one info. Idempotent: deleting a missing info returns
// ErrNotFound without side effects.
func (s *InfoStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteOwned removes one info only when owned by userID.
func (s *InfoStore) DeleteOwned(ctx context.Context, id primitive.ObjectID, userID string) error {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id, "userID": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByOwner removes every info owned by userID (account deletion).
func (s *InfoStore) DeleteByOwner(ctx context.Context, userID string) error {
	_, err := s.col.DeleteMany(ctx, bson.M{"userID": userID})
	return err
}

// Expired returns every info whose expirydate is strictly before now.
func (s *InfoStore) Expired(ctx context.Context, now time.Time) ([]domain.Info, error) {
	cur, err := s.col.Find(ctx, bson.M{"expirydate": bson.M{"$lt": now.UTC()}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	infos := []domain.Info{}
	if err := cur.All(ctx, &infos); err != nil {
		return nil, err
	}
	return infos, nil
}

// Exists reports whether an info with the given ID is present.
func (s *InfoStore) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	count, err := s.col.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
