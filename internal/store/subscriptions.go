package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/quartierboard/board-api/internal/database"
	"github.com/quartierboard/board-api/internal/domain"
)

// SubscriptionStore handles persistence for notification subscriptions.
type SubscriptionStore struct {
	col *mongo.Collection
}

func NewSubscriptionStore(db *mongo.Database) *SubscriptionStore {
	return &SubscriptionStore{col: db.Collection(database.SubscriptionsCollection)}
}

// Insert stores a new subscription; a second one for the same
// (info, user, device) triple maps to ErrDuplicate.
func (s *SubscriptionStore) Insert(ctx context.Context, sub *domain.Subscription) error {
	if sub.ID.IsZero() {
		sub.ID = primitive.NewObjectID()
	}
	_, err := s.col.InsertOne(ctx, sub)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

// Get returns the subscription for one (info, user, device) triple.
func (s *SubscriptionStore) Get(ctx context.Context, infoID primitive.ObjectID, userID, device string) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := s.col.FindOne(ctx, bson.M{"infoID": infoID, "userID": userID, "device": device}).Decode(&sub)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}

// ByInfo returns every subscription referencing the given info.
func (s *SubscriptionStore) ByInfo(ctx context.Context, infoID primitive.ObjectID) ([]domain.Subscription, error) {
	cur, err := s.col.Find(ctx, bson.M{"infoID": infoID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	subs := []domain.Subscription{}
	if err := cur.All(ctx, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// Delete removes the subscription for one (info, user, device) triple.
func (s *SubscriptionStore) Delete(ctx context.Context, infoID primitive.ObjectID, userID, device string) error {
	res, err := s.col.DeleteOne(ctx, bson.M{"infoID": infoID, "userID": userID, "device": device})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByInfo removes every subscription referencing the given info.
// Idempotent; used by the delete cascade and the sweeper.
func (s *SubscriptionStore) DeleteByInfo(ctx context.Context, infoID primitive.ObjectID) error {
	_, err := s.col.DeleteMany(ctx, bson.M{"infoID": infoID})
	return err
}

// InfoIDs returns the distinct info IDs currently referenced by any
// subscription. The sweeper uses this for its orphan scan.
func (s *SubscriptionStore) InfoIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	raw, err := s.col.Distinct(ctx, "infoID", bson.M{})
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
