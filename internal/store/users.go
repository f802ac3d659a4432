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

// UserStore handles persistence for accounts.
type UserStore struct {
	col *mongo.Collection
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{col: db.Collection(database.UsersCollection)}
}

// Insert stores a new user. Username and mail uniqueness is enforced by
// the collection indexes; a violation maps to ErrDuplicate.
func (s *UserStore) Insert(ctx context.Context, user *domain.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	_, err := s.col.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (s *UserStore) decodeOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var user domain.User
	err := s.col.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Get returns one user by ID.
func (s *UserStore) Get(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	return s.decodeOne(ctx, bson.M{"_id": id})
}

// ByUsername returns one user by exact username.
func (s *UserStore) ByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.decodeOne(ctx, bson.M{"username": username})
}

// ByMail returns one user by mail address.
func (s *UserStore) ByMail(ctx context.Context, mail string) (*domain.User, error) {
	return s.decodeOne(ctx, bson.M{"mail": mail})
}

// All returns every user.
func (s *UserStore) All(ctx context.Context) ([]domain.User, error) {
	cur, err := s.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	users := []domain.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Update writes back a mutated user record.
func (s *UserStore) Update(ctx context.Context, user *domain.User) error {
	res, err := s.col.ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes one user.
func (s *UserStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
