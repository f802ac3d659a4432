package database

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/quartierboard/board-api/internal/logger"
)

// Mongo collection names used across the stores.
const (
	UsersCollection         = "users"
	InfosCollection         = "infos"
	SubscriptionsCollection = "subscriptions"
)

// ConnectMongo connects to MongoDB, pings it and returns a handle to the
// application database. The database name is taken from the URI path,
// falling back to "board".
func ConnectMongo(ctx context.Context, mongoURI string) (*mongo.Client, *mongo.Database, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(mongoURI)
	clientOptions.SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, nil, err
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 10*time.Second)
	defer pingCancel()

	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, nil, err
	}

	db := client.Database(databaseName(mongoURI))
	logger.Log.Infow("connected to MongoDB", "database", db.Name())
	return client, db, nil
}

func databaseName(mongoURI string) string {
	name := "board"
	if mongoURI == "" {
		return name
	}
	parts := strings.Split(mongoURI, "/")
	if len(parts) > 3 {
		dbPart := strings.Split(parts[len(parts)-1], "?")[0]
		if dbPart != "" {
			name = dbPart
		}
	}
	return name
}

// EnsureIndexes creates the indexes every collection relies on.
// Called on startup from main after Mongo has connected.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)

	indexes := map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "mail", Value: 1}}, Options: unique},
		},
		InfosCollection: {
			{Keys: bson.D{{Key: "expirydate", Value: 1}}},
			{Keys: bson.D{{Key: "userID", Value: 1}}},
			{Keys: bson.D{{Key: "voteCount", Value: -1}}},
		},
		SubscriptionsCollection: {
			{Keys: bson.D{{Key: "infoID", Value: 1}}},
			{
				Keys: bson.D{
					{Key: "infoID", Value: 1},
					{Key: "userID", Value: 1},
					{Key: "device", Value: 1},
				},
				Options: options.Index().SetUnique(true),
			},
		},
	}

	for collection, models := range indexes {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}
