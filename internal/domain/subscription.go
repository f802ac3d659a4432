package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Subscription is one user's push-notification registration for one info
// on one device. Unique per (info, user, device).
type Subscription struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	InfoID    primitive.ObjectID `bson:"infoID" json:"infoID"`
	UserID    string             `bson:"userID" json:"userID"`
	Device    string             `bson:"device" json:"device"`
	PlayerID  string             `bson:"playerID" json:"playerID"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
