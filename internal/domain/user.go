package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account record. The password field holds the argon2id hash
// and is never serialized.
type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username       string             `bson:"username" json:"username"`
	Password       string             `bson:"password" json:"-"`
	Mail           string             `bson:"mail" json:"mail"`
	IsEmailVisible bool               `bson:"isEmailVisible" json:"isEmailVisible"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}

// Redacted returns a copy safe for public exposure: the mail address is
// blanked unless the user opted into showing it.
func (u User) Redacted() User {
	if !u.IsEmailVisible {
		u.Mail = ""
	}
	return u
}
