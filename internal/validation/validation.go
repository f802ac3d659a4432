// Package validation holds the pure input predicates and the string
// sanitization helpers shared by every handler. All functions are
// deterministic, never panic and reject unrecognized input instead of
// guessing.
package validation

import (
	"html"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,20}$`)

	validate = validator.New()

	// StrictPolicy strips every HTML element; what remains is
	// entity-escaped by sanitize below.
	sanitizePolicy = bluemonday.StrictPolicy()
)

// IsUsernameValid reports whether name is 3-20 chars of [a-zA-Z0-9_-].
func IsUsernameValid(name string) bool {
	return usernameRe.MatchString(name)
}

// IsPasswordValid requires 8-72 characters with at least one letter and
// one digit. The upper bound keeps the value inside the hash input limit.
func IsPasswordValid(password string) bool {
	if len(password) < 8 || len(password) > 72 {
		return false
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			hasLetter = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

// IsMailValid reports whether mail has an RFC-ish email shape.
func IsMailValid(mail string) bool {
	return validate.Var(mail, "required,email") == nil
}

// IsObjectIDValid reports whether id is a well-formed Mongo ObjectID hex.
func IsObjectIDValid(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}

// IsVoteTypeValid accepts exactly the two vote tokens.
func IsVoteTypeValid(votetype string) bool {
	return votetype == "upvote" || votetype == "downvote"
}

// CheckBoolean coerces the truthy forms produced by form submissions
// (bool true, "true", "on", "1"). Anything else is false.
func CheckBoolean(v any) bool {
	switch value := v.(type) {
	case bool:
		return value
	case string:
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "on", "1":
			return true
		}
	}
	return false
}

// SanitizeString strips HTML elements and escapes what remains so
// free-text fields are inert when stored.
func SanitizeString(s string) string {
	return strings.TrimSpace(sanitizePolicy.Sanitize(s))
}

// DecodeHTML reverses entity escaping for display contexts, e.g. when
// composing notification text from a stored title.
func DecodeHTML(s string) string {
	return html.UnescapeString(s)
}
