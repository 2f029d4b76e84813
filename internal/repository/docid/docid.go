// Package docid converts list and item identifiers between their API string
// form and the stores' native keys.
package docid

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	todosdomain "todo-app-go/internal/domain/todos"
)

// NewListID returns a 24 character ObjectID hex string. Non-mongo stores use
// it so list ids look the same whichever backend issued them.
func NewListID() string {
	return primitive.NewObjectID().Hex()
}

func ParseListID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", todosdomain.ErrInvalidID, id)
	}
	return oid, nil
}

func ValidateListID(id string) error {
	_, err := ParseListID(id)
	return err
}

// NewItemID returns 128 random bits as 32 lowercase hex characters.
func NewItemID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}
