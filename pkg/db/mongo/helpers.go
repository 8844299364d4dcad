package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrInvalidObjectID = errors.New("invalid object id")

// WithTimeout wraps ctx with a timeout unless it is a session context, which
// cannot be wrapped without leaving the transaction. An earlier caller
// deadline wins.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		return context.WithDeadline(ctx, deadline)
	}
	return context.WithTimeout(ctx, timeout)
}

func ObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidObjectID
	}
	return oid, nil
}

// ObjectIDs converts hex ids, failing on the first malformed one.
func ObjectIDs(ids []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := ObjectID(id)
		if err != nil {
			return nil, err
		}
		out = append(out, oid)
	}
	return out, nil
}

// InsertedHex returns the hex form of an inserted ObjectID, or "".
func InsertedHex(id any) string {
	if oid, ok := id.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return ""
}

// NewID returns a fresh hex ObjectID for documents whose id must be known
// before insert.
func NewID() string {
	return primitive.NewObjectID().Hex()
}
