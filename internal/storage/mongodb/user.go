package mongodb

import (
	"context"

	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/xenking/eshop-api/internal/domain/user"
)

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository backed by the users collection.
type UserRepository struct {
	col *mongo.Collection
}

// NewUserRepository returns a UserRepository over the given database.
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(usersCollection)}
}

type userDoc struct {
	ID      primitive.ObjectID `bson:"_id,omitempty"`
	Name    string             `bson:"name"`
	Email   string             `bson:"email"`
	IsAdmin bool               `bson:"isAdmin"`
}

// GetByID returns a single user, or user.ErrNotFound.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, user.ErrNotFound
	}

	var doc userDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, user.ErrNotFound
		}
		return nil, errors.Wrapf(err, "find user %s", id)
	}

	return &user.User{
		ID:      doc.ID.Hex(),
		Name:    doc.Name,
		Email:   doc.Email,
		IsAdmin: doc.IsAdmin,
	}, nil
}

// UpsertByEmail inserts or updates a user keyed by email and returns its ID.
// Used by the seed tooling; the API itself never writes users.
func (r *UserRepository) UpsertByEmail(ctx context.Context, u *user.User) (string, error) {
	update := bson.M{"$set": bson.M{
		"name":    u.Name,
		"email":   u.Email,
		"isAdmin": u.IsAdmin,
	}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc userDoc
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"email": u.Email}, update, opts).Decode(&doc); err != nil {
		return "", errors.Wrapf(err, "upsert user %s", u.Email)
	}
	return doc.ID.Hex(), nil
}
