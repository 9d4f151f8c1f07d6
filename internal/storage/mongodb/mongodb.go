// Package mongodb implements the domain repositories on top of MongoDB
// collections. Documents use ObjectID primary keys; domain types see them as
// hex strings. Prices are stored as Decimal128 to keep totals exact.
package mongodb

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names.
const (
	ordersCollection     = "orders"
	orderItemsCollection = "orderitems"
	productsCollection   = "products"
	categoriesCollection = "categories"
	usersCollection      = "users"
)

const connectTimeout = 10 * time.Second

// Connect establishes a client connection and verifies it with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "connect")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, errors.Wrap(err, "ping")
	}
	return client, nil
}

// parseIDs converts hex strings to ObjectIDs, silently dropping values that
// are not valid ObjectIDs. Such references can never match a stored document,
// which is exactly how an unparsable ID should behave in an $in filter.
func parseIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		out = append(out, oid)
	}
	return out
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, errors.Wrap(err, "encode decimal")
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "decode decimal")
	}
	return d, nil
}
