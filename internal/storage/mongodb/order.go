package mongodb

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/xenking/eshop-api/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by the orders collection.
type OrderRepository struct {
	col *mongo.Collection
}

// NewOrderRepository returns an OrderRepository over the given database.
func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{col: db.Collection(ordersCollection)}
}

type orderDoc struct {
	ID               primitive.ObjectID   `bson:"_id,omitempty"`
	OrderItems       []primitive.ObjectID `bson:"orderItems"`
	ShippingAddress1 string               `bson:"shippingAddress1"`
	ShippingAddress2 string               `bson:"shippingAddress2,omitempty"`
	City             string               `bson:"city"`
	Zip              string               `bson:"zip"`
	Country          string               `bson:"country"`
	Phone            string               `bson:"phone"`
	Status           string               `bson:"status"`
	TotalPrice       primitive.Decimal128 `bson:"totalPrice"`
	User             primitive.ObjectID   `bson:"user,omitempty"`
	DateOrdered      time.Time            `bson:"dateOrdered"`
}

// Create persists a new order, assigning its ObjectID.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	doc, err := toOrderDoc(o)
	if err != nil {
		return err
	}
	doc.ID = primitive.NewObjectID()

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return errors.Wrap(err, "insert order")
	}
	o.ID = doc.ID.Hex()
	return nil
}

// GetByID returns a single order. It returns order.ErrNotFound when the ID is
// not a valid ObjectID or no document matches.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, order.ErrNotFound
	}

	var doc orderDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "find order %s", id)
	}
	return fromOrderDoc(doc)
}

// List returns all orders.
func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	cursor, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, errors.Wrap(err, "find orders")
	}
	return decodeOrders(ctx, cursor)
}

// UpdateStatus sets the status field only and returns the updated order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status) (*order.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, order.ErrNotFound
	}

	var doc orderDoc
	err = r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"status": string(status)}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "update order %s", id)
	}
	return fromOrderDoc(doc)
}

// Delete removes an order document.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return order.ErrNotFound
	}

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return errors.Wrapf(err, "delete order %s", id)
	}
	if res.DeletedCount == 0 {
		return order.ErrNotFound
	}
	return nil
}

// ListByUser returns a user's orders sorted newest first. The secondary _id
// sort keeps the ordering stable for equal timestamps.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, nil
	}

	opts := options.Find().SetSort(bson.D{
		{Key: "dateOrdered", Value: -1},
		{Key: "_id", Value: -1},
	})
	cursor, err := r.col.Find(ctx, bson.M{"user": oid}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find user orders")
	}
	return decodeOrders(ctx, cursor)
}

// Count returns the number of order documents.
func (r *OrderRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, errors.Wrap(err, "count orders")
	}
	return n, nil
}

// TotalSales sums totalPrice across all orders with a $group aggregation.
func (r *OrderRepository) TotalSales(ctx context.Context) (decimal.Decimal, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "totalSales", Value: bson.D{{Key: "$sum", Value: "$totalPrice"}}},
		}}},
	}
	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "aggregate total sales")
	}
	defer cursor.Close(ctx)

	var results []struct {
		TotalSales primitive.Decimal128 `bson:"totalSales"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return decimal.Zero, errors.Wrap(err, "decode total sales")
	}
	if len(results) == 0 {
		return decimal.Zero, nil
	}
	return fromDecimal128(results[0].TotalSales)
}

func decodeOrders(ctx context.Context, cursor *mongo.Cursor) ([]order.Order, error) {
	defer cursor.Close(ctx)

	var docs []orderDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decode orders")
	}

	out := make([]order.Order, len(docs))
	for i, doc := range docs {
		o, err := fromOrderDoc(doc)
		if err != nil {
			return nil, err
		}
		out[i] = *o
	}
	return out, nil
}

func toOrderDoc(o *order.Order) (orderDoc, error) {
	total, err := toDecimal128(o.TotalPrice)
	if err != nil {
		return orderDoc{}, err
	}

	doc := orderDoc{
		OrderItems:       parseIDs(o.ItemIDs),
		ShippingAddress1: o.ShippingAddress1,
		ShippingAddress2: o.ShippingAddress2,
		City:             o.City,
		Zip:              o.Zip,
		Country:          o.Country,
		Phone:            o.Phone,
		Status:           string(o.Status),
		TotalPrice:       total,
		DateOrdered:      o.DateOrdered,
	}
	if o.UserID != "" {
		uid, err := primitive.ObjectIDFromHex(o.UserID)
		if err != nil {
			// A client-supplied reference, so reject it as validation input
			// rather than a storage failure.
			return orderDoc{}, &order.InvalidUserError{UserID: o.UserID}
		}
		doc.User = uid
	}
	return doc, nil
}

func fromOrderDoc(doc orderDoc) (*order.Order, error) {
	total, err := fromDecimal128(doc.TotalPrice)
	if err != nil {
		return nil, err
	}

	itemIDs := make([]string, len(doc.OrderItems))
	for i, oid := range doc.OrderItems {
		itemIDs[i] = oid.Hex()
	}

	o := &order.Order{
		ID:               doc.ID.Hex(),
		ItemIDs:          itemIDs,
		ShippingAddress1: doc.ShippingAddress1,
		ShippingAddress2: doc.ShippingAddress2,
		City:             doc.City,
		Zip:              doc.Zip,
		Country:          doc.Country,
		Phone:            doc.Phone,
		Status:           order.Status(doc.Status),
		TotalPrice:       total,
		DateOrdered:      doc.DateOrdered,
	}
	if !doc.User.IsZero() {
		o.UserID = doc.User.Hex()
	}
	return o, nil
}
