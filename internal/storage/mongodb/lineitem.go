package mongodb

import (
	"context"

	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/xenking/eshop-api/internal/domain/order"
)

var _ order.LineItemRepository = (*LineItemRepository)(nil)

// LineItemRepository implements order.LineItemRepository backed by the
// orderitems collection.
type LineItemRepository struct {
	col *mongo.Collection
}

// NewLineItemRepository returns a LineItemRepository over the given database.
func NewLineItemRepository(db *mongo.Database) *LineItemRepository {
	return &LineItemRepository{col: db.Collection(orderItemsCollection)}
}

type lineItemDoc struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Product  primitive.ObjectID `bson:"product"`
	Quantity int                `bson:"quantity"`
}

// Create persists a new line item, assigning its ObjectID. The product
// reference is stored as given; existence is enforced by price aggregation
// before any order referencing the item is written.
func (r *LineItemRepository) Create(ctx context.Context, item *order.LineItem) error {
	pid, err := primitive.ObjectIDFromHex(item.ProductID)
	if err != nil {
		// Not a storable reference, so it can never resolve to a product.
		return &order.ProductNotFoundError{ProductID: item.ProductID}
	}

	doc := lineItemDoc{
		ID:       primitive.NewObjectID(),
		Product:  pid,
		Quantity: item.Quantity,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return errors.Wrap(err, "insert line item")
	}
	item.ID = doc.ID.Hex()
	return nil
}

// GetByIDs returns the line items matching the given IDs. Missing or
// unparsable IDs are simply absent from the result.
func (r *LineItemRepository) GetByIDs(ctx context.Context, ids []string) ([]order.LineItem, error) {
	oids := parseIDs(ids)
	if len(oids) == 0 {
		return nil, nil
	}

	cursor, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, errors.Wrap(err, "find line items")
	}
	defer cursor.Close(ctx)

	var docs []lineItemDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decode line items")
	}

	out := make([]order.LineItem, len(docs))
	for i, doc := range docs {
		out[i] = order.LineItem{
			ID:        doc.ID.Hex(),
			ProductID: doc.Product.Hex(),
			Quantity:  doc.Quantity,
		}
	}
	return out, nil
}

// Delete removes a line item document. Deleting an already-absent item is not
// an error; cascades may race with each other.
func (r *LineItemRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}
	if _, err := r.col.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return errors.Wrapf(err, "delete line item %s", id)
	}
	return nil
}
