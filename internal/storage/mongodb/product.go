package mongodb

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/xenking/eshop-api/internal/domain/product"
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by the products
// collection.
type ProductRepository struct {
	col *mongo.Collection
}

// NewProductRepository returns a ProductRepository over the given database.
func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{col: db.Collection(productsCollection)}
}

type productDoc struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty"`
	Name            string               `bson:"name"`
	Description     string               `bson:"description"`
	RichDescription string               `bson:"richDescription,omitempty"`
	Image           string               `bson:"image,omitempty"`
	Brand           string               `bson:"brand,omitempty"`
	Price           primitive.Decimal128 `bson:"price"`
	Category        primitive.ObjectID   `bson:"category"`
	CountInStock    int                  `bson:"countInStock"`
	Rating          int                  `bson:"rating,omitempty"`
	NumReviews      int                  `bson:"numReviews,omitempty"`
	IsFeatured      bool                 `bson:"isFeatured"`
	DateCreated     time.Time            `bson:"dateCreated"`
}

// List returns catalog products, optionally filtered by category IDs.
func (r *ProductRepository) List(ctx context.Context, categoryIDs []string) ([]product.Product, error) {
	filter := bson.M{}
	if len(categoryIDs) > 0 {
		filter["category"] = bson.M{"$in": parseIDs(categoryIDs)}
	}

	cursor, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "find products")
	}
	return decodeProducts(ctx, cursor)
}

// GetByID returns a single product, or product.ErrNotFound.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, product.ErrNotFound
	}

	var doc productDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "find product %s", id)
	}
	return fromProductDoc(doc)
}

// GetByIDs returns products matching the given IDs; missing IDs are simply
// absent from the result.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	oids := parseIDs(ids)
	if len(oids) == 0 {
		return nil, nil
	}

	cursor, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, errors.Wrap(err, "find products")
	}
	return decodeProducts(ctx, cursor)
}

// Count returns the number of catalog products.
func (r *ProductRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, errors.Wrap(err, "count products")
	}
	return n, nil
}

// ListFeatured returns up to limit featured products.
func (r *ProductRepository) ListFeatured(ctx context.Context, limit int) ([]product.Product, error) {
	opts := options.Find().SetLimit(int64(limit))
	cursor, err := r.col.Find(ctx, bson.M{"isFeatured": true}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find featured products")
	}
	return decodeProducts(ctx, cursor)
}

// UpsertByName inserts or updates a product keyed by name and returns its ID.
// Used by the seed tooling.
func (r *ProductRepository) UpsertByName(ctx context.Context, p *product.Product) (string, error) {
	price, err := toDecimal128(p.Price)
	if err != nil {
		return "", err
	}

	set := bson.M{
		"name":            p.Name,
		"description":     p.Description,
		"richDescription": p.RichDescription,
		"image":           p.Image,
		"brand":           p.Brand,
		"price":           price,
		"countInStock":    p.CountInStock,
		"rating":          p.Rating,
		"numReviews":      p.NumReviews,
		"isFeatured":      p.IsFeatured,
	}
	if p.CategoryID != "" {
		oid, err := primitive.ObjectIDFromHex(p.CategoryID)
		if err != nil {
			return "", errors.Wrapf(err, "parse category id %s", p.CategoryID)
		}
		set["category"] = oid
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"dateCreated": p.DateCreated},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc productDoc
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"name": p.Name}, update, opts).Decode(&doc); err != nil {
		return "", errors.Wrapf(err, "upsert product %s", p.Name)
	}
	return doc.ID.Hex(), nil
}

func decodeProducts(ctx context.Context, cursor *mongo.Cursor) ([]product.Product, error) {
	defer cursor.Close(ctx)

	var docs []productDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decode products")
	}

	out := make([]product.Product, len(docs))
	for i, doc := range docs {
		p, err := fromProductDoc(doc)
		if err != nil {
			return nil, err
		}
		out[i] = *p
	}
	return out, nil
}

func fromProductDoc(doc productDoc) (*product.Product, error) {
	price, err := fromDecimal128(doc.Price)
	if err != nil {
		return nil, err
	}

	p := &product.Product{
		ID:              doc.ID.Hex(),
		Name:            doc.Name,
		Description:     doc.Description,
		RichDescription: doc.RichDescription,
		Image:           doc.Image,
		Brand:           doc.Brand,
		Price:           price,
		CountInStock:    doc.CountInStock,
		Rating:          doc.Rating,
		NumReviews:      doc.NumReviews,
		IsFeatured:      doc.IsFeatured,
		DateCreated:     doc.DateCreated,
	}
	if !doc.Category.IsZero() {
		p.CategoryID = doc.Category.Hex()
	}
	return p, nil
}
