package mongodb

import (
	"context"

	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/xenking/eshop-api/internal/domain/product"
)

var _ product.CategoryRepository = (*CategoryRepository)(nil)

// CategoryRepository implements product.CategoryRepository backed by the
// categories collection.
type CategoryRepository struct {
	col *mongo.Collection
}

// NewCategoryRepository returns a CategoryRepository over the given database.
func NewCategoryRepository(db *mongo.Database) *CategoryRepository {
	return &CategoryRepository{col: db.Collection(categoriesCollection)}
}

type categoryDoc struct {
	ID    primitive.ObjectID `bson:"_id,omitempty"`
	Name  string             `bson:"name"`
	Icon  string             `bson:"icon,omitempty"`
	Color string             `bson:"color,omitempty"`
}

// ListCategories returns all categories.
func (r *CategoryRepository) ListCategories(ctx context.Context) ([]product.Category, error) {
	cursor, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, errors.Wrap(err, "find categories")
	}
	defer cursor.Close(ctx)

	var docs []categoryDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decode categories")
	}

	out := make([]product.Category, len(docs))
	for i, doc := range docs {
		out[i] = fromCategoryDoc(doc)
	}
	return out, nil
}

// GetCategoryByID returns a single category, or product.ErrCategoryNotFound.
func (r *CategoryRepository) GetCategoryByID(ctx context.Context, id string) (*product.Category, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, product.ErrCategoryNotFound
	}

	var doc categoryDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, product.ErrCategoryNotFound
		}
		return nil, errors.Wrapf(err, "find category %s", id)
	}

	c := fromCategoryDoc(doc)
	return &c, nil
}

// UpsertByName inserts or updates a category keyed by name and returns its ID.
// Used by the seed tooling.
func (r *CategoryRepository) UpsertByName(ctx context.Context, c *product.Category) (string, error) {
	update := bson.M{"$set": bson.M{
		"name":  c.Name,
		"icon":  c.Icon,
		"color": c.Color,
	}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc categoryDoc
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"name": c.Name}, update, opts).Decode(&doc); err != nil {
		return "", errors.Wrapf(err, "upsert category %s", c.Name)
	}
	return doc.ID.Hex(), nil
}

func fromCategoryDoc(doc categoryDoc) product.Category {
	return product.Category{
		ID:    doc.ID.Hex(),
		Name:  doc.Name,
		Icon:  doc.Icon,
		Color: doc.Color,
	}
}
