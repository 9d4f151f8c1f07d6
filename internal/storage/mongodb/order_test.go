package mongodb

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xenking/eshop-api/internal/domain/order"
)

func TestToOrderDoc_Roundtrip(t *testing.T) {
	userID := primitive.NewObjectID()
	itemID := primitive.NewObjectID()
	o := &order.Order{
		ItemIDs:          []string{itemID.Hex()},
		ShippingAddress1: "1 Main St",
		City:             "Springfield",
		Zip:              "12345",
		Country:          "US",
		Phone:            "555-0100",
		Status:           order.StatusProcessing,
		TotalPrice:       decimal.RequireFromString("25.50"),
		UserID:           userID.Hex(),
		DateOrdered:      time.Now().UTC().Truncate(time.Millisecond),
	}

	doc, err := toOrderDoc(o)
	require.NoError(t, err)
	doc.ID = primitive.NewObjectID()

	got, err := fromOrderDoc(doc)
	require.NoError(t, err)
	assert.Equal(t, o.ItemIDs, got.ItemIDs)
	assert.Equal(t, o.UserID, got.UserID)
	assert.Equal(t, o.Status, got.Status)
	assert.True(t, o.TotalPrice.Equal(got.TotalPrice))
	assert.True(t, o.DateOrdered.Equal(got.DateOrdered))
}

func TestToOrderDoc_InvalidUser(t *testing.T) {
	o := &order.Order{
		TotalPrice: decimal.Zero,
		UserID:     "not-an-object-id",
	}

	_, err := toOrderDoc(o)
	var userErr *order.InvalidUserError
	require.ErrorAs(t, err, &userErr)
	assert.Equal(t, "not-an-object-id", userErr.UserID)
}

func TestToOrderDoc_NoUser(t *testing.T) {
	doc, err := toOrderDoc(&order.Order{TotalPrice: decimal.Zero})
	require.NoError(t, err)
	assert.True(t, doc.User.IsZero())
}
