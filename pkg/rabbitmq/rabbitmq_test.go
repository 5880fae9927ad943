package rabbitmq

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"catalog/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProductCreatedEvent(t *testing.T) {
	price := decimal.RequireFromString("12.5")
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	event := NewProductCreatedEvent(models.ProductDTO{
		ID:        7,
		Name:      "Mug",
		Price:     &price,
		ImageURL:  "https://cdn.example.com/secret-path",
		CreatedAt: created,
	})

	body, err := json.Marshal(event)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"product.created","productId":7,"name":"Mug","price":"12.50","createdAt":"2024-05-01T12:00:00Z"}`, string(body))
	assert.NotContains(t, string(body), "cdn.example.com")
}

func TestPublishProductCreated_WithoutChannel(t *testing.T) {
	c := &Client{}

	err := c.PublishProductCreated(context.Background(), models.ProductDTO{ID: 1})

	assert.ErrorContains(t, err, "channel is not available")
	assert.NoError(t, c.Close())
}
