package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Prices go over the wire as JSON numbers.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// ProductDTO is the external representation of a product, used both for the
// create request's "product" part and for responses.
type ProductDTO struct {
	ID          uint             `json:"id"`
	Name        string           `json:"name" validate:"notblank,max=250"`
	Description string           `json:"description" validate:"notblank,max=500"`
	Price       *decimal.Decimal `json:"price" validate:"required,price"`
	Popularity  *int             `json:"popularity,omitempty" validate:"omitempty,gte=0"`
	ImageURL    string           `json:"imageUrl,omitempty" validate:"max=500"`
	ImageBucket string           `json:"imageBucket,omitempty"`
	ImageKey    string           `json:"imageKey,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// ToDTO maps every entity field to its DTO counterpart.
func ToDTO(p Product) ProductDTO {
	price := p.Price
	return ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       &price,
		Popularity:  copyInt(p.Popularity),
		ImageURL:    p.ImageURL,
		ImageBucket: p.ImageBucket,
		ImageKey:    p.ImageKey,
		CreatedAt:   p.CreatedAt,
	}
}

// ToDTOs maps a slice, keeping order.
func ToDTOs(products []Product) []ProductDTO {
	dtos := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		dtos = append(dtos, ToDTO(p))
	}
	return dtos
}

// ToEntity maps the client-settable fields of a DTO. ID and CreatedAt are
// assigned by the store; the image fields are set by the create workflow.
func ToEntity(dto ProductDTO) Product {
	p := Product{
		Name:        dto.Name,
		Description: dto.Description,
		Popularity:  copyInt(dto.Popularity),
	}
	if dto.Price != nil {
		p.Price = *dto.Price
	}
	return p
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
