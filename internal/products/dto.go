package product

import (
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shivshakti/boutique-backend/pkg/db/models"
)

// ListFilters narrows the catalog listing.
type ListFilters struct {
	Category string
	Query    string
}

// ImageUpload is an uploaded product image awaiting storage.
type ImageUpload struct {
	Filename string
	Body     io.Reader
}

// CreateProductInput holds the payload to create a product. Exactly one of
// ImageURL or Image supplies the picture; an uploaded file wins.
type CreateProductInput struct {
	Name        string          `json:"name" validate:"required"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"image"`
	Image       *ImageUpload    `json:"-"`
}

// ProductDTO is the API representation of a product.
type ProductDTO struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"image"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func NewProductDTO(p *models.Product) ProductDTO {
	return ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Description: p.Description,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
