package product

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shivshakti/boutique-backend/pkg/db/models"
	pkgerrors "github.com/shivshakti/boutique-backend/pkg/errors"
	"github.com/shivshakti/boutique-backend/pkg/logger"
	"github.com/shivshakti/boutique-backend/pkg/storage/gcs"
)

// Service exposes catalog reads and admin product management.
type Service interface {
	List(ctx context.Context, filters ListFilters) ([]ProductDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ServiceParams struct {
	Repo          Repository
	Uploader      gcs.Uploader
	MaxImageBytes int64
	Logger        *logger.Logger
}

type service struct {
	repo          Repository
	uploader      gcs.Uploader
	maxImageBytes int64
	logg          *logger.Logger
}

// NewService constructs a product service. The uploader is optional; without
// it only products with an image URL can be created.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:          params.Repo,
		uploader:      params.Uploader,
		maxImageBytes: params.MaxImageBytes,
		logg:          params.Logger,
	}, nil
}

func (s *service) List(ctx context.Context, filters ListFilters) ([]ProductDTO, error) {
	products, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	out := make([]ProductDTO, 0, len(products))
	for i := range products {
		out = append(out, NewProductDTO(&products[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapProductError(err, "load product")
	}
	dto := NewProductDTO(product)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	fieldErrs := map[string]string{}
	if name == "" {
		fieldErrs["name"] = "is required"
	}
	if input.Price.IsNegative() {
		fieldErrs["price"] = "must be non-negative"
	}
	imageURL := strings.TrimSpace(input.ImageURL)
	if input.Image == nil {
		if imageURL == "" {
			fieldErrs["image"] = "an image URL or file is required"
		} else if !isHTTPURL(imageURL) {
			fieldErrs["image"] = "must be an absolute http(s) URL"
		}
	}
	if len(fieldErrs) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product").WithDetails(fieldErrs)
	}

	if input.Image != nil {
		uploaded, err := s.storeImage(ctx, input.Image)
		if err != nil {
			return nil, err
		}
		imageURL = uploaded
	}

	product := &models.Product{
		ID:          uuid.New(),
		Name:        name,
		Price:       input.Price.Round(2),
		Description: strings.TrimSpace(input.Description),
		Category:    strings.TrimSpace(input.Category),
		ImageURL:    imageURL,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}

	s.logg.Info(s.logg.WithField(ctx, "product_id", product.ID.String()), "product.created")
	dto := NewProductDTO(product)
	return &dto, nil
}

func (s *service) storeImage(ctx context.Context, upload *ImageUpload) (string, error) {
	if s.uploader == nil {
		return "", pkgerrors.New(pkgerrors.CodeConfiguration, "image uploads are not configured")
	}
	img, err := sniffImage(upload, s.maxImageBytes)
	if err != nil {
		return "", err
	}
	object := imageObjectName(img.ext)
	publicURL, err := s.uploader.Upload(ctx, object, img.contentType, img.reader())
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload product image")
	}
	return publicURL, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapProductError(err, "delete product")
	}
	s.logg.Info(s.logg.WithField(ctx, "product_id", id.String()), "product.deleted")
	return nil
}

func mapProductError(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Seed inserts the starter catalog when no products exist. It returns the
// number of products created.
func Seed(ctx context.Context, svc Service, repo Repository) (int, error) {
	count, err := repo.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}
	created := 0
	for _, input := range StarterCatalog() {
		if _, err := svc.Create(ctx, input); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
