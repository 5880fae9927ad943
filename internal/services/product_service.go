package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"catalog/internal/apperrors"
	"catalog/internal/config"
	"catalog/internal/logger"
	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	maxImageURLLength = 500
	cleanupTimeout    = 10 * time.Second
)

// ImageUpload is an uploaded image. A nil *ImageUpload means the request had no image.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// StorageSettings names where product images go and how they are addressed publicly.
type StorageSettings struct {
	Bucket        string
	PublicBaseURL string
}

// EventPublisher is notified after a product has been created.
type EventPublisher interface {
	PublishProductCreated(ctx context.Context, product models.ProductDTO) error
}

// Option configures a ProductService.
type Option func(*ProductService)

// WithEventPublisher publishes product-created events through p.
func WithEventPublisher(p EventPublisher) Option {
	return func(s *ProductService) { s.events = p }
}

// WithIDGenerator replaces the random UUID source used for object keys.
func WithIDGenerator(fn func() uuid.UUID) Option {
	return func(s *ProductService) { s.newID = fn }
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo          repositories.ProductRepository
	store         storage.ObjectStorage
	bucket        string
	publicBaseURL string
	maxImageSize  int64
	validate      *validator.Validate
	events        EventPublisher
	newID         func() uuid.UUID
	log           *logger.Logger
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, store storage.ObjectStorage, settings StorageSettings, log *logger.Logger, opts ...Option) *ProductService {
	s := &ProductService{
		repo:          repo,
		store:         store,
		bucket:        settings.Bucket,
		publicBaseURL: settings.PublicBaseURL,
		maxImageSize:  config.MaxImageSize,
		validate:      newValidator(),
		newID:         uuid.New,
		log:           log.WithComponent("products"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetAllProducts returns every product in the order the store returns them.
func (s *ProductService) GetAllProducts(ctx context.Context) ([]models.ProductDTO, error) {
	start := time.Now()
	s.log.Debug("getProducts called")

	products, err := s.repo.FindAll(ctx)
	if err != nil {
		s.log.Error("products fetch failed", "error", err)
		return nil, apperrors.Persistence("list products", err)
	}

	result := models.ToDTOs(products)
	s.log.Info("products fetched", "count", len(result), "duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

// CreateProduct validates the image and fields, uploads the image, then
// persists the product. If persisting fails the uploaded object is deleted on
// a best-effort basis and the persistence error is returned.
func (s *ProductService) CreateProduct(ctx context.Context, dto models.ProductDTO, image *ImageUpload) (created *models.ProductDTO, err error) {
	start := time.Now()
	if image != nil {
		s.log.Info("createProduct invoked", "image_size", image.Size, "content_type", image.ContentType)
	} else {
		s.log.Info("createProduct invoked", "image_size", -1, "content_type", "null")
	}

	if err := s.validateImage(image); err != nil {
		return nil, err
	}
	if err := s.validateFields(dto); err != nil {
		return nil, err
	}

	safeName := SanitizeFilename(image.Filename)
	s.log.Debug("sanitized filename", "masked", logger.MaskFilename(safeName))
	key := ObjectKey(s.newID(), safeName)
	maskedBucket, maskedKey := logger.MaskBucket(s.bucket), logger.MaskKey(key)

	imageURL := PublicURL(s.publicBaseURL, key)
	if len(imageURL) > maxImageURLLength {
		s.log.Warn("image validation failed: filename too long", "length", len(safeName))
		return nil, apperrors.FieldViolation(map[string]string{
			"imageUrl": fmt.Sprintf("imageUrl must be at most %d characters; use a shorter filename", maxImageURLLength),
		})
	}

	uploaded := false
	defer func() {
		if r := recover(); r != nil {
			if uploaded {
				s.deleteUploaded(ctx, key, "panic during createProduct")
			}
			s.log.Error("createProduct aborted", "panic", r, "bucket", maskedBucket, "key", maskedKey)
			created = nil
			err = apperrors.Workflow("create product", fmt.Errorf("panic: %v", r))
		}
	}()

	s.log.Debug("uploading image", "bucket", maskedBucket, "key", maskedKey, "size", image.Size)
	if err := s.store.Put(ctx, s.bucket, key, image.ContentType, image.Content, image.Size); err != nil {
		s.log.Error("image upload failed",
			"bucket", maskedBucket,
			"key", maskedKey,
			"content_type", image.ContentType,
			"size", image.Size,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err)
		return nil, apperrors.Storage("image upload failed", err)
	}
	uploaded = true

	entity := models.ToEntity(dto)
	entity.ImageURL = imageURL
	entity.ImageBucket = s.bucket
	entity.ImageKey = key

	if err := s.repo.Save(ctx, &entity); err != nil {
		s.log.Error("product save failed", "bucket", maskedBucket, "key", maskedKey, "error", err)
		s.deleteUploaded(ctx, key, "persistence failure during createProduct")
		return nil, apperrors.Persistence("save product", err)
	}
	// The object now belongs to a persisted record and must survive any later failure.
	uploaded = false

	result := models.ToDTO(entity)
	s.log.Info("product created", "id", result.ID, "image_stored", true, "duration_ms", time.Since(start).Milliseconds())

	s.publishCreated(ctx, result)
	return &result, nil
}

// deleteUploaded removes the object written by CreateProduct. Errors are logged
// and swallowed so they never replace the error that triggered the cleanup.
func (s *ProductService) deleteUploaded(ctx context.Context, key, reason string) {
	maskedBucket, maskedKey := logger.MaskBucket(s.bucket), logger.MaskKey(key)
	s.log.Warn("attempting storage cleanup", "reason", reason, "bucket", maskedBucket, "key", maskedKey)

	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	if err := s.store.Delete(cleanupCtx, s.bucket, key); err != nil {
		s.log.Error("storage cleanup failed", "bucket", maskedBucket, "key", maskedKey, "error", err)
		return
	}
	s.log.Info("storage cleanup succeeded", "bucket", maskedBucket, "key", maskedKey)
}

func (s *ProductService) publishCreated(ctx context.Context, product models.ProductDTO) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishProductCreated(ctx, product); err != nil {
		s.log.Warn("failed to publish product created event", "id", product.ID, "error", err)
		return
	}
	s.log.Debug("published product created event", "id", product.ID)
}
