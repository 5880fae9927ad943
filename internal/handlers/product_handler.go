package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"catalog/internal/apperrors"
	"catalog/internal/logger"
	"catalog/internal/models"
	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
)

// maxProductPartSize bounds the JSON product part; its fields total well under this.
const maxProductPartSize = 64 << 10

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service *services.ProductService
	log     *logger.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, log *logger.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		log:     log.WithComponent("http"),
	}
}

// RegisterRoutes registers the product routes. uploadGuards run before the
// upload handler only; the listing stays public.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, uploadGuards ...fiber.Handler) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Post("/upload", append(uploadGuards, h.HandleCreateProductWithImage)...)
}

// HandleGetProducts retrieves all products.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts(c.UserContext())
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(products)
}

// HandleCreateProductWithImage creates a product from a multipart request with
// a JSON "product" part and an "image" file part.
func (h *ProductHandler) HandleCreateProductWithImage(c *fiber.Ctx) error {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
			"message": "Request must be multipart/form-data",
		})
	}

	var productRequest models.ProductDTO
	raw, err := productPart(c)
	if err != nil {
		h.log.Warn("error reading product part", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid product part",
			"error":   apperrors.InvalidInput("unreadable product part").Error(),
		})
	}
	if len(raw) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   apperrors.InvalidInput("missing product part").Error(),
		})
	}
	if err := json.Unmarshal(raw, &productRequest); err != nil {
		h.log.Warn("error parsing product part", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid product part",
			"error":   apperrors.InvalidInput("malformed product JSON").Error(),
		})
	}

	var image *services.ImageUpload
	fileHeader, err := c.FormFile("image")
	if err == nil {
		file, err := fileHeader.Open()
		if err != nil {
			return h.respondError(c, apperrors.Workflow("open uploaded image", err))
		}
		defer file.Close()

		image = &services.ImageUpload{
			Filename:    fileHeader.Filename,
			ContentType: fileHeader.Header.Get(fiber.HeaderContentType),
			Size:        fileHeader.Size,
			Content:     file,
		}
	}

	created, err := h.service.CreateProduct(c.UserContext(), productRequest, image)
	if err != nil {
		return h.respondError(c, err)
	}

	c.Location(fmt.Sprintf("/api/v1/products/%d", created.ID))
	return c.Status(fiber.StatusCreated).JSON(created)
}

// productPart returns the "product" part, sent either as a plain form value or
// as a JSON file part (filename="blob", Content-Type: application/json).
func productPart(c *fiber.Ctx) ([]byte, error) {
	if v := c.FormValue("product"); v != "" {
		return []byte(v), nil
	}
	fileHeader, err := c.FormFile("product")
	if err != nil {
		return nil, nil
	}
	f, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("open product part: %w", err)
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, maxProductPartSize))
	if err != nil {
		return nil, fmt.Errorf("read product part: %w", err)
	}
	return raw, nil
}

// respondError maps the error taxonomy to HTTP statuses. Server-side failures
// get a generic body so bucket names, keys and URLs never reach the client.
func (h *ProductHandler) respondError(c *fiber.Ctx, err error) error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) && appErr.Kind == apperrors.KindInvalidInput {
		if len(appErr.Fields) > 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Validation failed",
				"errors":  appErr.Fields,
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   appErr.Error(),
		})
	}

	kind := apperrors.KindOf(err)
	if kind == "" {
		kind = apperrors.KindWorkflow
	}
	h.log.Error("request failed", "method", c.Method(), "path", c.Path(), "kind", string(kind))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "Could not process request",
		"error":   string(kind),
	})
}
