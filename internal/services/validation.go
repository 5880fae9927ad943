package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"catalog/internal/apperrors"
	"catalog/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/shopspring/decimal"
)

var (
	allowedImageTypes = map[string]bool{
		"image/jpeg": true,
		"image/png":  true,
		"image/webp": true,
	}
	maxPrice = decimal.New(1, 8) // prices have at most 8 integer digits
)

// ValidPrice reports whether d is > 0, has at most 8 integer digits and at
// most 2 fraction digits once trailing zeros are ignored.
func ValidPrice(d decimal.Decimal) bool {
	return d.IsPositive() && d.LessThan(maxPrice) && d.Equal(d.Truncate(2))
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Decimals are validated through their string form.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("price", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && ValidPrice(d)
	}); err != nil {
		panic(err)
	}
	return v
}

func (s *ProductService) validateImage(image *ImageUpload) error {
	if image == nil || image.Content == nil || image.Size <= 0 {
		s.log.Warn("image validation failed: empty or missing")
		return apperrors.InvalidInput("missing image")
	}
	if image.Size > s.maxImageSize {
		s.log.Warn("image validation failed: too large", "size", image.Size)
		return apperrors.InvalidInput("image too large")
	}
	if !allowedImageTypes[image.ContentType] {
		s.log.Warn("image validation failed: unsupported content type", "content_type", image.ContentType)
		return apperrors.InvalidInput("unsupported type")
	}
	s.log.Debug("image validated", "size", image.Size, "content_type", image.ContentType)
	return nil
}

func (s *ProductService) validateFields(dto models.ProductDTO) error {
	err := s.validate.Struct(dto)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperrors.Workflow("validate product", err)
	}

	fields := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		fields[e.Field()] = fieldMessage(e)
	}
	s.log.Warn("product validation failed", "fields", fields)
	return apperrors.FieldViolation(fields)
}

func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "notblank":
		return fmt.Sprintf("%s must not be blank", e.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", e.Field(), e.Param())
	case "price":
		return fmt.Sprintf("%s must be > 0 with at most 8 integer digits and 2 decimal places", e.Field())
	default:
		return fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
}
