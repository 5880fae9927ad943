package logger_test

import (
	"bytes"
	"testing"

	"catalog/internal/logger"

	"github.com/stretchr/testify/assert"
)

func TestMaskBucket(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "bucket:****"},
		{"   ", "bucket:****"},
		{"abcd", "****"},
		{"catalog-images", "ca****"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, logger.MaskBucket(tt.in), "input %q", tt.in)
	}
}

func TestMaskKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "key:****"},
		{"products/original/1b4e_mug.jpg", "produc/****.jpg"},
		{"img/a.png", "img/****.png"},
		{"noslashkey", "noslas/****"},
		{"/leading.webp", "/leadi/****.webp"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, logger.MaskKey(tt.in), "input %q", tt.in)
	}
}

func TestMaskFilename(t *testing.T) {
	assert.Equal(t, "name:****", logger.MaskFilename(""))
	assert.Equal(t, "****", logger.MaskFilename("a.pn"))
	assert.Equal(t, "re****.png", logger.MaskFilename("report_2024_.png"))
	assert.Equal(t, "RE****", logger.MaskFilename("README"))
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "debug", "json")

	log.WithComponent("products").Debug("hello", "count", 2)

	assert.Contains(t, buf.String(), `"component":"products"`)
	assert.Contains(t, buf.String(), `"count":2`)
}

func TestNewWithWriter_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "warn", "json")

	log.Info("dropped")
	log.Warn("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}
