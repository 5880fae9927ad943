package services

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const (
	fallbackFilename = "file"
	originalPrefix   = "products/original/"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// SanitizeFilename replaces every character outside [A-Za-z0-9._-] with '_'.
// An empty name becomes "file".
func SanitizeFilename(name string) string {
	if name == "" {
		return fallbackFilename
	}
	return unsafeFilenameChars.ReplaceAllString(name, "_")
}

// ObjectKey returns products/original/<id>_<filename>.
func ObjectKey(id uuid.UUID, safeFilename string) string {
	return fmt.Sprintf("%s%s_%s", originalPrefix, id.String(), safeFilename)
}

// PublicURL joins the base URL and the percent-encoded key. The whole key is
// encoded as one segment, so '/' becomes %2F and ' ' becomes %20.
func PublicURL(publicBaseURL, key string) string {
	encoded := strings.ReplaceAll(url.QueryEscape(key), "+", "%20")
	return strings.TrimRight(publicBaseURL, "/") + "/" + encoded
}
