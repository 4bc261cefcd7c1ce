// Package objectkey generates storage keys for media objects. Keys are
// namespaced by creator id and carry a uniqueness token so concurrent
// uploads of identically-named files never collide.
package objectkey

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Media kinds recognized by the generator. They become the top-level key
// prefix so buckets stay browsable by asset type.
const (
	KindVideo     = "videos"
	KindThumbnail = "thumbnails"
)

// Generator builds creator-namespaced object keys.
type Generator struct{}

// New creates a new key generator.
func New() *Generator {
	return &Generator{}
}

// GenerateKey returns a key of the form
// <kind>/<creatorID>/<token>-<sanitized filename>.
func (g *Generator) GenerateKey(kind string, creatorID uuid.UUID, fileName string) string {
	token := uuid.New().String()
	name := sanitizeFilename(fileName)
	if name == "" {
		return fmt.Sprintf("%s/%s/%s", kind, creatorID, token)
	}
	return fmt.Sprintf("%s/%s/%s-%s", kind, creatorID, token, name)
}

// sanitizeFilename strips path separators and characters that are awkward
// in URLs or bucket listings.
func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if idx := strings.LastIndexAny(name, "/\\"); idx >= 0 {
		name = name[idx+1:]
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "._")
}
