package invoice

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Archive keeps a copy of every received document before parsing, so a
// failed extraction can be diagnosed from the original payload.
type Archive interface {
	// Save stores the document and returns the path/filename used.
	Save(filename string, data []byte) (string, error)
}

// LocalArchive implements Archive on the local filesystem.
type LocalArchive struct {
	basePath string
}

// NewLocalArchive creates the archive directory if needed.
func NewLocalArchive(basePath string) (*LocalArchive, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}
	return &LocalArchive{basePath: basePath}, nil
}

// Save writes the document under a sanitized version of its original name.
func (l *LocalArchive) Save(filename string, data []byte) (string, error) {
	name := sanitizeFilename(filename)
	path := filepath.Join(l.basePath, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return name, nil
}

var (
	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_.]`)
	multiSpace  = regexp.MustCompile(`\s+`)
)

// sanitizeFilename strips special characters from chat-platform filenames
// and truncates overly long names.
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	base = unsafeChars.ReplaceAllString(base, "")
	base = multiSpace.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	const maxLen = 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}
	if base == "" {
		base = "document"
	}
	return base + ext
}
