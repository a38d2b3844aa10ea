package arc

import (
	"fmt"
	"strings"
)

// DefaultMaxPayloadSize is the upload cap applied when none is configured.
const DefaultMaxPayloadSize int64 = 100 * 1024 * 1024

// DefaultAuthor labels uploads that arrive without an author.
const DefaultAuthor = "guest"

// Extension returns the extension of filename including the leading dot.
// Names without a dot, dotfiles such as ".profile", and ".." have no extension.
func Extension(filename string) string {
	base := filename
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	dot := strings.LastIndex(base, ".")
	if dot <= 0 || base == ".." {
		return ""
	}
	return base[dot:]
}

// SizeKB converts a byte length into kilobytes.
func SizeKB(n int) float64 {
	return float64(n) / 1024
}

// checkPayload validates an upload before anything is written.
func checkPayload(filename string, data []byte, max int64) error {
	if data == nil {
		return fmt.Errorf("%w: no file payload", ErrBadInput)
	}
	if filename == "" {
		return fmt.Errorf("%w: empty filename", ErrBadInput)
	}
	if int64(len(data)) > max {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrSizeExceeded, len(data), max)
	}
	return nil
}
