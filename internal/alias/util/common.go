package util

import (
	"io"
	"log/slog"
)

// CloseFileFunc closes c and logs (rather than returns) a failure, for use in defers.
func CloseFileFunc(c io.Closer) {
	if err := c.Close(); err != nil {
		slog.Warn("close failed", "err", err)
	}
}
