package bufferpool

import (
	"log/slog"

	"github.com/tuannm99/novabuf/internal"
)

// NewFromConfig builds a BufMgr from the bufferpool section of cfg.
func NewFromConfig(cfg *internal.NovaBufConfig, logger *slog.Logger) (*BufMgr, error) {
	policy, err := ParsePolicy(cfg.BufferPool.Policy)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return New(cfg.BufferPool.Size, WithPolicy(policy), WithLogger(logger))
}
