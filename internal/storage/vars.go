package storage

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"
)

const (
	OneB  = 1 << 0  // 1
	OneKB = 1 << 10 // 1,024
	OneMB = 1 << 20 // 1,048,576
	OneGB = 1 << 30 // 1,073,741,824

	SegmentSize       = 1 << 30                // 1,073,741,824 (1 GiB)
	PageSize          = 1 << 13                // 8,192 (8 KiB)
	MaxPagePerSegment = SegmentSize / PageSize // 131,072 pages/segment
	HeaderSize        = 12                     // flags(2) + pageID(4) + nextFree(4) + reserved(2)
)

const (
	FileMode0644 = 0o644
	FileMode0664 = 0o664
	FileMode0755 = 0o755
)

var (
	ErrPageNotAllocated = errors.New("storage: page is not allocated")
	ErrInvalidPage      = errors.New("storage: invalid page")
	ErrBadHeader        = errors.New("storage: bad file header")
	ErrFileExists       = errors.New("storage: file already exists")
	ErrFileClosed       = errors.New("storage: file is closed")
	ErrWrongSize        = errors.New("storage: buffer size != PageSize")
)

// Backend selects the filesystem a PagedFile lives on.
type Backend int

const (
	OsBackend  Backend = iota + 1 // local disk
	MemBackend                    // in-memory, for tests and the shell
)

func (b Backend) String() string {
	switch b {
	case OsBackend:
		return "os"
	case MemBackend:
		return "mem"
	default:
		return "unknown"
	}
}

func GetBackend(s string) (Backend, error) {
	switch s {
	case "os":
		return OsBackend, nil
	case "mem":
		return MemBackend, nil
	default:
		return 0, fmt.Errorf("invalid storage backend: %s", s)
	}
}

// NewFs returns the afero filesystem for a backend.
func NewFs(b Backend) (afero.Fs, error) {
	switch b {
	case OsBackend:
		return afero.NewOsFs(), nil
	case MemBackend:
		return afero.NewMemMapFs(), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %d", b)
	}
}
