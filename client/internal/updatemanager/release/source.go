package release

import (
	"context"
	"time"
)

//go:generate mockgen -source=source.go -destination=source_mock.go -package=release

// Release describes a release newer than the running version
type Release struct {
	Version string
	Notes   string
	PubDate time.Time
	// Size of the artifact in bytes, 0 when unknown
	Size      int64
	URL       string
	Signature string
	// CurrentVersion is the version the check compared against
	CurrentVersion string
}

// ProgressFunc receives the number of bytes downloaded so far and the total (0 when unknown)
type ProgressFunc func(downloaded, total int64)

// Source answers whether a newer release exists and fetches its artifact
type Source interface {
	// Check returns the newest release when it is newer than currentVersion, nil otherwise
	Check(ctx context.Context, currentVersion string) (*Release, error)
	// Download streams the artifact of rel into memory
	Download(ctx context.Context, rel *Release, progress ProgressFunc) ([]byte, error)
}
