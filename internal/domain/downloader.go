package domain

import "context"

// Extractor is the external extraction engine
type Extractor interface {
	// Extract downloads url according to cfg and reports what was written
	Extract(ctx context.Context, url string, cfg *DownloadConfig) (*RawInfo, error)

	// Name identifies the backend
	Name() string
}
