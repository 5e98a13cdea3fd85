package objstore

import (
	"context"
	"io"
	"time"
)

// DefaultDelimiter separates the levels of the key hierarchy.
const DefaultDelimiter = "/"

// Store is the subset of object storage the connector relies on.
type Store interface {
	// Probe checks that key exists and returns its current version id.
	Probe(ctx context.Context, key string) (version string, err error)

	// OpenRange opens a read of the bytes selected by rangeSpec, an HTTP
	// range such as "bytes=0-99". A non-empty version pins the read.
	OpenRange(ctx context.Context, key, version, rangeSpec string) (io.ReadCloser, error)

	// Upload writes body to key. It returns once the object is complete.
	Upload(ctx context.Context, key string, body io.Reader) error

	// ListPage returns a single page of keys.
	ListPage(ctx context.Context, q ListQuery) (*ListPage, error)
}

type ListQuery struct {
	Prefix            string
	Delimiter         string
	ContinuationToken string
	// MaxKeys of zero leaves the page size to the store.
	MaxKeys int64
}

type ListPage struct {
	Objects        []ObjectInfo
	CommonPrefixes []string
	Truncated      bool
	NextToken      string
}

type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Metadata is what callers learn about an object: its size in bytes and its
// modification time in Unix seconds.
type Metadata struct {
	Size        int64
	LastUpdated int64
}

func (o ObjectInfo) Metadata() Metadata {
	return Metadata{Size: o.Size, LastUpdated: o.LastModified.Unix()}
}
