package objstore

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/serverlessresearch/s3connector/pkg/byterange"
	"github.com/serverlessresearch/s3connector/pkg/connerr"
	"github.com/sirupsen/logrus"
)

const (
	defaultDirPageSize = 1000
	tempPrefix         = ".upload-"
)

// DirStore keeps objects as files below a root directory. Keys map to paths
// relative to the root with "/" as the separator.
type DirStore struct {
	root   string
	logger logrus.FieldLogger
}

func NewDirStore(root string, logger logrus.FieldLogger) (*DirStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, errorHandler("open", err)
	}
	logger.WithField("root", root).Info("using directory store")
	return &DirStore{root: root, logger: logger}, nil
}

func errorHandler(op string, err error) error {
	if os.IsNotExist(err) {
		return connerr.Wrap(connerr.NotFound, op, err)
	}
	return connerr.Wrap(connerr.StoreUnavailable, op, err)
}

func (d *DirStore) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if key == "" || clean == "/" || strings.HasSuffix(key, "/") {
		return "", connerr.Errorf(connerr.NotFound, "key", "invalid key %q", key)
	}
	return filepath.Join(d.root, filepath.FromSlash(clean)), nil
}

func version(info os.FileInfo) string {
	return fmt.Sprintf("%x-%x", info.ModTime().UnixNano(), info.Size())
}

func (d *DirStore) Probe(ctx context.Context, key string) (string, error) {
	p, err := d.path(key)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(p)
	if err != nil {
		return "", errorHandler("probe", err)
	}
	if info.IsDir() {
		return "", connerr.Errorf(connerr.NotFound, "probe", "%q is not an object", key)
	}
	return version(info), nil
}

type rangeReader struct {
	io.Reader
	io.Closer
}

func (d *DirStore) OpenRange(ctx context.Context, key, ver, rangeSpec string) (io.ReadCloser, error) {
	p, err := d.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, errorHandler("read", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errorHandler("read", err)
	}
	if ver != "" && ver != version(info) {
		f.Close()
		return nil, connerr.Errorf(connerr.NotFound, "read", "version %s of %q is no longer available", ver, key)
	}

	start, end, err := byterange.Parse(rangeSpec, info.Size())
	if err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.Seek(start, io.SeekStart); err != nil {
		f.Close()
		return nil, errorHandler("read", err)
	}
	return rangeReader{Reader: &ctxReader{ctx: ctx, r: io.LimitReader(f, end-start)}, Closer: f}, nil
}

func (d *DirStore) Upload(ctx context.Context, key string, body io.Reader) error {
	p, err := d.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return errorHandler("upload", err)
	}
	tmp, err := ioutil.TempFile(filepath.Dir(p), tempPrefix)
	if err != nil {
		return errorHandler("upload", err)
	}
	defer os.Remove(tmp.Name())

	src := &ctxReader{ctx: ctx, r: body}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		if src.err == nil {
			return errorHandler("upload", err)
		}
		// the body failed, not the disk
		kind := connerr.KindOf(src.err)
		if kind == connerr.Unknown {
			kind = connerr.StreamAborted
		}
		return connerr.Wrap(kind, "upload", src.err)
	}
	if err := tmp.Close(); err != nil {
		return errorHandler("upload", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return errorHandler("upload", err)
	}
	d.logger.WithField("key", key).Debug("stored object")
	return nil
}

type listItem struct {
	key      string
	isPrefix bool
	info     os.FileInfo
}

func (d *DirStore) ListPage(ctx context.Context, q ListQuery) (*ListPage, error) {
	var items []listItem
	seenPrefixes := map[string]bool{}

	err := filepath.Walk(d.root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if info.IsDir() || strings.HasPrefix(info.Name(), tempPrefix) {
			return nil
		}
		rel, err := filepath.Rel(d.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, q.Prefix) {
			return nil
		}
		rest := key[len(q.Prefix):]
		if q.Delimiter != "" {
			if i := strings.Index(rest, q.Delimiter); i >= 0 {
				prefix := q.Prefix + rest[:i+len(q.Delimiter)]
				if !seenPrefixes[prefix] {
					seenPrefixes[prefix] = true
					items = append(items, listItem{key: prefix, isPrefix: true})
				}
				return nil
			}
		}
		items = append(items, listItem{key: key, info: info})
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, connerr.Wrap(connerr.KindOf(ctx.Err()), "list", err)
		}
		return nil, errorHandler("list", err)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].key < items[j].key })
	if q.ContinuationToken != "" {
		i := sort.Search(len(items), func(i int) bool { return items[i].key > q.ContinuationToken })
		items = items[i:]
	}

	pageSize := int(q.MaxKeys)
	if pageSize <= 0 {
		pageSize = defaultDirPageSize
	}
	page := &ListPage{}
	if len(items) > pageSize {
		items = items[:pageSize]
		page.Truncated = true
		page.NextToken = items[len(items)-1].key
	}
	for _, it := range items {
		if it.isPrefix {
			page.CommonPrefixes = append(page.CommonPrefixes, it.key)
			continue
		}
		page.Objects = append(page.Objects, ObjectInfo{
			Key:          it.key,
			Size:         it.info.Size(),
			LastModified: it.info.ModTime(),
		})
	}
	return page, nil
}

// ctxReader stops a copy once its context is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
	err error
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		c.err = err
		return 0, err
	}
	n, err := c.r.Read(p)
	if err != nil && err != io.EOF {
		c.err = err
	}
	return n, err
}
