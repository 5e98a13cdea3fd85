// Package listing drives a store's paginated key listing to completion.
package listing

import (
	"context"

	"github.com/serverlessresearch/s3connector/pkg/objstore"
)

type Entry struct {
	Name     string
	IsFolder bool
	Meta     objstore.Metadata
}

type Lister interface {
	ListPage(ctx context.Context, q objstore.ListQuery) (*objstore.ListPage, error)
}

// Paginator walks a listing one store page at a time. It is finite and cannot
// be restarted: once the last page has been returned, or a page has failed,
// HasMorePages reports false.
type Paginator struct {
	lister  Lister
	query   objstore.ListQuery
	done    bool
	queries int
}

func New(lister Lister, prefix, delimiter string) *Paginator {
	return &Paginator{
		lister: lister,
		query:  objstore.ListQuery{Prefix: prefix, Delimiter: delimiter},
	}
}

func (p *Paginator) HasMorePages() bool {
	return !p.done
}

// Queries is the number of listing calls issued so far.
func (p *Paginator) Queries() int {
	return p.queries
}

// NextPage fetches the next page and returns its objects in store order.
func (p *Paginator) NextPage(ctx context.Context) ([]Entry, error) {
	if p.done {
		return nil, nil
	}
	p.queries++
	page, err := p.lister.ListPage(ctx, p.query)
	if err != nil {
		p.done = true
		return nil, err
	}

	entries := make([]Entry, 0, len(page.Objects))
	for _, obj := range page.Objects {
		entries = append(entries, Entry{Name: obj.Key, Meta: obj.Metadata()})
	}

	if page.Truncated && page.NextToken != "" {
		p.query.ContinuationToken = page.NextToken
	} else {
		p.done = true
	}
	return entries, nil
}

// Each calls fn for every entry, finishing one page before requesting the
// next. The first error from the store or from fn stops the walk.
func (p *Paginator) Each(ctx context.Context, fn func(Entry) error) error {
	for p.HasMorePages() {
		entries, err := p.NextPage(ctx)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := fn(e); err != nil {
				p.done = true
				return err
			}
		}
	}
	return nil
}
