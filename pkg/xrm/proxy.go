package xrm

import (
	"context"
	"errors"

	"github.com/ib-77/xrmfan/pkg/batch"
)

var ErrNilService = errors.New("xrm: nil service")

// ParallelProxy sends lists of operations to a Service in parallel. Every
// method attempts all items and returns an *rop.AggregateError when some of
// them failed.
type ParallelProxy struct {
	svc Service
	// MaxDegreeOfParallelism bounds in-flight calls per batch; 0 uses the
	// concurrency budget.
	MaxDegreeOfParallelism int
}

func NewParallelProxy(svc Service) (*ParallelProxy, error) {
	if svc == nil {
		return nil, ErrNilService
	}
	return &ParallelProxy{svc: svc}, nil
}

// WithParallelism returns a copy of p limited to n calls in flight.
func (p *ParallelProxy) WithParallelism(n int) *ParallelProxy {
	c := *p
	c.MaxDegreeOfParallelism = n
	return &c
}

// Create creates every entity and returns them with the IDs assigned by the
// service, one per input position. A position whose create failed holds the
// input entity unchanged.
func (p *ParallelProxy) Create(ctx context.Context, entities []Entity) ([]Entity, error) {
	results, err := batch.Execute[Entity, Entity](ctx, "create", entities, func(ctx context.Context, e Entity) (Entity, error) {
		id, err := p.svc.Create(ctx, e)
		if err != nil {
			return Entity{}, err
		}
		created := e.Clone()
		created.ID = id
		return created, nil
	}, p.MaxDegreeOfParallelism)
	if results == nil {
		return nil, err
	}
	return batch.ValuesOr(results, entities), err
}

func (p *ParallelProxy) Update(ctx context.Context, entities []Entity) error {
	return batch.Apply[Entity](ctx, "update", entities, p.svc.Update, p.MaxDegreeOfParallelism)
}

func (p *ParallelProxy) Delete(ctx context.Context, refs []EntityReference) error {
	return batch.Apply[EntityReference](ctx, "delete", refs, p.svc.Delete, p.MaxDegreeOfParallelism)
}

// Execute runs requests of any kind and returns one response per request
// position. A failed position holds the zero Response; the aggregated error
// names it.
func (p *ParallelProxy) Execute(ctx context.Context, requests []Request) ([]Response, error) {
	results, err := batch.Execute[Request, Response](ctx, "execute", requests, p.svc.Execute, p.MaxDegreeOfParallelism)
	if results == nil {
		return nil, err
	}
	return batch.ValuesOr(results, make([]Response, len(results))), err
}

type QueryOptions struct {
	// AllPages follows paging cookies until the service reports no more records.
	AllPages bool
	// AllowEmpty treats a query matching nothing as a success.
	AllowEmpty bool
}

// RetrieveMultiple runs every query and returns one collection per query
// position. A failed position holds the zero EntityCollection, which Find never
// returns for a named entity.
func (p *ParallelProxy) RetrieveMultiple(ctx context.Context, queries []Query, opts QueryOptions) ([]EntityCollection, error) {
	policy := batch.RejectEmpty
	if opts.AllowEmpty {
		policy = batch.AllowEmpty
	}

	results, err := batch.Query[Query, EntityCollection](ctx, "retrieve-multiple", queries,
		func(ctx context.Context, q Query) (EntityCollection, error) {
			return p.retrieve(ctx, q, opts.AllPages)
		},
		func(c EntityCollection) bool { return len(c.Entities) == 0 },
		policy, p.MaxDegreeOfParallelism)
	if results == nil {
		return nil, err
	}
	return batch.ValuesOr(results, make([]EntityCollection, len(results))), err
}

func (p *ParallelProxy) retrieve(ctx context.Context, q Query, allPages bool) (EntityCollection, error) {
	if q.PageNumber == 0 {
		q.PageNumber = 1
	}

	page, err := p.svc.RetrieveMultiple(ctx, q)
	if err != nil {
		return EntityCollection{}, err
	}
	all := page
	all.Entities = append([]Entity(nil), page.Entities...)

	for allPages && page.MoreRecords {
		if err := ctx.Err(); err != nil {
			return EntityCollection{}, err
		}
		q.PageNumber++
		q.PagingCookie = page.PagingCookie

		page, err = p.svc.RetrieveMultiple(ctx, q)
		if err != nil {
			return EntityCollection{}, err
		}
		all.Entities = append(all.Entities, page.Entities...)
		all.MoreRecords = page.MoreRecords
		all.PagingCookie = page.PagingCookie
	}
	return all, nil
}

// Find returns the first collection for entityName.
func Find(collections []EntityCollection, entityName string) (EntityCollection, bool) {
	for _, c := range collections {
		if c.EntityName == entityName {
			return c, true
		}
	}
	return EntityCollection{}, false
}
