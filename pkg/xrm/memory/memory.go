// Package memory is an in-process implementation of xrm.Service. It keeps
// records in maps guarded by a RWMutex and is safe for concurrent use.
package memory

import (
	"context"
	"maps"
	"reflect"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ib-77/xrmfan/pkg/xrm"
)

type Options struct {
	// Latency is added to every call to mimic a network round trip.
	Latency time.Duration
	// PageSize is used when a query does not set its own (default 50).
	PageSize int
}

func (o Options) withDefaults() Options {
	res := o
	if res.PageSize <= 0 {
		res.PageSize = 50
	}
	if res.Latency < 0 {
		res.Latency = 0
	}
	return res
}

type Service struct {
	opts Options

	mu     sync.RWMutex
	tables map[string]map[uuid.UUID]*row
	seq    uint64

	calls atomic.Int64
}

type row struct {
	seq   uint64
	attrs map[string]any
}

var _ xrm.Service = (*Service)(nil)

func New(opts Options) *Service {
	return &Service{
		opts:   opts.withDefaults(),
		tables: make(map[string]map[uuid.UUID]*row),
	}
}

// Calls returns how many service calls were made.
func (s *Service) Calls() int64 {
	return s.calls.Load()
}

// Count returns the number of stored records of one entity.
func (s *Service) Count(logicalName string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables[logicalName])
}

// Get returns a copy of one stored record.
func (s *Service) Get(ref xrm.EntityReference) (xrm.Entity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.tables[ref.LogicalName][ref.ID]
	if !ok {
		return xrm.Entity{}, false
	}
	return toEntity(ref.LogicalName, ref.ID, r), true
}

func (s *Service) Create(ctx context.Context, e xrm.Entity) (uuid.UUID, error) {
	if err := s.enter(ctx); err != nil {
		return uuid.Nil, err
	}
	if e.LogicalName == "" {
		return uuid.Nil, xrm.NewFault(xrm.FaultInvalidArgument, "entity logical name is required")
	}

	id := e.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tables[e.LogicalName]
	if t == nil {
		t = make(map[uuid.UUID]*row)
		s.tables[e.LogicalName] = t
	}
	if _, exists := t[id]; exists {
		return uuid.Nil, xrm.NewFault(xrm.FaultDuplicate, "%s with id %s already exists", e.LogicalName, id)
	}

	attrs := maps.Clone(e.Attributes)
	if attrs == nil {
		attrs = map[string]any{}
	}
	if _, ok := attrs[xrm.AttrStateCode]; !ok {
		attrs[xrm.AttrStateCode] = xrm.StateActive
	}
	s.seq++
	t[id] = &row{seq: s.seq, attrs: attrs}
	return id, nil
}

func (s *Service) Update(ctx context.Context, e xrm.Entity) error {
	if err := s.enter(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.lookup(e.Reference())
	if err != nil {
		return err
	}
	maps.Copy(r.attrs, e.Attributes)
	return nil
}

func (s *Service) Delete(ctx context.Context, ref xrm.EntityReference) error {
	if err := s.enter(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.lookup(ref); err != nil {
		return err
	}
	delete(s.tables[ref.LogicalName], ref.ID)
	return nil
}

func (s *Service) Execute(ctx context.Context, req xrm.Request) (xrm.Response, error) {
	if err := s.enter(ctx); err != nil {
		return xrm.Response{}, err
	}
	if req == nil {
		return xrm.Response{}, xrm.NewFault(xrm.FaultInvalidArgument, "request is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch r := req.(type) {
	case xrm.WinOpportunityRequest:
		if r.Opportunity.LogicalName != "opportunity" {
			return xrm.Response{}, xrm.NewFault(xrm.FaultInvalidArgument,
				"WinOpportunity expects an opportunity, got %s", r.Opportunity.LogicalName)
		}
		rec, err := s.lookup(r.Opportunity)
		if err != nil {
			return xrm.Response{}, err
		}
		if st, _ := rec.attrs[xrm.AttrStateCode].(int); st != xrm.StateActive {
			return xrm.Response{}, xrm.NewFault(xrm.FaultInvalidState,
				"opportunity %s is already closed", r.Opportunity.ID)
		}
		rec.attrs[xrm.AttrStateCode] = xrm.StateWon
		rec.attrs[xrm.AttrStatusCode] = r.Status
		if r.Subject != "" {
			rec.attrs["closesubject"] = r.Subject
		}
		return xrm.Response{RequestName: r.RequestName(), Results: map[string]any{}}, nil

	case xrm.SetStateRequest:
		rec, err := s.lookup(r.Target)
		if err != nil {
			return xrm.Response{}, err
		}
		rec.attrs[xrm.AttrStateCode] = r.State
		rec.attrs[xrm.AttrStatusCode] = r.Status
		return xrm.Response{RequestName: r.RequestName(), Results: map[string]any{}}, nil
	}

	return xrm.Response{}, xrm.NewFault(xrm.FaultUnsupportedRequest, "request %s is not supported", req.RequestName())
}

// RetrieveMultiple returns one page of matching records in creation order.
// The paging cookie is the offset of the next page.
func (s *Service) RetrieveMultiple(ctx context.Context, q xrm.Query) (xrm.EntityCollection, error) {
	if err := s.enter(ctx); err != nil {
		return xrm.EntityCollection{}, err
	}

	offset := 0
	if q.PagingCookie != "" {
		n, err := strconv.Atoi(q.PagingCookie)
		if err != nil || n < 0 {
			return xrm.EntityCollection{}, xrm.NewFault(xrm.FaultInvalidArgument, "invalid paging cookie %q", q.PagingCookie)
		}
		offset = n
	}
	size := q.PageSize
	if size <= 0 {
		size = s.opts.PageSize
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type match struct {
		id uuid.UUID
		r  *row
	}
	var matches []match
	for id, r := range s.tables[q.EntityName] {
		if matchesAll(r.attrs, q.Conditions) {
			matches = append(matches, match{id: id, r: r})
		}
	}
	slices.SortFunc(matches, func(a, b match) int {
		switch {
		case a.r.seq < b.r.seq:
			return -1
		case a.r.seq > b.r.seq:
			return 1
		}
		return 0
	})

	res := xrm.EntityCollection{EntityName: q.EntityName, Entities: []xrm.Entity{}}
	if offset >= len(matches) {
		return res, nil
	}
	end := min(offset+size, len(matches))
	for _, m := range matches[offset:end] {
		res.Entities = append(res.Entities, toEntity(q.EntityName, m.id, m.r))
	}
	if end < len(matches) {
		res.MoreRecords = true
		res.PagingCookie = strconv.Itoa(end)
	}
	return res, nil
}

// enter counts the call and waits out the configured latency.
func (s *Service) enter(ctx context.Context) error {
	s.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.opts.Latency == 0 {
		return nil
	}

	t := time.NewTimer(s.opts.Latency)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// lookup must be called with s.mu held.
func (s *Service) lookup(ref xrm.EntityReference) (*row, error) {
	if ref.ID == uuid.Nil {
		return nil, xrm.NewFault(xrm.FaultInvalidArgument, "%s id is required", ref.LogicalName)
	}
	r, ok := s.tables[ref.LogicalName][ref.ID]
	if !ok {
		return nil, xrm.NewFault(xrm.FaultNotFound, "%s with id %s does not exist", ref.LogicalName, ref.ID)
	}
	return r, nil
}

func matchesAll(attrs map[string]any, conds []xrm.Condition) bool {
	for _, c := range conds {
		if v, ok := attrs[c.Attribute]; !ok || !reflect.DeepEqual(v, c.Value) {
			return false
		}
	}
	return true
}

func toEntity(name string, id uuid.UUID, r *row) xrm.Entity {
	return xrm.Entity{LogicalName: name, ID: id, Attributes: maps.Clone(r.attrs)}
}
