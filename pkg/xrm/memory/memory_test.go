package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ib-77/xrmfan/pkg/xrm"
)

func TestService_CreateDefaults(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New(Options{})

	id, err := s.Create(ctx, xrm.NewEntity("account").Set("name", "A"))
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)

	e, ok := s.Get(xrm.EntityReference{LogicalName: "account", ID: id})
	require.True(t, ok)
	assert.Equal(t, xrm.StateActive, e.Attributes[xrm.AttrStateCode])

	// the stored copy is detached from the returned entity
	e.Attributes["name"] = "changed"
	again, _ := s.Get(e.Reference())
	assert.Equal(t, "A", again.Attributes["name"])

	_, err = s.Create(ctx, xrm.Entity{})
	assert.True(t, xrm.IsFault(err, xrm.FaultInvalidArgument))

	fixed := uuid.New()
	_, err = s.Create(ctx, xrm.Entity{LogicalName: "account", ID: fixed})
	require.NoError(t, err)
	_, err = s.Create(ctx, xrm.Entity{LogicalName: "account", ID: fixed})
	assert.True(t, xrm.IsFault(err, xrm.FaultDuplicate))
	assert.Equal(t, 2, s.Count("account"))
}

func TestService_UpdateDeleteNeedExistingRecord(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New(Options{})

	err := s.Update(ctx, xrm.Entity{LogicalName: "account"})
	assert.True(t, xrm.IsFault(err, xrm.FaultInvalidArgument))

	err = s.Delete(ctx, xrm.EntityReference{LogicalName: "account", ID: uuid.New()})
	assert.True(t, xrm.IsFault(err, xrm.FaultNotFound))
}

func TestService_WinOpportunityChecks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New(Options{})

	accID, err := s.Create(ctx, xrm.NewEntity("account"))
	require.NoError(t, err)

	_, err = s.Execute(ctx, xrm.WinOpportunityRequest{Opportunity: xrm.EntityReference{LogicalName: "account", ID: accID}})
	assert.True(t, xrm.IsFault(err, xrm.FaultInvalidArgument))

	_, err = s.Execute(ctx, nil)
	assert.True(t, xrm.IsFault(err, xrm.FaultInvalidArgument))

	oppID, err := s.Create(ctx, xrm.NewEntity("opportunity"))
	require.NoError(t, err)
	ref := xrm.EntityReference{LogicalName: "opportunity", ID: oppID}

	resp, err := s.Execute(ctx, xrm.WinOpportunityRequest{Opportunity: ref, Subject: "closed", Status: 3})
	require.NoError(t, err)
	assert.Equal(t, "WinOpportunity", resp.RequestName)

	e, _ := s.Get(ref)
	assert.Equal(t, "closed", e.Attributes["closesubject"])
	assert.Equal(t, 3, e.Attributes[xrm.AttrStatusCode])
}

func TestService_RetrieveMultiplePages(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New(Options{PageSize: 2})

	for i := range 5 {
		_, err := s.Create(ctx, xrm.NewEntity("contact").Set("n", i).Set("group", i%2))
		require.NoError(t, err)
	}

	var seen []any
	q := xrm.NewQuery("contact")
	for {
		page, err := s.RetrieveMultiple(ctx, q)
		require.NoError(t, err)
		for _, e := range page.Entities {
			seen = append(seen, e.Attributes["n"])
		}
		if !page.MoreRecords {
			break
		}
		q.PagingCookie = page.PagingCookie
	}
	assert.Equal(t, []any{0, 1, 2, 3, 4}, seen)

	filtered, err := s.RetrieveMultiple(ctx, xrm.NewQuery("contact", xrm.Condition{Attribute: "group", Value: 1}))
	require.NoError(t, err)
	assert.Len(t, filtered.Entities, 2)

	none, err := s.RetrieveMultiple(ctx, xrm.NewQuery("lead"))
	require.NoError(t, err)
	assert.NotNil(t, none.Entities)
	assert.Empty(t, none.Entities)

	q.PagingCookie = "bogus"
	_, err = s.RetrieveMultiple(ctx, q)
	assert.True(t, xrm.IsFault(err, xrm.FaultInvalidArgument))
}

func TestService_LatencyHonoursContext(t *testing.T) {
	t.Parallel()
	s := New(Options{Latency: time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := s.Create(ctx, xrm.NewEntity("account"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, 0, s.Count("account"))
	assert.Equal(t, int64(1), s.Calls())
}

func TestService_ConcurrentUse(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New(Options{})

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.Create(ctx, xrm.NewEntity("account").Set("name", fmt.Sprint(i)))
			if err != nil {
				t.Errorf("create %d: %v", i, err)
				return
			}
			ref := xrm.EntityReference{LogicalName: "account", ID: id}
			if err := s.Update(ctx, xrm.Entity{LogicalName: "account", ID: id, Attributes: map[string]any{"x": i}}); err != nil {
				t.Errorf("update %d: %v", i, err)
			}
			_, _ = s.RetrieveMultiple(ctx, xrm.NewQuery("account"))
			if err := s.Delete(ctx, ref); err != nil {
				t.Errorf("delete %d: %v", i, err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, s.Count("account"))
	assert.Equal(t, int64(200), s.Calls())
}
