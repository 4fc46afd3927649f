package walkthrough

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ib-77/xrmfan/pkg/rop/core"
	"github.com/ib-77/xrmfan/pkg/scenario"
	"github.com/ib-77/xrmfan/pkg/xrm"
	"github.com/ib-77/xrmfan/pkg/xrm/memory"
)

var defaultOptions = Options{
	PageSize: 10,
	Query:    xrm.QueryOptions{AllPages: true, AllowEmpty: true},
}

func newProxy(t *testing.T, svc xrm.Service) *xrm.ParallelProxy {
	t.Helper()
	p, err := xrm.NewParallelProxy(svc)
	require.NoError(t, err)
	return p
}

func TestWalkthrough_LeavesNothingBehind(t *testing.T) {
	t.Parallel()

	svc := memory.New(memory.Options{})
	data := NewRequests(5)
	rec := &scenario.Recorder{}

	sc := New(newProxy(t, svc).WithParallelism(4), data, zap.NewNop(), defaultOptions)
	require.NoError(t, sc.Run(context.Background(), scenario.NewRunner(rec)))

	assert.Equal(t, "XrmCoreOperationsScenario", sc.Name)
	completed := rec.Completed()
	require.Len(t, completed, 6)
	assert.Equal(t, "Step 1: create account data", completed[0].Label)
	assert.Equal(t, "Step 6: delete all data", completed[5].Label)

	assert.Equal(t, map[string]int{Account: 5, Contact: 5, Opportunity: 5}, data.Retrieved)
	for _, name := range []string{Account, Contact, Opportunity} {
		assert.Equal(t, 0, svc.Count(name), name)
	}
	// 5 accounts, 10 related, 10 updates, 10 requests, 3 queries, 15 deletes
	assert.Equal(t, int64(53), svc.Calls())
}

func TestWalkthrough_StepFourUpdatesState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := memory.New(memory.Options{})
	data := NewRequests(2)
	w := &walkthrough{proxy: newProxy(t, svc), data: data, logger: zap.NewNop(), opts: defaultOptions}

	require.NoError(t, w.createAccounts(ctx))
	require.NoError(t, w.createRelatedData(ctx))
	require.NoError(t, w.updateAccountsAndOpportunities(ctx))
	require.NoError(t, w.executeWinAndDeactivate(ctx))

	require.Len(t, data.Opportunities, 2)
	opp, ok := svc.Get(data.Opportunities[0].Reference())
	require.True(t, ok)
	assert.Equal(t, xrm.StateWon, opp.Attributes[xrm.AttrStateCode])
	assert.Equal(t, StatusWon, opp.Attributes[xrm.AttrStatusCode])
	assert.Equal(t, 100, opp.Attributes["closeprobability"])

	contact, ok := svc.Get(data.Contacts[1].Reference())
	require.True(t, ok)
	assert.Equal(t, xrm.StateInactive, contact.Attributes[xrm.AttrStateCode])
	assert.Equal(t, data.Accounts[1].Reference(), contact.Attributes["parentcustomerid"])

	account, _ := svc.Get(data.Accounts[0].Reference())
	assert.Equal(t, "updated by walkthrough", account.Attributes["description"])
}

// flakyService rejects the create of one account by name.
type flakyService struct {
	*memory.Service
	reject string
}

func (f *flakyService) Create(ctx context.Context, e xrm.Entity) (uuid.UUID, error) {
	if name, _ := e.Attributes["name"].(string); name == f.reject {
		return uuid.Nil, xrm.NewFault(xrm.FaultDuplicate, "an account named %s already exists", name)
	}
	return f.Service.Create(ctx, e)
}

func TestWalkthrough_ItemFailuresAreReportedAndSkipped(t *testing.T) {
	t.Parallel()

	mem := memory.New(memory.Options{})
	svc := &flakyService{Service: mem, reject: "Walkthrough Account 2"}
	data := NewRequests(3)

	obs, logs := observer.New(zap.ErrorLevel)
	sc := New(newProxy(t, svc), data, zap.New(obs), defaultOptions)

	rec := &scenario.Recorder{}
	require.NoError(t, sc.Run(context.Background(), scenario.NewRunner(rec)))
	assert.Len(t, rec.Completed(), 6)

	entries := logs.FilterMessage("ERROR: an account named Walkthrough Account 2 already exists").All()
	require.Len(t, entries, 1)

	assert.Equal(t, uuid.Nil, data.Accounts[1].ID)
	assert.Len(t, data.Contacts, 2)
	assert.Len(t, data.Opportunities, 2)
	assert.Equal(t, 2, data.Retrieved[Account])

	for _, name := range []string{Account, Contact, Opportunity} {
		assert.Equal(t, 0, mem.Count(name), name)
	}
}

func TestWalkthrough_NonBatchErrorAbortsRun(t *testing.T) {
	t.Parallel()

	svc := memory.New(memory.Options{})
	sc := New(newProxy(t, svc).WithParallelism(-1), NewRequests(2), zap.NewNop(), defaultOptions)

	rec := &scenario.Recorder{}
	err := sc.Run(context.Background(), scenario.NewRunner(rec))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInvalidConcurrency))

	se, ok := scenario.AsStepError(err)
	require.True(t, ok)
	assert.Equal(t, 0, se.Index)
	assert.Empty(t, rec.Completed())
	assert.Equal(t, int64(0), svc.Calls())
}

func TestWalkthrough_SequentialAndSerialDeletes(t *testing.T) {
	t.Parallel()

	svc := memory.New(memory.Options{})
	data := NewRequests(3)
	opts := defaultOptions
	opts.SerialDeletes = true
	opts.PageSize = 2

	sc := NewSequential(newProxy(t, svc), data, nil, opts)
	assert.Equal(t, "SequentialOperationsScenario", sc.Name)
	require.NoError(t, sc.Run(context.Background(), scenario.NewRunner(&scenario.Recorder{})))

	assert.Equal(t, 3, data.Retrieved[Opportunity])
	assert.Equal(t, 0, svc.Count(Account))
}

func TestRequests_Targets(t *testing.T) {
	t.Parallel()

	r := NewRequests(2)
	assert.Len(t, r.AccountCreateTargets(), 2)
	// no account has an ID yet
	assert.Empty(t, r.RelatedCreateTargets())
	assert.Empty(t, r.DeleteTargets())

	r.Accounts[0].ID = uuid.New()
	related := r.RelatedCreateTargets()
	require.Len(t, related, 2)
	assert.Equal(t, Contact, related[0].LogicalName)
	assert.Equal(t, Opportunity, related[1].LogicalName)

	r.Opportunities = []xrm.Entity{{LogicalName: Opportunity, ID: uuid.New()}}
	refs := r.DeleteTargets()
	require.Len(t, refs, 2)
	assert.Equal(t, Opportunity, refs[0].LogicalName)
	assert.Equal(t, Account, refs[1].LogicalName)

	for _, q := range r.RetrieveMultipleQueries(7) {
		assert.Equal(t, 7, q.PageSize)
	}
}
