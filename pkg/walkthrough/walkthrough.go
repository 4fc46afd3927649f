// Package walkthrough is the six-step demonstration scenario: create
// accounts, create related records, update, execute win and deactivate
// requests, query, and delete everything again.
package walkthrough

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ib-77/xrmfan/pkg/scenario"
	"github.com/ib-77/xrmfan/pkg/xrm"
)

type Options struct {
	// SerialDeletes runs step 6 one delete at a time. Some service versions
	// deadlock on parallel deletes that cascade into shared tables.
	SerialDeletes bool
	Query         xrm.QueryOptions
	PageSize      int
}

type walkthrough struct {
	proxy  *xrm.ParallelProxy
	data   *Requests
	logger *zap.Logger
	opts   Options
}

// New builds the parallel walkthrough scenario.
func New(proxy *xrm.ParallelProxy, data *Requests, logger *zap.Logger, opts Options) scenario.Scenario {
	return build("XrmCoreOperationsScenario", proxy, data, logger, opts)
}

// NewSequential builds the same steps with one call in flight at a time, as
// a baseline for the parallel run.
func NewSequential(proxy *xrm.ParallelProxy, data *Requests, logger *zap.Logger, opts Options) scenario.Scenario {
	return build("SequentialOperationsScenario", proxy.WithParallelism(1), data, logger, opts)
}

func build(name string, proxy *xrm.ParallelProxy, data *Requests, logger *zap.Logger, opts Options) scenario.Scenario {
	if logger == nil {
		logger = zap.L()
	}
	w := &walkthrough{proxy: proxy, data: data, logger: logger.With(zap.String("scenario", name)), opts: opts}

	return scenario.New(name,
		scenario.NewStep("Step 1: create account data", w.createAccounts),
		scenario.NewStep("Step 2: create related data", w.createRelatedData),
		scenario.NewStep("Step 3: update account and opportunities", w.updateAccountsAndOpportunities),
		scenario.NewStep("Step 4: execute win and deactivate requests", w.executeWinAndDeactivate),
		scenario.NewStep("Step 5: retrieve multiple entities", w.retrieveMultiple),
		scenario.NewStep("Step 6: delete all data", w.deleteData),
	)
}

func (w *walkthrough) createAccounts(ctx context.Context) error {
	created, err := w.proxy.Create(ctx, w.data.AccountCreateTargets())
	if created != nil {
		w.data.Accounts = created
	}
	return scenario.Tolerate(w.logger, err)
}

func (w *walkthrough) createRelatedData(ctx context.Context) error {
	targets := w.data.RelatedCreateTargets()
	created, err := w.proxy.Create(ctx, targets)
	if created == nil {
		created = targets
	}

	w.data.Contacts = byLogicalName(created, Contact)
	w.data.Opportunities = byLogicalName(created, Opportunity)
	return scenario.Tolerate(w.logger, err)
}

func (w *walkthrough) updateAccountsAndOpportunities(ctx context.Context) error {
	targets := append(w.data.AccountUpdateTargets(), w.data.OpportunityUpdateTargets()...)
	return scenario.Tolerate(w.logger, w.proxy.Update(ctx, targets))
}

func (w *walkthrough) executeWinAndDeactivate(ctx context.Context) error {
	requests := append(w.data.WinRequests(), w.data.SetStateRequests()...)
	_, err := w.proxy.Execute(ctx, requests)
	return scenario.Tolerate(w.logger, err)
}

func (w *walkthrough) retrieveMultiple(ctx context.Context) error {
	results, err := w.proxy.RetrieveMultiple(ctx, w.data.RetrieveMultipleQueries(w.opts.PageSize), w.opts.Query)

	for _, name := range []string{Account, Contact, Opportunity} {
		c, ok := xrm.Find(results, name)
		if !ok {
			continue
		}
		w.data.Retrieved[name] = len(c.Entities)
		w.logger.Debug("retrieved records", zap.String("entity", name), zap.Int("count", len(c.Entities)))
	}
	return scenario.Tolerate(w.logger, err)
}

func (w *walkthrough) deleteData(ctx context.Context) error {
	proxy := w.proxy
	if w.opts.SerialDeletes {
		proxy = proxy.WithParallelism(1)
	}
	return scenario.Tolerate(w.logger, proxy.Delete(ctx, w.data.DeleteTargets()))
}

func byLogicalName(entities []xrm.Entity, name string) []xrm.Entity {
	out := make([]xrm.Entity, 0, len(entities))
	for _, e := range entities {
		if strings.EqualFold(e.LogicalName, name) {
			out = append(out, e)
		}
	}
	return out
}
