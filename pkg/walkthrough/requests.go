package walkthrough

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/ib-77/xrmfan/pkg/xrm"
)

const (
	Account     = "account"
	Contact     = "contact"
	Opportunity = "opportunity"
)

// Status codes used by the walkthrough.
const (
	StatusWon      = 3
	StatusInactive = 2
)

// Requests is the data one walkthrough run works on. Steps refresh it with
// what the service returns, and later steps derive their requests from it.
// It is only touched from the goroutine running the scenario.
type Requests struct {
	Count int

	Accounts      []xrm.Entity
	Contacts      []xrm.Entity
	Opportunities []xrm.Entity

	// Retrieved holds the number of records per entity seen in step 5.
	Retrieved map[string]int
}

// NewRequests prepares count accounts to create. Related records are built
// once the accounts have IDs.
func NewRequests(count int) *Requests {
	r := &Requests{Count: count, Retrieved: map[string]int{}}
	r.Accounts = make([]xrm.Entity, count)
	for i := range count {
		r.Accounts[i] = xrm.NewEntity(Account).
			Set("name", fmt.Sprintf("Walkthrough Account %d", i+1)).
			Set("accountnumber", fmt.Sprintf("WT-%05d", i+1))
	}
	return r
}

func (r *Requests) AccountCreateTargets() []xrm.Entity {
	return r.Accounts
}

// RelatedCreateTargets returns one contact and one opportunity for each
// created account, contacts first.
func (r *Requests) RelatedCreateTargets() []xrm.Entity {
	created := created(r.Accounts)
	out := make([]xrm.Entity, 0, 2*len(created))
	for i, a := range created {
		out = append(out, xrm.NewEntity(Contact).
			Set("firstname", "Walkthrough").
			Set("lastname", fmt.Sprintf("Contact %d", i+1)).
			Set("parentcustomerid", a.Reference()))
	}
	for i, a := range created {
		out = append(out, xrm.NewEntity(Opportunity).
			Set("name", fmt.Sprintf("Walkthrough Opportunity %d", i+1)).
			Set("customerid", a.Reference()).
			Set("estimatedvalue", float64(1000*(i+1))))
	}
	return out
}

func (r *Requests) AccountUpdateTargets() []xrm.Entity {
	out := make([]xrm.Entity, 0, len(r.Accounts))
	for _, a := range created(r.Accounts) {
		out = append(out, xrm.Entity{LogicalName: Account, ID: a.ID, Attributes: map[string]any{
			"description": "updated by walkthrough",
		}})
	}
	return out
}

func (r *Requests) OpportunityUpdateTargets() []xrm.Entity {
	out := make([]xrm.Entity, 0, len(r.Opportunities))
	for _, o := range created(r.Opportunities) {
		out = append(out, xrm.Entity{LogicalName: Opportunity, ID: o.ID, Attributes: map[string]any{
			"closeprobability": 100,
		}})
	}
	return out
}

func (r *Requests) WinRequests() []xrm.Request {
	out := make([]xrm.Request, 0, len(r.Opportunities))
	for _, o := range created(r.Opportunities) {
		out = append(out, xrm.WinOpportunityRequest{
			Opportunity: o.Reference(),
			Subject:     "Won by walkthrough",
			Status:      StatusWon,
		})
	}
	return out
}

// SetStateRequests deactivates every created contact.
func (r *Requests) SetStateRequests() []xrm.Request {
	out := make([]xrm.Request, 0, len(r.Contacts))
	for _, c := range created(r.Contacts) {
		out = append(out, xrm.SetStateRequest{
			Target: c.Reference(),
			State:  xrm.StateInactive,
			Status: StatusInactive,
		})
	}
	return out
}

func (r *Requests) RetrieveMultipleQueries(pageSize int) []xrm.Query {
	queries := []xrm.Query{
		xrm.NewQuery(Account),
		xrm.NewQuery(Contact, xrm.Condition{Attribute: "firstname", Value: "Walkthrough"}),
		xrm.NewQuery(Opportunity),
	}
	for i := range queries {
		queries[i].PageSize = pageSize
	}
	return queries
}

// DeleteTargets lists children before their parent accounts.
func (r *Requests) DeleteTargets() []xrm.EntityReference {
	var out []xrm.EntityReference
	for _, set := range [][]xrm.Entity{r.Opportunities, r.Contacts, r.Accounts} {
		for _, e := range created(set) {
			out = append(out, e.Reference())
		}
	}
	return out
}

// created drops records that never got an ID from the service.
func created(entities []xrm.Entity) []xrm.Entity {
	out := make([]xrm.Entity, 0, len(entities))
	for _, e := range entities {
		if e.ID != uuid.Nil {
			out = append(out, e)
		}
	}
	return out
}
