package xrm

import (
	"maps"

	"github.com/google/uuid"
)

// Entity is one typed business record.
type Entity struct {
	LogicalName string
	ID          uuid.UUID
	Attributes  map[string]any
}

func NewEntity(logicalName string) Entity {
	return Entity{LogicalName: logicalName, Attributes: map[string]any{}}
}

// Set stores an attribute and returns e for chaining.
func (e Entity) Set(key string, value any) Entity {
	if e.Attributes == nil {
		e.Attributes = map[string]any{}
	}
	e.Attributes[key] = value
	return e
}

func (e Entity) Get(key string) (any, bool) {
	v, ok := e.Attributes[key]
	return v, ok
}

// Clone copies e with its own attribute map.
func (e Entity) Clone() Entity {
	c := e
	c.Attributes = maps.Clone(e.Attributes)
	if c.Attributes == nil {
		c.Attributes = map[string]any{}
	}
	return c
}

func (e Entity) Reference() EntityReference {
	return EntityReference{LogicalName: e.LogicalName, ID: e.ID}
}

func (e Entity) BatchKey() string {
	return e.Reference().BatchKey()
}

type EntityReference struct {
	LogicalName string
	ID          uuid.UUID
}

func (r EntityReference) BatchKey() string {
	if r.ID == uuid.Nil {
		return r.LogicalName + "(new)"
	}
	return r.LogicalName + "(" + r.ID.String() + ")"
}

// Request is a named action executed by the service. Different request kinds
// can be mixed in one batch.
type Request interface {
	RequestName() string
}

// WinOpportunityRequest closes an opportunity as won.
type WinOpportunityRequest struct {
	Opportunity EntityReference
	Subject     string
	Status      int
}

func (WinOpportunityRequest) RequestName() string { return "WinOpportunity" }

func (r WinOpportunityRequest) BatchKey() string {
	return "WinOpportunity:" + r.Opportunity.BatchKey()
}

// SetStateRequest changes the state and status of any record.
type SetStateRequest struct {
	Target EntityReference
	State  int
	Status int
}

func (SetStateRequest) RequestName() string { return "SetState" }

func (r SetStateRequest) BatchKey() string {
	return "SetState:" + r.Target.BatchKey()
}

type Response struct {
	RequestName string
	Results     map[string]any
}

// Condition matches records whose attribute equals Value.
type Condition struct {
	Attribute string
	Value     any
}

// Query selects records of one entity. PagingCookie is opaque and comes from
// the previous page.
type Query struct {
	EntityName   string
	Conditions   []Condition
	PageSize     int
	PageNumber   int
	PagingCookie string
}

func NewQuery(entityName string, conditions ...Condition) Query {
	return Query{EntityName: entityName, Conditions: conditions, PageNumber: 1}
}

func (q Query) BatchKey() string {
	return "query(" + q.EntityName + ")"
}

type EntityCollection struct {
	EntityName   string
	Entities     []Entity
	MoreRecords  bool
	PagingCookie string
}

// Well-known state codes.
const (
	StateActive   = 0
	StateInactive = 1
	StateWon      = 1
)

const (
	AttrStateCode  = "statecode"
	AttrStatusCode = "statuscode"
)
