package xrm

import (
	"context"

	"github.com/google/uuid"
)

// Service is the remote business-data service. Implementations are called
// from many goroutines at once and must be safe for that.
type Service interface {
	Create(ctx context.Context, e Entity) (uuid.UUID, error)
	Update(ctx context.Context, e Entity) error
	Delete(ctx context.Context, ref EntityReference) error
	Execute(ctx context.Context, req Request) (Response, error)
	RetrieveMultiple(ctx context.Context, q Query) (EntityCollection, error)
}
