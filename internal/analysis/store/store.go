package store

import (
	"context"

	"github.com/kidooo/analysis-service/internal/analysis/domain"
)

// Store is the durable job record collection. Create assigns the next id
// (max existing + 1, starting at 1). Update applies mutate to one record
// under a read-modify-write that is atomic with respect to other writers,
// and the mutation is durable before Update returns.
type Store interface {
	Load(ctx context.Context) ([]domain.Job, error)
	Get(ctx context.Context, id int) (*domain.Job, error)
	Create(ctx context.Context, job *domain.Job) (*domain.Job, error)
	Update(ctx context.Context, id int, mutate func(*domain.Job) error) (*domain.Job, error)
}

// NextID returns max existing id + 1, or 1 for an empty collection.
func NextID(jobs []domain.Job) int {
	next := 1
	for _, j := range jobs {
		if j.ID >= next {
			next = j.ID + 1
		}
	}
	return next
}
