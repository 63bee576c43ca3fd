// Package sink provides crash-safe, append-oriented persistence for the two
// record streams (products, variants). Each append is durable before the
// call returns; the append, not the session, is the unit of atomicity.
package sink

import (
	"context"
	"errors"

	"github.com/webdriftlab/ecom-scraper/internal/models"
)

// ErrWriteFailed wraps any persistence failure. Persistence failures are
// fatal to the session: losing the durability guarantee silently is worse
// than stopping the run.
var ErrWriteFailed = errors.New("persistence write failed")

// Sink is the persistence contract. Implementations must make every append
// durable before returning and must survive the process being killed
// between (or during) appends without corrupting prior records.
type Sink interface {
	// AppendProduct durably writes one product record.
	AppendProduct(ctx context.Context, p *models.Product) error

	// AppendVariant durably writes one variant record.
	AppendVariant(ctx context.Context, v *models.Variant) error

	// ExistingProductURLs reports the product URLs already present in this
	// output location, so a restarted session can skip re-emitting them.
	ExistingProductURLs(ctx context.Context) (map[string]struct{}, error)

	// Location describes the output destination for reporting.
	Location() string

	Close() error
}
