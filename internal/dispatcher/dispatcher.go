package dispatcher

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/kashguard/go-xrpl-custody/internal/pool"
)

// Operation executes one logical action against an acquired handle.
type Operation func(ctx context.Context, h *pool.Handle, params map[string]any) (any, error)

// Dispatcher maps logical operation names onto pooled handles: it acquires
// the account's handle, invokes the operation and always releases the handle,
// forwarding errors unchanged.
type Dispatcher struct {
	pool *pool.Manager

	mu  sync.RWMutex
	ops map[string]Operation
}

func New(p *pool.Manager) *Dispatcher {
	return &Dispatcher{
		pool: p,
		ops:  make(map[string]Operation),
	}
}

// Register binds an operation name. Re-registering a name replaces it.
func (d *Dispatcher) Register(name string, op Operation) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ops[name] = op
}

// Dispatch runs the named operation with accountID's pooled handle.
func (d *Dispatcher) Dispatch(ctx context.Context, operation, accountID string, params map[string]any) (any, error) {
	d.mu.RLock()
	op, ok := d.ops[operation]
	d.mu.RUnlock()
	if !ok {
		return nil, errors.Errorf("unknown operation %q", operation)
	}

	h, err := d.pool.Acquire(ctx, accountID)
	if err != nil {
		return nil, err
	}
	defer d.pool.Release(accountID)

	log.Debug().
		Str("operation", operation).
		Str("account_id", accountID).
		Msg("Dispatching operation")

	return op(ctx, h, params)
}
