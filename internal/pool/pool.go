package pool

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/kashguard/go-xrpl-custody/internal/custody"
	"github.com/kashguard/go-xrpl-custody/internal/ledger"
	"github.com/kashguard/go-xrpl-custody/internal/signing"
)

const (
	defaultMaxSize         = 8
	defaultIdleTimeout     = 10 * time.Minute
	defaultCleanupInterval = time.Minute
	teardownTimeout        = 5 * time.Second
)

// Handle is one account's cached client bundle: the resolved account
// identity, a connected ledger client and the signing engine bound to it.
type Handle struct {
	AccountID string
	Address   string
	PublicKey string
	Ledger    ledger.Client
	Engine    *signing.Engine
}

// ClientFactory constructs a fresh, not-yet-connected ledger client.
type ClientFactory func(ctx context.Context) (ledger.Client, error)

// Config tunes the pool.
type Config struct {
	// MaxSize caps the number of pooled handles. Zero means the default.
	MaxSize int
	// IdleTimeout is how long a released handle may sit unused before the
	// janitor tears it down. Zero means the default.
	IdleTimeout time.Duration
	// CleanupInterval is the janitor period. Zero means the default;
	// negative disables the janitor.
	CleanupInterval time.Duration
	// AssetID is the ledger asset handles are resolved for.
	AssetID string
	// Signing is passed through to each handle's engine.
	Signing signing.Options
}

type entry struct {
	handle   *Handle
	lastUsed time.Time
	inUse    bool
	// ready is closed once handle construction finished (or failed and the
	// entry was removed). Concurrent acquirers for the same account wait
	// on it instead of building a second handle.
	ready chan struct{}
}

// Manager caches one authenticated handle per account, amortizing the
// account-info fetch and connection setup across signing operations. Handles
// are leased with Acquire/Release; capacity pressure evicts the
// least-recently-released idle handle and a background janitor removes
// handles idle past the timeout.
type Manager struct {
	cfg       Config
	custody   custody.Client
	codec     ledger.Codec
	newClient ClientFactory
	prom      *promMetrics

	mu      sync.Mutex
	entries map[string]*entry
	closed  bool

	janitorStop chan struct{}
	janitorDone chan struct{}
}

// NewManager creates the pool and starts its janitor. reg may be nil to skip
// Prometheus registration (tests).
func NewManager(cfg Config, custodyClient custody.Client, codec ledger.Codec, newClient ClientFactory, reg prometheus.Registerer) *Manager {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = defaultMaxSize
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
	if cfg.CleanupInterval == 0 {
		cfg.CleanupInterval = defaultCleanupInterval
	}

	m := &Manager{
		cfg:       cfg,
		custody:   custodyClient,
		codec:     codec,
		newClient: newClient,
		prom:      newPromMetrics(reg),
		entries:   make(map[string]*entry),
	}

	if cfg.CleanupInterval > 0 {
		m.janitorStop = make(chan struct{})
		m.janitorDone = make(chan struct{})
		go m.janitor()
	}

	return m
}

// Acquire returns the pooled handle for accountID, constructing one if
// needed. Entries are keyed by account: concurrent callers for the same
// account share a single handle.
func (m *Manager) Acquire(ctx context.Context, accountID string) (*Handle, error) {
	for {
		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return nil, newError(CodeSdkCreationFailed, "pool is shut down")
		}

		if e, ok := m.entries[accountID]; ok {
			if e.handle == nil {
				// Another caller is constructing this handle.
				ready := e.ready
				m.mu.Unlock()
				select {
				case <-ready:
				case <-ctx.Done():
					return nil, wrapError(ctx.Err(), CodeSdkCreationFailed, "gave up waiting for handle construction")
				}
				continue
			}

			wasInUse := e.inUse
			e.inUse = true
			e.lastUsed = time.Now()
			h := e.handle
			m.prom.hits.Inc()
			m.refreshGaugesLocked()
			m.mu.Unlock()

			if wasInUse {
				// Concurrent reuse of an account shares the handle; bring
				// the transport back if it dropped. On failure the first
				// caller's lease stays intact, so no Release here.
				log.Debug().Str("account_id", accountID).Msg("Handle already in use, sharing")
				if !h.Ledger.IsConnected() {
					if err := h.Ledger.Connect(ctx); err != nil {
						return nil, wrapError(err, CodeSdkCreationFailed, "failed to reconnect ledger client for %s", accountID)
					}
				}
			}
			return h, nil
		}

		// Miss: make room if needed, then reserve the slot before the
		// expensive construction.
		var victim *Handle
		if len(m.entries) >= m.cfg.MaxSize {
			victimID, ok := m.evictableLocked()
			if !ok {
				m.mu.Unlock()
				return nil, newError(CodeCapacityExceeded, "pool is at capacity (%d) with no idle handle to evict", m.cfg.MaxSize)
			}
			victim = m.entries[victimID].handle
			delete(m.entries, victimID)
			m.prom.evictions.Inc()
			log.Info().Str("evicted_account_id", victimID).Str("account_id", accountID).Msg("Evicted idle handle to make room")
		}

		e := &entry{inUse: true, lastUsed: time.Now(), ready: make(chan struct{})}
		m.entries[accountID] = e
		m.prom.misses.Inc()
		m.refreshGaugesLocked()
		m.mu.Unlock()

		if victim != nil {
			m.teardown(victim)
		}

		h, err := m.buildHandle(ctx, accountID)

		m.mu.Lock()
		// Shutdown may have run while we were building; the reserved entry
		// is gone then and the fresh handle must not outlive the pool.
		closed := m.closed
		if err != nil || closed {
			delete(m.entries, accountID)
		} else {
			e.handle = h
			e.lastUsed = time.Now()
		}
		m.refreshGaugesLocked()
		close(e.ready)
		m.mu.Unlock()

		if err != nil {
			return nil, err
		}
		if closed {
			m.teardown(h)
			return nil, newError(CodeSdkCreationFailed, "pool is shut down")
		}
		return h, nil
	}
}

// buildHandle resolves the account against the custody service and connects
// a fresh ledger client with a signing engine bound to the account.
func (m *Manager) buildHandle(ctx context.Context, accountID string) (*Handle, error) {
	key, err := m.custody.FetchAccountAddressAndPublicKey(ctx, accountID, m.cfg.AssetID)
	if err != nil {
		return nil, wrapError(err, CodeSdkCreationFailed, "failed to resolve account %s", accountID)
	}

	// Cross-check the custody-reported address against its public key.
	// Keys the local derivation cannot parse are left to the custody
	// service's authority; a parseable key that derives to a different
	// address means the account data is inconsistent.
	if derived, derr := ledger.DeriveClassicAddress(key.PublicKey); derr != nil {
		log.Warn().Err(derr).Str("account_id", accountID).Msg("Could not derive address from custody public key")
	} else if derived != key.Address {
		return nil, newError(CodeSdkCreationFailed, "custody address %s for account %s does not match key-derived address %s", key.Address, accountID, derived)
	}

	client, err := m.newClient(ctx)
	if err != nil {
		return nil, wrapError(err, CodeSdkCreationFailed, "failed to construct ledger client for %s", accountID)
	}
	if err := client.Connect(ctx); err != nil {
		return nil, wrapError(err, CodeSdkCreationFailed, "failed to connect ledger client for %s", accountID)
	}

	log.Info().
		Str("account_id", accountID).
		Str("address", key.Address).
		Msg("Constructed pooled handle")

	return &Handle{
		AccountID: accountID,
		Address:   key.Address,
		PublicKey: key.PublicKey,
		Ledger:    client,
		Engine:    signing.NewEngine(key.Address, m.custody, m.codec, m.cfg.Signing),
	}, nil
}

// evictableLocked finds the least-recently-released idle entry.
func (m *Manager) evictableLocked() (string, bool) {
	var oldest string
	var oldestAt time.Time
	found := false
	for id, e := range m.entries {
		if e.inUse || e.handle == nil {
			continue
		}
		if !found || e.lastUsed.Before(oldestAt) {
			oldest, oldestAt, found = id, e.lastUsed, true
		}
	}
	return oldest, found
}

// Release marks the account's handle idle. No-op for unknown accounts.
func (m *Manager) Release(accountID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[accountID]
	if !ok {
		return
	}
	e.inUse = false
	e.lastUsed = time.Now()
	m.refreshGaugesLocked()
}

// Metrics returns a point-in-time snapshot of pool state.
func (m *Manager) Metrics() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{InUsePerAccount: make(map[string]bool, len(m.entries))}
	for id, e := range m.entries {
		snap.Total++
		if e.inUse {
			snap.InUse++
		} else {
			snap.Idle++
		}
		snap.InUsePerAccount[id] = e.inUse
	}
	return snap
}

func (m *Manager) refreshGaugesLocked() {
	total, inUse := 0, 0
	for _, e := range m.entries {
		total++
		if e.inUse {
			inUse++
		}
	}
	m.prom.entries.Set(float64(total))
	m.prom.inUse.Set(float64(inUse))
}

func (m *Manager) janitor() {
	defer close(m.janitorDone)
	ticker := time.NewTicker(m.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.janitorStop:
			return
		case <-ticker.C:
			m.CleanupIdle()
		}
	}
}

// CleanupIdle tears down every idle handle whose idle time exceeds the
// configured timeout. In-use handles are never touched.
func (m *Manager) CleanupIdle() {
	cutoff := time.Now().Add(-m.cfg.IdleTimeout)

	m.mu.Lock()
	var victims []*Handle
	for id, e := range m.entries {
		if e.inUse || e.handle == nil || e.lastUsed.After(cutoff) {
			continue
		}
		victims = append(victims, e.handle)
		delete(m.entries, id)
		m.prom.idleDrops.Inc()
		log.Info().Str("account_id", id).Time("last_used", e.lastUsed).Msg("Removing idle handle")
	}
	m.refreshGaugesLocked()
	m.mu.Unlock()

	for _, h := range victims {
		m.teardown(h)
	}
}

// Shutdown stops the janitor and tears down every handle, in-use or not.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	victims := make([]*Handle, 0, len(m.entries))
	for _, e := range m.entries {
		if e.handle != nil {
			victims = append(victims, e.handle)
		}
	}
	m.entries = make(map[string]*entry)
	m.refreshGaugesLocked()
	m.mu.Unlock()

	if m.janitorStop != nil {
		close(m.janitorStop)
		select {
		case <-m.janitorDone:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	for _, h := range victims {
		m.teardown(h)
	}

	log.Info().Int("torn_down", len(victims)).Msg("Pool shut down")
	return nil
}

func (m *Manager) teardown(h *Handle) {
	ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()
	if err := h.Ledger.Disconnect(ctx); err != nil {
		log.Warn().Err(err).Str("account_id", h.AccountID).Msg("Failed to disconnect ledger client")
	}
}
