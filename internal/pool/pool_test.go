package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kashguard/go-xrpl-custody/internal/custody"
	"github.com/kashguard/go-xrpl-custody/internal/ledger"
)

// stubCustody resolves every account to a deterministic fake key pair and
// counts lookups so tests can observe cache hits vs. rebuilds. Setting
// address/publicKey overrides the fake pair for every account.
type stubCustody struct {
	mu        sync.Mutex
	lookups   map[string]int
	fail      bool
	address   string
	publicKey string
}

func newStubCustody() *stubCustody {
	return &stubCustody{lookups: make(map[string]int)}
}

func (s *stubCustody) FetchAccountAddressAndPublicKey(_ context.Context, accountID, _ string) (*custody.AccountKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups[accountID]++
	if s.fail {
		return nil, assert.AnError
	}
	if s.address != "" {
		return &custody.AccountKey{Address: s.address, PublicKey: s.publicKey}, nil
	}
	return &custody.AccountKey{
		Address:   "r" + accountID,
		PublicKey: "02" + accountID,
	}, nil
}

func (s *stubCustody) CreateRawSigningRequest(context.Context, *custody.RawSigningRequest) (*custody.CreateResult, error) {
	return &custody.CreateResult{ID: "unused"}, nil
}

func (s *stubCustody) GetTransactionStatus(_ context.Context, txID string) (*custody.TransactionDetails, error) {
	return &custody.TransactionDetails{ID: txID, Status: custody.StatusCompleted}, nil
}

func (s *stubCustody) lookupCount(accountID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookups[accountID]
}

// fakeLedgerClient tracks connection state transitions. Arming failConnect
// makes the next Connect calls fail without touching the rest of the state.
type fakeLedgerClient struct {
	connected   atomic.Bool
	connects    atomic.Int64
	disconnects atomic.Int64
	failConnect atomic.Bool
}

func (f *fakeLedgerClient) Connect(context.Context) error {
	f.connects.Add(1)
	if f.failConnect.Load() {
		return assert.AnError
	}
	f.connected.Store(true)
	return nil
}

func (f *fakeLedgerClient) Disconnect(context.Context) error {
	f.disconnects.Add(1)
	f.connected.Store(false)
	return nil
}

func (f *fakeLedgerClient) IsConnected() bool {
	return f.connected.Load()
}

func (f *fakeLedgerClient) Autofill(_ context.Context, tx ledger.Transaction) (ledger.Transaction, error) {
	return tx, nil
}

func (f *fakeLedgerClient) SubmitAndWait(context.Context, string) (*ledger.SubmitResult, error) {
	return &ledger.SubmitResult{Validated: true}, nil
}

type clientTracker struct {
	mu      sync.Mutex
	clients []*fakeLedgerClient
}

func (t *clientTracker) factory(context.Context) (ledger.Client, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := &fakeLedgerClient{}
	t.clients = append(t.clients, c)
	return c, nil
}

func (t *clientTracker) created() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.clients)
}

func (t *clientTracker) disconnected() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, c := range t.clients {
		if c.disconnects.Load() > 0 {
			n++
		}
	}
	return n
}

func newTestManager(t *testing.T, cfg Config) (*Manager, *stubCustody, *clientTracker) {
	t.Helper()
	if cfg.CleanupInterval == 0 {
		cfg.CleanupInterval = -1 // janitor off unless a test wants it
	}
	stub := newStubCustody()
	tracker := &clientTracker{}
	m := NewManager(cfg, stub, ledger.NewJSONCodec(), tracker.factory, nil)
	t.Cleanup(func() {
		_ = m.Shutdown(context.Background())
	})
	return m, stub, tracker
}

func TestAcquireCachesHandlePerAccount(t *testing.T) {
	m, stub, tracker := newTestManager(t, Config{MaxSize: 4, AssetID: "XRP"})
	ctx := context.Background()

	h1, err := m.Acquire(ctx, "vaultA")
	require.NoError(t, err)
	assert.Equal(t, "rvaultA", h1.Address)
	assert.Equal(t, "02vaultA", h1.PublicKey)
	require.NotNil(t, h1.Engine)
	m.Release("vaultA")

	h2, err := m.Acquire(ctx, "vaultA")
	require.NoError(t, err)
	assert.Same(t, h1, h2)
	m.Release("vaultA")

	assert.Equal(t, 1, stub.lookupCount("vaultA"))
	assert.Equal(t, 1, tracker.created())
}

func TestAcquireDistinctAccountsDistinctHandles(t *testing.T) {
	m, _, tracker := newTestManager(t, Config{MaxSize: 4, AssetID: "XRP"})
	ctx := context.Background()

	hA, err := m.Acquire(ctx, "vaultA")
	require.NoError(t, err)
	hB, err := m.Acquire(ctx, "vaultB")
	require.NoError(t, err)

	assert.NotSame(t, hA, hB)
	assert.Equal(t, 2, tracker.created())

	snap := m.Metrics()
	assert.Equal(t, 2, snap.Total)
	assert.Equal(t, 2, snap.InUse)
	assert.Equal(t, 0, snap.Idle)
}

func TestAcquireAtCapacityEvictsIdle(t *testing.T) {
	m, _, tracker := newTestManager(t, Config{MaxSize: 2, AssetID: "XRP"})
	ctx := context.Background()

	_, err := m.Acquire(ctx, "vaultA")
	require.NoError(t, err)
	_, err = m.Acquire(ctx, "vaultB")
	require.NoError(t, err)

	// Both leased: no eviction candidate.
	_, err = m.Acquire(ctx, "vaultC")
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeCapacityExceeded))

	// Releasing one frees a slot; vaultA becomes the LRU victim.
	m.Release("vaultA")
	hC, err := m.Acquire(ctx, "vaultC")
	require.NoError(t, err)
	assert.Equal(t, "rvaultC", hC.Address)

	assert.Equal(t, 1, tracker.disconnected())
	snap := m.Metrics()
	assert.Equal(t, 2, snap.Total)
	_, stillThere := snap.InUsePerAccount["vaultA"]
	assert.False(t, stillThere)
	assert.True(t, snap.InUsePerAccount["vaultC"])
}

func TestAcquireEvictsLeastRecentlyReleased(t *testing.T) {
	m, _, _ := newTestManager(t, Config{MaxSize: 2, AssetID: "XRP"})
	ctx := context.Background()

	_, err := m.Acquire(ctx, "vaultA")
	require.NoError(t, err)
	_, err = m.Acquire(ctx, "vaultB")
	require.NoError(t, err)

	m.Release("vaultB")
	time.Sleep(2 * time.Millisecond)
	m.Release("vaultA")

	_, err = m.Acquire(ctx, "vaultC")
	require.NoError(t, err)

	snap := m.Metrics()
	_, hasA := snap.InUsePerAccount["vaultA"]
	_, hasB := snap.InUsePerAccount["vaultB"]
	assert.True(t, hasA)
	assert.False(t, hasB)
}

func TestAcquireBuildFailureLeavesNoEntry(t *testing.T) {
	m, stub, _ := newTestManager(t, Config{MaxSize: 2, AssetID: "XRP"})
	stub.fail = true

	_, err := m.Acquire(context.Background(), "vaultA")
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeSdkCreationFailed))
	assert.Zero(t, m.Metrics().Total)

	// A later attempt retries construction from scratch.
	stub.fail = false
	h, err := m.Acquire(context.Background(), "vaultA")
	require.NoError(t, err)
	assert.Equal(t, "rvaultA", h.Address)
	assert.Equal(t, 2, stub.lookupCount("vaultA"))
}

func TestAcquireConcurrentSameAccountBuildsOnce(t *testing.T) {
	m, stub, tracker := newTestManager(t, Config{MaxSize: 4, AssetID: "XRP"})

	const callers = 16
	handles := make([]*Handle, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			handles[idx], errs[idx] = m.Acquire(context.Background(), "vaultA")
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, handles[0], handles[i])
	}
	assert.Equal(t, 1, stub.lookupCount("vaultA"))
	assert.Equal(t, 1, tracker.created())
}

func TestCleanupIdleRespectsTimeout(t *testing.T) {
	m, _, tracker := newTestManager(t, Config{
		MaxSize:     4,
		IdleTimeout: 10 * time.Millisecond,
		AssetID:     "XRP",
	})
	ctx := context.Background()

	_, err := m.Acquire(ctx, "vaultA")
	require.NoError(t, err)
	m.Release("vaultA")

	// Not yet past the idle timeout.
	m.CleanupIdle()
	assert.Equal(t, 1, m.Metrics().Total)

	time.Sleep(15 * time.Millisecond)
	m.CleanupIdle()
	assert.Zero(t, m.Metrics().Total)
	assert.Equal(t, 1, tracker.disconnected())
}

func TestCleanupIdleNeverRemovesInUse(t *testing.T) {
	m, _, _ := newTestManager(t, Config{
		MaxSize:     4,
		IdleTimeout: time.Millisecond,
		AssetID:     "XRP",
	})

	_, err := m.Acquire(context.Background(), "vaultA")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	m.CleanupIdle()

	snap := m.Metrics()
	assert.Equal(t, 1, snap.Total)
	assert.True(t, snap.InUsePerAccount["vaultA"])
}

func TestJanitorRemovesIdleHandles(t *testing.T) {
	m, _, _ := newTestManager(t, Config{
		MaxSize:         4,
		IdleTimeout:     5 * time.Millisecond,
		CleanupInterval: 5 * time.Millisecond,
		AssetID:         "XRP",
	})

	_, err := m.Acquire(context.Background(), "vaultA")
	require.NoError(t, err)
	m.Release("vaultA")

	assert.Eventually(t, func() bool {
		return m.Metrics().Total == 0
	}, time.Second, 2*time.Millisecond)
}

func TestShutdownTearsDownEverything(t *testing.T) {
	m, _, tracker := newTestManager(t, Config{MaxSize: 4, AssetID: "XRP"})
	ctx := context.Background()

	_, err := m.Acquire(ctx, "vaultA")
	require.NoError(t, err)
	_, err = m.Acquire(ctx, "vaultB")
	require.NoError(t, err)
	m.Release("vaultB")

	require.NoError(t, m.Shutdown(ctx))

	assert.Zero(t, m.Metrics().Total)
	assert.Equal(t, 2, tracker.disconnected())

	_, err = m.Acquire(ctx, "vaultC")
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeSdkCreationFailed))

	// Idempotent.
	require.NoError(t, m.Shutdown(ctx))
}

func TestReleaseUnknownAccountIsNoop(t *testing.T) {
	m, _, _ := newTestManager(t, Config{MaxSize: 2, AssetID: "XRP"})
	m.Release("never-acquired")
	assert.Zero(t, m.Metrics().Total)
}

func TestShutdownDuringBuildTearsDownFreshHandle(t *testing.T) {
	gate := make(chan struct{})
	var built atomic.Pointer[fakeLedgerClient]
	factory := func(context.Context) (ledger.Client, error) {
		<-gate
		c := &fakeLedgerClient{}
		built.Store(c)
		return c, nil
	}

	stub := newStubCustody()
	m := NewManager(Config{MaxSize: 2, AssetID: "XRP", CleanupInterval: -1}, stub, ledger.NewJSONCodec(), factory, nil)
	ctx := context.Background()

	errCh := make(chan error, 1)
	go func() {
		_, err := m.Acquire(ctx, "vaultA")
		errCh <- err
	}()

	// Wait for the builder to reach the blocked factory, then shut down
	// underneath it.
	require.Eventually(t, func() bool { return stub.lookupCount("vaultA") == 1 }, time.Second, time.Millisecond)
	require.NoError(t, m.Shutdown(ctx))

	close(gate)
	err := <-errCh
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeSdkCreationFailed))

	c := built.Load()
	require.NotNil(t, c)
	assert.Eventually(t, func() bool { return c.disconnects.Load() > 0 }, time.Second, time.Millisecond)
	assert.False(t, c.IsConnected())
	assert.Zero(t, m.Metrics().Total)
}

func TestSharedAcquireReconnectFailureKeepsLease(t *testing.T) {
	m, _, tracker := newTestManager(t, Config{MaxSize: 2, AssetID: "XRP"})
	ctx := context.Background()

	h, err := m.Acquire(ctx, "vaultA")
	require.NoError(t, err)

	// Drop the transport and make reconnecting fail for the second caller.
	c := tracker.clients[0]
	c.connected.Store(false)
	c.failConnect.Store(true)

	_, err = m.Acquire(ctx, "vaultA")
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeSdkCreationFailed))

	// The first caller's lease is untouched.
	assert.True(t, m.Metrics().InUsePerAccount["vaultA"])

	// After the failure the first caller can still release normally.
	m.Release(h.AccountID)
	assert.False(t, m.Metrics().InUsePerAccount["vaultA"])
}

func TestAcquireRejectsAddressKeyMismatch(t *testing.T) {
	m, stub, tracker := newTestManager(t, Config{MaxSize: 2, AssetID: "XRP"})
	ctx := context.Background()

	stub.address = "rN7n7otQDd6FczFgLdSqtcsAUxDkw6fzRH"
	stub.publicKey = "0330E7FC9D56BB25D6893BA3F317AE5BCF33B3291BD63DB32654A313222F7FD020"

	_, err := m.Acquire(ctx, "vaultA")
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeSdkCreationFailed))
	assert.Zero(t, m.Metrics().Total)
	assert.Zero(t, tracker.created())
}

func TestAcquireAcceptsMatchingAddressKeyPair(t *testing.T) {
	m, stub, _ := newTestManager(t, Config{MaxSize: 2, AssetID: "XRP"})
	ctx := context.Background()

	stub.address = "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh"
	stub.publicKey = "0330E7FC9D56BB25D6893BA3F317AE5BCF33B3291BD63DB32654A313222F7FD020"

	h, err := m.Acquire(ctx, "vaultA")
	require.NoError(t, err)
	assert.Equal(t, stub.address, h.Address)
}
