package dispatcher

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kashguard/go-xrpl-custody/internal/custody"
	"github.com/kashguard/go-xrpl-custody/internal/ledger"
	"github.com/kashguard/go-xrpl-custody/internal/pool"
	"github.com/kashguard/go-xrpl-custody/internal/signing"
)

type stubCustody struct{}

func (stubCustody) FetchAccountAddressAndPublicKey(_ context.Context, accountID, _ string) (*custody.AccountKey, error) {
	return &custody.AccountKey{
		Address:   "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh",
		PublicKey: "0330E7FC9D56BB25D6893BA3F317AE5BCF33B3291BD63DB32654A313222F7FD020",
	}, nil
}

func (stubCustody) CreateRawSigningRequest(context.Context, *custody.RawSigningRequest) (*custody.CreateResult, error) {
	return &custody.CreateResult{ID: "ctx-1", Status: custody.StatusSubmitted}, nil
}

func (stubCustody) GetTransactionStatus(_ context.Context, txID string) (*custody.TransactionDetails, error) {
	return &custody.TransactionDetails{
		ID:     txID,
		Status: custody.StatusCompleted,
		SignedMessages: []custody.SignedMessage{{
			Signature: custody.SignatureComponents{R: "0102", S: "0304"},
		}},
	}, nil
}

type stubLedgerClient struct {
	connected bool
}

func (c *stubLedgerClient) Connect(context.Context) error    { c.connected = true; return nil }
func (c *stubLedgerClient) Disconnect(context.Context) error { c.connected = false; return nil }
func (c *stubLedgerClient) IsConnected() bool                { return c.connected }

func (c *stubLedgerClient) Autofill(_ context.Context, tx ledger.Transaction) (ledger.Transaction, error) {
	out := tx.Clone()
	out["Sequence"] = float64(42)
	out["Fee"] = "12"
	return out, nil
}

func (c *stubLedgerClient) SubmitAndWait(_ context.Context, txBlob string) (*ledger.SubmitResult, error) {
	return &ledger.SubmitResult{Validated: true, Hash: "ABCDEF", EngineResult: "tesSUCCESS"}, nil
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *pool.Manager) {
	t.Helper()
	m := pool.NewManager(pool.Config{
		MaxSize:         4,
		CleanupInterval: -1,
		AssetID:         "XRP",
		Signing:         signing.Options{PollInterval: 5 * time.Millisecond},
	}, stubCustody{}, ledger.NewJSONCodec(), func(context.Context) (ledger.Client, error) {
		return &stubLedgerClient{}, nil
	}, nil)
	t.Cleanup(func() {
		_ = m.Shutdown(context.Background())
	})

	d := New(m)
	d.RegisterDefaults("XRP")
	return d, m
}

func TestDispatchUnknownOperation(t *testing.T) {
	d, m := newTestDispatcher(t)

	_, err := d.Dispatch(context.Background(), "mint", "vaultA", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown operation")

	// The pool must not have been touched at all.
	assert.Zero(t, m.Metrics().Total)
}

func TestDispatchReleasesHandleAfterSuccess(t *testing.T) {
	d, m := newTestDispatcher(t)

	_, err := d.Dispatch(context.Background(), OpAutofill, "vaultA", map[string]any{
		"transaction": map[string]any{"TransactionType": "Payment"},
	})
	require.NoError(t, err)

	snap := m.Metrics()
	assert.Equal(t, 1, snap.Total)
	assert.Zero(t, snap.InUse)
}

func TestDispatchReleasesHandleAfterFailure(t *testing.T) {
	d, m := newTestDispatcher(t)
	d.Register("boom", func(context.Context, *pool.Handle, map[string]any) (any, error) {
		return nil, errors.New("kaput")
	})

	_, err := d.Dispatch(context.Background(), "boom", "vaultA", nil)
	require.EqualError(t, err, "kaput")

	snap := m.Metrics()
	assert.Equal(t, 1, snap.Total)
	assert.Zero(t, snap.InUse)
}

func TestDispatchSignOperation(t *testing.T) {
	d, _ := newTestDispatcher(t)

	res, err := d.Dispatch(context.Background(), OpSign, "vaultA", map[string]any{
		"transaction": map[string]any{
			"TransactionType": "Payment",
			"Account":         "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh",
			"Destination":     "rN7n7otQDd6FczFgLdSqtcsAUxDkw6fzRH",
			"Amount":          "1000000",
		},
		"note": "test payment",
	})
	require.NoError(t, err)

	signed, ok := res.(*signing.SignedTransaction)
	require.True(t, ok)
	assert.NotEmpty(t, signed.TxBlob)
	assert.NotEmpty(t, signed.Hash)

	decoded, err := ledger.NewJSONCodec().Decode(signed.TxBlob)
	require.NoError(t, err)
	assert.True(t, decoded.HasSignature())
}

func TestDispatchSignRequiresTransaction(t *testing.T) {
	d, _ := newTestDispatcher(t)

	_, err := d.Dispatch(context.Background(), OpSign, "vaultA", map[string]any{"note": "no tx"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transaction parameter")
}

func TestDispatchAutofillOperation(t *testing.T) {
	d, _ := newTestDispatcher(t)

	res, err := d.Dispatch(context.Background(), OpAutofill, "vaultA", map[string]any{
		"transaction": map[string]any{"TransactionType": "Payment"},
	})
	require.NoError(t, err)

	tx, ok := res.(ledger.Transaction)
	require.True(t, ok)
	assert.Equal(t, float64(42), tx["Sequence"])
	assert.Equal(t, "12", tx["Fee"])
}

func TestDispatchSubmitOperation(t *testing.T) {
	d, _ := newTestDispatcher(t)

	res, err := d.Dispatch(context.Background(), OpSubmit, "vaultA", map[string]any{
		"tx_blob": "DEADBEEF",
	})
	require.NoError(t, err)

	result, ok := res.(*ledger.SubmitResult)
	require.True(t, ok)
	assert.True(t, result.Validated)
	assert.Equal(t, "tesSUCCESS", result.EngineResult)

	_, err = d.Dispatch(context.Background(), OpSubmit, "vaultA", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tx_blob")
}

func TestParseMultisign(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		enabled bool
		signer  string
		wantErr bool
	}{
		{name: "nil is off", input: nil, enabled: false},
		{name: "false is off", input: false, enabled: false},
		{name: "empty string is off", input: "", enabled: false},
		{name: "string false is off", input: "false", enabled: false},
		{name: "string off is off", input: "off", enabled: false},
		{name: "true is self", input: true, enabled: true, signer: "self"},
		{name: "string true is self", input: "true", enabled: true, signer: "self"},
		{name: "string self is self", input: "self", enabled: true, signer: "self"},
		{
			name:    "explicit address",
			input:   "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh",
			enabled: true,
			signer:  "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh",
		},
		{name: "invalid address", input: "not-an-address", wantErr: true},
		{name: "unsupported type", input: 42, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseMultisign(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.enabled, got.Enabled())
			if tt.enabled {
				assert.Equal(t, tt.signer, got.Resolve("self"))
			}
		})
	}
}
