package ledger

import "context"

// SubmitResult is the outcome of submitting a signed blob and waiting for
// validation.
type SubmitResult struct {
	Validated    bool
	Hash         string
	EngineResult string
	Meta         map[string]any
}

// Client is the ledger transport consumed by the signing core: connection
// management, transaction autofill and submission. Serialization lives on
// Codec, not here.
type Client interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	IsConnected() bool

	// Autofill fills in network-derived fields (sequence, fee, last ledger
	// sequence) the caller left unset and returns the completed transaction.
	Autofill(ctx context.Context, tx Transaction) (Transaction, error)

	// SubmitAndWait submits a signed blob and blocks until the ledger
	// reports it validated or ctx is done.
	SubmitAndWait(ctx context.Context, txBlob string) (*SubmitResult, error)
}
