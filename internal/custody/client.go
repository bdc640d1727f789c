package custody

import "context"

// Client is the custody service boundary consumed by the signing core.
// The remote side holds the private keys; this side only ever sends digests
// and receives raw signature components.
type Client interface {
	// CreateRawSigningRequest submits a digest for raw signing and returns
	// the remote transaction id to poll.
	CreateRawSigningRequest(ctx context.Context, req *RawSigningRequest) (*CreateResult, error)

	// GetTransactionStatus fetches the current state of a remote signing
	// transaction, including signed messages once completed.
	GetTransactionStatus(ctx context.Context, txID string) (*TransactionDetails, error)

	// FetchAccountAddressAndPublicKey resolves an account's ledger address
	// and compressed public key for the given asset.
	FetchAccountAddressAndPublicKey(ctx context.Context, accountID, assetID string) (*AccountKey, error)
}
