package custody

// TransactionStatus is the remote signing request's lifecycle state as
// reported by the custody service.
type TransactionStatus string

const (
	StatusSubmitted        TransactionStatus = "SUBMITTED"
	StatusQueued           TransactionStatus = "QUEUED"
	StatusPendingSignature TransactionStatus = "PENDING_SIGNATURE"
	StatusCompleted        TransactionStatus = "COMPLETED"
	StatusBlocked          TransactionStatus = "BLOCKED"
	StatusCancelled        TransactionStatus = "CANCELLED"
	StatusFailed           TransactionStatus = "FAILED"
	StatusRejected         TransactionStatus = "REJECTED"
)

// TerminalFailure reports whether the status means the request will never
// produce a signature.
func (s TransactionStatus) TerminalFailure() bool {
	switch s {
	case StatusBlocked, StatusCancelled, StatusFailed, StatusRejected:
		return true
	default:
		return false
	}
}

// RawSigningRequest asks the custody service to sign an arbitrary digest.
// UnsignedPayload is not interpreted remotely; it rides along for audit.
type RawSigningRequest struct {
	AssetID         string
	SourceAccountID string
	Note            string
	Digest          string
	UnsignedPayload map[string]any
}

// CreateResult identifies the remote signing transaction just created.
type CreateResult struct {
	ID     string            `json:"id"`
	Status TransactionStatus `json:"status"`
}

// SignatureComponents are the raw ECDSA components returned by the custody
// service, hex encoded without DER framing.
type SignatureComponents struct {
	R string `json:"r"`
	S string `json:"s"`
	V int    `json:"v"`
}

// SignedMessage is one signed digest within a completed transaction.
type SignedMessage struct {
	Content   string              `json:"content"`
	Signature SignatureComponents `json:"signature"`
}

// TransactionDetails is the polled view of a remote signing transaction.
type TransactionDetails struct {
	ID             string            `json:"id"`
	Status         TransactionStatus `json:"status"`
	SubStatus      string            `json:"subStatus"`
	SignedMessages []SignedMessage   `json:"signedMessages"`
}

// AccountKey is an account's on-ledger address and its compressed public key,
// both managed by the custody service.
type AccountKey struct {
	Address   string
	PublicKey string
}
