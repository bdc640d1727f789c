package signing

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kashguard/go-xrpl-custody/internal/custody"
	"github.com/kashguard/go-xrpl-custody/internal/ledger"
)

const defaultPollInterval = 3 * time.Second

// Options tunes the engine's polling behavior.
type Options struct {
	// PollInterval is the delay between custody status polls. Zero means
	// the default.
	PollInterval time.Duration
	// MaxWait bounds how long CompleteSigning waits for the custody
	// service overall. Zero polls until a terminal status is observed.
	MaxWait time.Duration
}

// signingContext is the non-serialized companion stored for each placeholder:
// the cleaned unsigned transaction plus what Prepare resolved.
type signingContext struct {
	tx        ledger.Transaction
	publicKey string
	multisign MultisignTarget
}

// Engine drives the two-phase remote signing protocol for one account:
// Prepare parks a cleaned transaction behind a placeholder, CompleteSigning
// exchanges its digest for a raw custody signature and reassembles the final
// signed transaction. An engine's lifetime is scoped to its account's pooled
// handle.
type Engine struct {
	account      string
	custody      custody.Client
	codec        ledger.Codec
	pollInterval time.Duration
	maxWait      time.Duration

	mu      sync.Mutex
	pending map[string]*signingContext
}

// NewEngine creates an engine bound to the given account address.
func NewEngine(account string, custodyClient custody.Client, codec ledger.Codec, opts Options) *Engine {
	interval := opts.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Engine{
		account:      account,
		custody:      custodyClient,
		codec:        codec,
		pollInterval: interval,
		maxWait:      opts.MaxWait,
		pending:      make(map[string]*signingContext),
	}
}

// Prepare validates and cleans an unsigned transaction, parks it in the
// pending map and returns a single-use placeholder. Synchronous; the map
// insertion is its only side effect.
func (e *Engine) Prepare(tx ledger.Transaction, publicKey string, multisign MultisignTarget) (*Placeholder, error) {
	if tx == nil {
		return nil, newError(CodeAlreadySigned, "no transaction provided")
	}
	if tx.HasSignature() || tx.HasSigners() {
		return nil, newError(CodeAlreadySigned, "transaction already carries a signature or signer list")
	}

	cleaned := tx.Clone()
	delete(cleaned, ledger.FieldTxnSignature)
	delete(cleaned, ledger.FieldSigners)
	if multisign.Enabled() {
		// Multisigned transactions are signed with an empty signing key;
		// the real key rides in the signer-list entry.
		cleaned[ledger.FieldSigningPubKey] = ""
	} else {
		cleaned[ledger.FieldSigningPubKey] = publicKey
	}

	id := uuid.NewString()
	e.mu.Lock()
	e.pending[id] = &signingContext{
		tx:        cleaned,
		publicKey: publicKey,
		multisign: multisign,
	}
	e.mu.Unlock()

	return &Placeholder{
		ID:     id,
		TxBlob: placeholderBlobPrefix + id,
		Hash:   placeholderHashPrefix + id,
	}, nil
}

// takePending atomically removes and returns the context for id. Only one
// concurrent completion can win; the rest observe a miss.
func (e *Engine) takePending(id string) *signingContext {
	e.mu.Lock()
	defer e.mu.Unlock()
	sc := e.pending[id]
	delete(e.pending, id)
	return sc
}

// PendingCount returns how many prepared transactions await completion.
func (e *Engine) PendingCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

// CompleteSigning consumes a placeholder, requests a raw signature from the
// custody service, polls until it materializes and reassembles the signed
// transaction. Blocks until the custody service reaches a terminal state or
// ctx is cancelled.
func (e *Engine) CompleteSigning(ctx context.Context, ph *Placeholder, assetID, accountID, note string) (*SignedTransaction, error) {
	id := ph.pendingID()
	if id == "" {
		return nil, newError(CodeInvalidPlaceholder, "placeholder blob token is malformed")
	}

	sc := e.takePending(id)
	if sc == nil {
		return nil, newError(CodePlaceholderExpired, "placeholder %s was already consumed or never prepared", id)
	}

	unsignedBlob, err := e.codec.Encode(sc.tx)
	if err != nil {
		return nil, wrapError(err, CodeSerializationValidationFailed, "failed to serialize unsigned transaction")
	}
	digest, err := e.codec.Hash(unsignedBlob)
	if err != nil {
		return nil, wrapError(err, CodeSerializationValidationFailed, "failed to hash unsigned transaction")
	}

	created, err := e.custody.CreateRawSigningRequest(ctx, &custody.RawSigningRequest{
		AssetID:         assetID,
		SourceAccountID: accountID,
		Note:            note,
		Digest:          digest,
		UnsignedPayload: sc.tx,
	})
	if err != nil {
		return nil, wrapError(err, CodeSignatureRequestFailed, "failed to submit raw signing request")
	}

	log.Debug().
		Str("account", e.account).
		Str("custody_tx_id", created.ID).
		Str("digest", digest).
		Msg("Raw signing request submitted, polling for signature")

	details, err := e.waitForSignature(ctx, created.ID)
	if err != nil {
		return nil, err
	}

	if len(details.SignedMessages) == 0 {
		return nil, &Error{
			Code:        CodeNoSignature,
			Message:     "custody service completed without a signature",
			CustodyTxID: details.ID,
		}
	}
	sig := details.SignedMessages[0].Signature

	encodedSig, err := EncodeDER(sig.R, sig.S)
	if err != nil {
		return nil, err
	}

	if !sc.multisign.Enabled() {
		e.verifyComponents(sig, digest, sc.publicKey)
	}

	final := sc.tx.Clone()
	if sc.multisign.Enabled() {
		signer := sc.multisign.Resolve(e.account)
		final[ledger.FieldSigners] = []ledger.SignerEntry{{
			Signer: ledger.Signer{
				Account:       signer,
				SigningPubKey: sc.publicKey,
				TxnSignature:  encodedSig,
			},
		}}
	} else {
		final[ledger.FieldTxnSignature] = encodedSig
	}

	signedBlob, err := e.codec.Encode(final)
	if err != nil {
		return nil, wrapError(err, CodeSerializationValidationFailed, "failed to serialize signed transaction")
	}

	// Decode the blob we just produced and make sure the signature actually
	// round-trips before handing it out.
	decoded, err := e.codec.Decode(signedBlob)
	if err != nil {
		return nil, wrapError(err, CodeSerializationValidationFailed, "signed transaction does not decode")
	}
	if !decoded.HasSignature() && !decoded.HasSigners() {
		return nil, newError(CodeSerializationValidationFailed, "signed transaction lost its signature on serialization")
	}

	hash, err := e.codec.HashSigned(signedBlob)
	if err != nil {
		return nil, wrapError(err, CodeSerializationValidationFailed, "failed to hash signed transaction")
	}

	log.Info().
		Str("account", e.account).
		Str("custody_tx_id", details.ID).
		Str("hash", hash).
		Bool("multisign", sc.multisign.Enabled()).
		Msg("Transaction signed")

	return &SignedTransaction{TxBlob: signedBlob, Hash: hash}, nil
}

// SignAsync composes Prepare and CompleteSigning in one call.
func (e *Engine) SignAsync(ctx context.Context, tx ledger.Transaction, publicKey, assetID, accountID, note string, multisign MultisignTarget) (*SignedTransaction, error) {
	ph, err := e.Prepare(tx, publicKey, multisign)
	if err != nil {
		return nil, err
	}
	return e.CompleteSigning(ctx, ph, assetID, accountID, note)
}

// waitForSignature polls the custody service until the transaction reaches a
// terminal status. Transport failures are wrapped, never propagated raw.
func (e *Engine) waitForSignature(ctx context.Context, custodyTxID string) (*custody.TransactionDetails, error) {
	if custodyTxID == "" {
		return nil, newError(CodeSignatureRequestFailed, "custody service returned an empty transaction id")
	}

	if e.maxWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.maxWait)
		defer cancel()
	}

	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		details, err := e.custody.GetTransactionStatus(ctx, custodyTxID)
		if err != nil {
			return nil, &Error{
				Code:        CodeSignatureRequestFailed,
				Message:     "failed to poll custody transaction status",
				CustodyTxID: custodyTxID,
				cause:       err,
			}
		}

		if details.Status == custody.StatusCompleted {
			return details, nil
		}
		if details.Status.TerminalFailure() {
			return nil, &Error{
				Code:        CodeSignatureRequestFailed,
				Message:     "custody service reported terminal status " + string(details.Status),
				CustodyTxID: custodyTxID,
				SubStatus:   details.SubStatus,
			}
		}

		log.Debug().
			Str("custody_tx_id", custodyTxID).
			Str("status", string(details.Status)).
			Msg("Signature not ready, waiting")

		select {
		case <-ctx.Done():
			return nil, &Error{
				Code:        CodeSignatureRequestFailed,
				Message:     "gave up waiting for custody signature",
				CustodyTxID: custodyTxID,
				cause:       ctx.Err(),
			}
		case <-ticker.C:
		}
	}
}
