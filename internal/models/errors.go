package models

import "errors"

// Error taxonomy shared across the upload and access components.
// Handlers map these onto HTTP statuses; everything else wraps them
// with %w so errors.Is keeps working through the layers.
var (
	// ErrInvalidInput covers malformed hashes, disallowed extensions
	// and empty payloads. The client must correct and resubmit.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownUpload means no chunk has ever been recorded for the hash.
	ErrUnknownUpload = errors.New("unknown upload")

	// ErrIncompleteUpload means some chunks are still missing; the client
	// should send the rest and retry the merge.
	ErrIncompleteUpload = errors.New("incomplete upload")

	// ErrMergeFailed is an I/O fault during reassembly.
	ErrMergeFailed = errors.New("merge failed")

	// ErrAccessDenied is the single caller-facing outcome for every
	// refused viewing-key request. Unknown collections and forbidden
	// collections look identical on purpose.
	ErrAccessDenied = errors.New("access denied")

	// ErrVerification is a ledger or network fault during ownership
	// verification. The issuer treats it as a denial, never as a grant.
	ErrVerification = errors.New("verification error")
)
