package provider

import (
	"context"
	"time"
)

// ProviderID identifies a specific review source (e.g., "phabricator", "bugzilla")
type ProviderID string

const (
	Phabricator ProviderID = "phabricator"
	Bugzilla    ProviderID = "bugzilla"
)

// ErrorKind classifies why a check could not produce a count.
type ErrorKind string

const (
	// KindNone means the check succeeded.
	KindNone ErrorKind = ""
	// KindNotConfigured means no credential is present for the provider.
	// Not an error: the provider simply contributes zero.
	KindNotConfigured ErrorKind = "not_configured"
	// KindTransportFailure covers network, DNS, TLS and non-2xx responses.
	KindTransportFailure ErrorKind = "transport_failure"
	// KindParseFailure means the response body had an unexpected shape.
	KindParseFailure ErrorKind = "parse_failure"
	// KindProviderError means the provider returned an explicit error payload.
	KindProviderError ErrorKind = "provider_reported_error"
)

// Check statuses
const (
	StatusSuccess = "success"
	StatusSkipped = "skipped"
	StatusError   = "error"
)

// CheckResult contains the outcome of a single provider check.
// Count is meaningful for "success" and "skipped", Err and Kind for "error".
type CheckResult struct {
	ProviderID ProviderID
	Status     string // "success", "skipped", "error"
	Kind       ErrorKind
	Err        error
	Count      int
	Timestamp  time.Time
}

// Provider defines the interface for external review sources
type Provider interface {
	// ID returns the unique identifier for this provider
	ID() ProviderID

	// Check retrieves the current pending-review count from the provider.
	// A missing credential yields a skipped result with count 0 and no
	// network call. Failures are reported in the result rather than as a
	// returned error, so one provider cannot abort a cycle.
	Check(ctx context.Context) CheckResult
}

// Success builds a successful result for id with the given count.
func Success(id ProviderID, count int) CheckResult {
	return CheckResult{ProviderID: id, Status: StatusSuccess, Count: count, Timestamp: time.Now()}
}

// Skipped builds a not-configured result for id.
func Skipped(id ProviderID) CheckResult {
	return CheckResult{ProviderID: id, Status: StatusSkipped, Kind: KindNotConfigured, Timestamp: time.Now()}
}

// Failed builds an error result for id.
func Failed(id ProviderID, kind ErrorKind, err error) CheckResult {
	return CheckResult{ProviderID: id, Status: StatusError, Kind: kind, Err: err, Timestamp: time.Now()}
}
