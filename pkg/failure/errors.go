package failure

import "errors"

type Severity int

// orchestrator control flow
const (
	SeverityFatal Severity = iota
	SeverityRecoverable
)

type ClassifiedError interface {
	error
	Severity() Severity
}

// partnerLinked is implemented by errors whose cause is the external
// partner: network failure, non-200 status, undecodable payload, or a
// batch where every record failed to parse. Only these errors are
// eligible for stale-fallback serving.
type partnerLinked interface {
	PartnerUnavailable() bool
}

// IsPartnerUnavailable reports whether err (or anything it wraps) is
// causally linked to the upstream partner being unavailable.
func IsPartnerUnavailable(err error) bool {
	var pl partnerLinked
	if errors.As(err, &pl) {
		return pl.PartnerUnavailable()
	}
	return false
}
