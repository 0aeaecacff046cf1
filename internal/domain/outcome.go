package domain

import (
	"encoding/json"
	"time"
)

// OutcomeKind enumerates every classified mining response. Responses are
// decoded into an Outcome exactly once, at the gateway boundary.
type OutcomeKind string

const (
	OutcomeSuccess           OutcomeKind = "success"
	OutcomeTokenTaken        OutcomeKind = "token_taken"
	OutcomeChallengeRequired OutcomeKind = "challenge_required"
	OutcomeChallengeFailed   OutcomeKind = "challenge_failed"
	OutcomeChallengeUsed     OutcomeKind = "challenge_used"
	OutcomeRateLimited       OutcomeKind = "rate_limited"
	OutcomeServerError       OutcomeKind = "server_error"
	OutcomeUnknown           OutcomeKind = "unknown"
)

// Outcome is the normalized result of one inscription or challenge-answer
// round trip. Only the fields relevant to Kind are populated; Balance and
// Trust stay nil when the response omitted them so cached values survive.
type Outcome struct {
	Kind       OutcomeKind
	TokenID    int
	TakenBy    string
	Challenge  *Challenge
	RetryAfter time.Duration
	Hash       string
	Earned     int64
	Balance    *int64
	Trust      *int
	NFTHit     bool
	Message    string
	Raw        json.RawMessage
}

// BalanceInfo is the account standing returned by the balance endpoint.
type BalanceInfo struct {
	TrustScore int
	CWBalance  int64
	CWStaked   int64
}
