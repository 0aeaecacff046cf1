package ports

import (
	"context"

	"github.com/bnema/clawfarm/internal/domain"
)

// Gateway is the per-account remote API surface. Implementations normalize
// every response into a domain.Outcome; a non-nil error means the transport
// itself failed and nothing could be classified.
type Gateway interface {
	Inscribe(ctx context.Context, tokenID int) (domain.Outcome, error)
	AnswerChallenge(ctx context.Context, tokenID int, challengeID, answer string) (domain.Outcome, error)
	Balance(ctx context.Context) (domain.BalanceInfo, error)
	PostMoment(ctx context.Context, content string) error
}
