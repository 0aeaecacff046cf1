package plaza

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bnema/clawfarm/internal/domain"
)

// serverErrorRetry is the fixed backoff hint attached to 5xx outcomes.
const serverErrorRetry = 60 * time.Second

type challengePayload struct {
	ID     string `json:"id"`
	Prompt string `json:"prompt"`
}

func (p *challengePayload) toDomain() *domain.Challenge {
	if p == nil {
		return nil
	}

	return &domain.Challenge{ID: p.ID, Prompt: p.Prompt}
}

type inscribeResponse struct {
	Hash       string            `json:"hash"`
	CWEarned   *int64            `json:"cw_earned"`
	CWBalance  *int64            `json:"cw_balance"`
	TrustScore *int              `json:"trust_score"`
	NFTHit     bool              `json:"nft_hit"`
	IDStatus   string            `json:"id_status"`
	TakenBy    string            `json:"taken_by"`
	Error      string            `json:"error"`
	Message    string            `json:"message"`
	RetryAfter int               `json:"retry_after"`
	Challenge  *challengePayload `json:"challenge"`
}

func decodeInscribe(status int, body []byte, tokenID int) domain.Outcome {
	if status >= 500 && status < 600 {
		return domain.Outcome{
			Kind:       domain.OutcomeServerError,
			TokenID:    tokenID,
			RetryAfter: serverErrorRetry,
			Message:    fmt.Sprintf("http %d", status),
		}
	}

	var resp inscribeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Outcome{
			Kind:    domain.OutcomeUnknown,
			TokenID: tokenID,
			Message: fmt.Sprintf("undecodable response body (http %d)", status),
			Raw:     json.RawMessage(body),
		}
	}

	switch {
	case resp.IDStatus == "taken":
		return domain.Outcome{
			Kind:    domain.OutcomeTokenTaken,
			TokenID: tokenID,
			TakenBy: resp.TakenBy,
		}

	case resp.Error == "CHALLENGE_REQUIRED":
		return domain.Outcome{
			Kind:      domain.OutcomeChallengeRequired,
			TokenID:   tokenID,
			Challenge: resp.Challenge.toDomain(),
		}

	case resp.Hash != "" || resp.CWEarned != nil:
		outcome := domain.Outcome{
			Kind:    domain.OutcomeSuccess,
			TokenID: tokenID,
			Hash:    resp.Hash,
			Balance: resp.CWBalance,
			Trust:   resp.TrustScore,
			NFTHit:  resp.NFTHit,
		}
		if resp.CWEarned != nil {
			outcome.Earned = *resp.CWEarned
		}
		return outcome

	case resp.Error == "RATE_LIMITED":
		retryAfter := time.Duration(resp.RetryAfter) * time.Second
		if retryAfter <= 0 {
			retryAfter = serverErrorRetry
		}
		return domain.Outcome{
			Kind:       domain.OutcomeRateLimited,
			TokenID:    tokenID,
			RetryAfter: retryAfter,
		}

	case resp.Error == "CHALLENGE_FAILED":
		outcome := domain.Outcome{
			Kind:    domain.OutcomeChallengeFailed,
			TokenID: tokenID,
			Message: resp.Message,
		}
		if next := resp.Challenge.toDomain(); next != nil && next.Valid() {
			outcome.Challenge = next
		}
		return outcome

	case resp.Error == "CHALLENGE_USED":
		return domain.Outcome{
			Kind:    domain.OutcomeChallengeUsed,
			TokenID: tokenID,
		}

	default:
		return domain.Outcome{
			Kind:    domain.OutcomeUnknown,
			TokenID: tokenID,
			Message: resp.Error,
			Raw:     json.RawMessage(body),
		}
	}
}
