package application

import (
	"context"
	"sync"
	"time"

	"github.com/bnema/clawfarm/internal/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

type gatewayStep struct {
	outcome domain.Outcome
	err     error
}

// gatewayStub scripts inscription and challenge-answer responses from
// queues. Once a queue drains it reports an overwhelming success so run
// loops under test always terminate.
type gatewayStub struct {
	mu sync.Mutex

	inscribeQueue []gatewayStep
	answerQueue   []gatewayStep

	balance    domain.BalanceInfo
	balanceErr error

	postMomentFn func(context.Context, string) error

	inscribeCalls int
	answers       []string
	moments       []string
}

func intPtr(v int) *int { return &v }

func int64Ptr(v int64) *int64 { return &v }

func terminalSuccess() domain.Outcome {
	return domain.Outcome{
		Kind:  domain.OutcomeSuccess,
		Hash:  "0xfinal",
		Trust: intPtr(1_000_000),
	}
}

func (g *gatewayStub) Inscribe(_ context.Context, tokenID int) (domain.Outcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.inscribeCalls++
	if len(g.inscribeQueue) == 0 {
		out := terminalSuccess()
		out.TokenID = tokenID
		return out, nil
	}

	step := g.inscribeQueue[0]
	g.inscribeQueue = g.inscribeQueue[1:]
	step.outcome.TokenID = tokenID
	return step.outcome, step.err
}

func (g *gatewayStub) AnswerChallenge(_ context.Context, tokenID int, _, answer string) (domain.Outcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.answers = append(g.answers, answer)
	if len(g.answerQueue) == 0 {
		out := terminalSuccess()
		out.TokenID = tokenID
		return out, nil
	}

	step := g.answerQueue[0]
	g.answerQueue = g.answerQueue[1:]
	step.outcome.TokenID = tokenID
	return step.outcome, step.err
}

func (g *gatewayStub) Balance(context.Context) (domain.BalanceInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.balance, g.balanceErr
}

func (g *gatewayStub) PostMoment(ctx context.Context, content string) error {
	g.mu.Lock()
	fn := g.postMomentFn
	g.mu.Unlock()

	if fn != nil {
		if err := fn(ctx, content); err != nil {
			return err
		}
	}

	g.mu.Lock()
	g.moments = append(g.moments, content)
	g.mu.Unlock()
	return nil
}

// solverStub echoes a canned answer and records every prompt it saw.
type solverStub struct {
	mu      sync.Mutex
	answer  string
	prompts []string
}

func (s *solverStub) Solve(_ context.Context, prompt, _ string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prompts = append(s.prompts, prompt)
	if s.answer == "" {
		return "a quiet answer"
	}
	return s.answer
}
