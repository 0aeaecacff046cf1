package ports

import "context"

// ChallengeSolver produces an answer for a challenge prompt in the given
// writing style. Implementations must always return usable text, falling
// back internally when generation fails.
type ChallengeSolver interface {
	Solve(ctx context.Context, prompt, style string) string
}
