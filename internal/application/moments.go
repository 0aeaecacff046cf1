package application

import (
	"context"
	"fmt"
	"time"

	"github.com/bnema/clawfarm/internal/domain"
	"github.com/bnema/clawfarm/internal/ports"
)

// MomentConfig bounds how often and how many times an account may post.
type MomentConfig struct {
	MaxPosts     int
	Cooldown     time.Duration
	TrustPerPost int
}

// MomentReceipt describes a single successful post.
type MomentReceipt struct {
	Content     string
	TrustEarned int
	Remaining   int
}

// MomentScheduler tracks per-account posting quota and cooldown. It is not
// safe for concurrent use; each worker owns one scheduler.
type MomentScheduler struct {
	gateway ports.Gateway
	clock   ports.Clock
	cfg     MomentConfig

	posted   int
	lastPost time.Time
}

func NewMomentScheduler(gateway ports.Gateway, clock ports.Clock, cfg MomentConfig) *MomentScheduler {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &MomentScheduler{
		gateway: gateway,
		clock:   clock,
		cfg:     cfg,
	}
}

// Restore seeds the scheduler from a persisted snapshot. Counts above the
// configured maximum are clamped so a config change never unlocks extra posts.
func (m *MomentScheduler) Restore(state domain.MomentState) {
	m.posted = state.Posted
	if m.posted > m.cfg.MaxPosts {
		m.posted = m.cfg.MaxPosts
	}
	m.lastPost = state.LastPost
}

func (m *MomentScheduler) State() domain.MomentState {
	return domain.MomentState{
		Posted:   m.posted,
		LastPost: m.lastPost,
	}
}

func (m *MomentScheduler) Posted() int {
	return m.posted
}

func (m *MomentScheduler) Remaining() int {
	remaining := m.cfg.MaxPosts - m.posted
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (m *MomentScheduler) LastPost() time.Time {
	return m.lastPost
}

// CanPost reports whether a post is currently allowed and, when it is not,
// which gate is closed: "quota" or "cooldown".
func (m *MomentScheduler) CanPost() (bool, string) {
	if m.posted >= m.cfg.MaxPosts {
		return false, "quota"
	}
	if !m.lastPost.IsZero() && m.clock.Now().Sub(m.lastPost) < m.cfg.Cooldown {
		return false, "cooldown"
	}
	return true, ""
}

// NextPostTime returns when the cooldown gate opens. The second return is
// false once the quota is exhausted, since no further post will ever happen.
func (m *MomentScheduler) NextPostTime() (time.Time, bool) {
	if m.posted >= m.cfg.MaxPosts {
		return time.Time{}, false
	}
	if m.lastPost.IsZero() {
		return m.clock.Now(), true
	}
	return m.lastPost.Add(m.cfg.Cooldown), true
}

// Post publishes one randomly generated moment. Quota and cooldown are
// re-checked here so callers may race through time between CanPost and Post.
// A gateway failure leaves the quota and cooldown state unchanged.
func (m *MomentScheduler) Post(ctx context.Context) (MomentReceipt, error) {
	if ok, reason := m.CanPost(); !ok {
		return MomentReceipt{}, fmt.Errorf("moment gate closed: %s", reason)
	}

	content := domain.RandomMomentContent()
	if err := m.gateway.PostMoment(ctx, content); err != nil {
		return MomentReceipt{}, fmt.Errorf("post moment: %w", err)
	}

	m.posted++
	m.lastPost = m.clock.Now()

	return MomentReceipt{
		Content:     content,
		TrustEarned: m.cfg.TrustPerPost,
		Remaining:   m.Remaining(),
	}, nil
}
