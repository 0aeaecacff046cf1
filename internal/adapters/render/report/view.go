package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/clawfarm/internal/domain"
)

func renderView(snap domain.FleetSnapshot, s styles) string {
	lines := []string{
		s.title.Render("Clawfarm Fleet Report"),
		s.header.Render(fmt.Sprintf("run %s | accounts: %d | updated %s",
			snap.RunID, snap.Summary.TotalAccounts, snap.LastUpdate.Format("15:04:05"))),
	}

	if len(snap.Accounts) == 0 {
		lines = append(lines, s.empty.Render("No account stats available."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, account := range snap.Accounts {
		lines = append(lines, s.section.Render(renderAccount(account, s)))
	}

	lines = append(lines, s.section.Render(renderSummary(snap.Summary, s)))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderAccount(account domain.StatsSnapshot, s styles) string {
	parts := []string{
		s.account.Render(fmt.Sprintf("%s (%s)", account.ID, statusLabel(account.Status))),
		trustLine(account, s),
		s.detail.Render(fmt.Sprintf("cw: %d | staked: %d%s | mines: %d | taken: %d",
			account.CWBalance, account.CWStaked, stakeFlag(account, s), account.TotalMines, account.TokensTaken)),
		s.detail.Render(fmt.Sprintf("moments: %d posted, %d left | challenges: %d passed / %d failed | runtime %s",
			account.MomentsPosted, account.MomentsRemaining,
			account.ChallengesPassed, account.ChallengesFailed, account.Runtime)),
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func trustLine(account domain.StatsSnapshot, s styles) string {
	label := s.statKey.Render("trust:")
	bar := renderProgressBar(trustPercent(account), 24, s)

	var meta string
	if account.TargetReached {
		meta = s.success.Render(fmt.Sprintf("%d (target reached)", account.TrustScore))
	} else {
		meta = s.statMeta.Render(fmt.Sprintf("%d (%d to go)", account.TrustScore, account.TrustNeeded))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, label, " ", bar, " ", meta)
}

// trustPercent derives progress toward the trust target from the snapshot's
// score and remaining-trust fields.
func trustPercent(account domain.StatsSnapshot) float64 {
	if account.TargetReached {
		return 100
	}

	target := account.TrustScore + account.TrustNeeded
	if target <= 0 {
		return 0
	}
	return float64(account.TrustScore) / float64(target) * 100
}

func stakeFlag(account domain.StatsSnapshot, s styles) string {
	if account.StakeOK {
		return ""
	}
	return " " + s.warning.Render("[stake low]")
}

func renderSummary(summary domain.FleetSummary, s styles) string {
	parts := []string{
		s.title.Render("Totals"),
		s.detail.Render(fmt.Sprintf("completed: %d/%d | farming: %d | avg trust: %.2f",
			summary.Completed, summary.TotalAccounts, summary.Running, summary.AvgTrust)),
		s.detail.Render(fmt.Sprintf("cw: %d | staked: %d | mines: %d | moments: %d | challenges: %d passed / %d failed",
			summary.TotalCW, summary.TotalStaked, summary.TotalMines,
			summary.TotalMoments, summary.TotalChallengesPassed, summary.TotalChallengesFailed)),
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func statusLabel(status domain.WorkerStatus) string {
	if status == "" {
		return "unknown"
	}
	return string(status)
}

func renderProgressBar(percent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * clampPercent(percent) / 100))
	if filled > width {
		filled = width
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
