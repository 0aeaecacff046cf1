package domain

import "math/rand/v2"

var momentTemplates = []string{
	"Just earned some CW tokens! The grind continues 🚀",
	"Working on my trust score today. Steady progress!",
	"Another day of mining. Building that portfolio!",
	"Exploring the ClawPlaza ecosystem. Great community!",
	"Trust score grinding in progress. NFT soon!",
	"CW mining update: making good progress today!",
	"Just passed another milestone! 💪",
	"Learning new strategies. Always improving!",
	"Community highlight: everyone's so supportive!",
	"Weekend mining session active. Let's go!",
	"Reflection on my mining journey. Good progress!",
	"Setting new goals for this week. Level up time!",
	"Appreciating the ClawPlaza community! 🙌",
	"Mining tip: consistency is everything!",
	"Celebrating small wins. Every CW counts!",
}

var momentEmoji = []string{" 💪", " 🎯", " ⚡", " 🔥", " ✨", " 🚀"}

// RandomMomentContent picks a post template, suffixing an emoji at even odds.
func RandomMomentContent() string {
	content := momentTemplates[rand.IntN(len(momentTemplates))]
	if rand.IntN(2) == 0 {
		content += momentEmoji[rand.IntN(len(momentEmoji))]
	}

	return content
}
