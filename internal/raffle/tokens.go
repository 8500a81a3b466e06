package raffle

import "math/rand"

// safariAnimals is the fixed set of decorative participant tokens. The
// assignment is an independent draw per participant; duplicates across
// participants are fine.
var safariAnimals = []string{
	"🦁", "🐘", "🦒", "🦏", "🦓", "🐆", "🦬", "🦘", "🦊", "🦅", "🦍", "🦛",
	"🐪", "🦃", "🦜", "🐊", "🐅", "🐒", "🐧", "🐻", "🐺", "🐗", "🐿️",
	"🦔", "🦇", "🐉", "🐲", "🐍", "🦎", "🐢", "🐠", "🐡", "🐬", "🐳", "🐋",
	"🦈", "🐙", "🦀", "🦐", "🦑", "🐚", "🐌", "🐛", "🐜", "🐝", "🦋", "🐞",
}

// RandomAnimal returns a random token for a new participant.
func RandomAnimal() string {
	return safariAnimals[rand.Intn(len(safariAnimals))]
}
