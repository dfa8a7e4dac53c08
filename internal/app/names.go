package app

import "math/rand"

var (
	nameAdjectives = []string{"Happy", "Shiny", "Brave", "Clever", "Swift", "Calm", "Mighty", "Witty", "Sly", "Wild"}
	nameNouns      = []string{"Panda", "Tiger", "Eagle", "Dolphin", "Wolf", "Otter", "Falcon", "Bear", "Fox", "Lion"}
)

// FriendlyName generates a guest display name that always passes NormalizeName.
func FriendlyName(rng *rand.Rand) string {
	adj := nameAdjectives[rng.Intn(len(nameAdjectives))]
	noun := nameNouns[rng.Intn(len(nameNouns))]
	return adj + " " + noun
}
