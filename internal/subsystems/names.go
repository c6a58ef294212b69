package subsystems

import (
	"fmt"

	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
)

var firstNames = []string{
	"James", "Maria", "Wei", "Aisha", "Carlos", "Elena", "David", "Fatima",
	"Igor", "Keiko", "Liam", "Nadia", "Omar", "Priya", "Sofia", "Tomas",
	"Yusuf", "Zoe", "Andre", "Grace",
}

var lastNames = []string{
	"Anderson", "Brown", "Chen", "Diaz", "Evans", "Fischer", "Garcia",
	"Hansen", "Ivanov", "Johnson", "Kim", "Lopez", "Martin", "Nguyen",
	"Okafor", "Patel", "Rossi", "Silva", "Tanaka", "Williams",
}

// pickName draws a stable full name from the subsystem's stream.
func pickName(rng *sim.Rand) string {
	first := firstNames[rng.Uint64Below(uint64(len(firstNames)))]
	last := lastNames[rng.Uint64Below(uint64(len(lastNames)))]
	return fmt.Sprintf("%s %s", first, last)
}
