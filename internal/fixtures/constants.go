package fixtures

import "time"

// Defaults applied by Normalize.
const (
	DefaultRows        = 200
	DefaultTeams       = 12
	DefaultDisciplines = 6
	DefaultTimeout     = 10 * time.Second
	DefaultSettle      = 15 * time.Second
)

// Generator bounds.
const (
	maxPoints      = 25
	maxPlace       = 8
	startClock     = 9 * 3600
	maxStepSeconds = 420
	settlePoll     = 250 * time.Millisecond
)

var teamPool = []string{
	"Rote Falken", "Blaue Haie", "Grüne Wölfe", "Gelbe Blitze", "Schwarze Adler",
	"Weiße Tiger", "Silberpfeile", "Goldene Löwen", "Sturmvögel", "Nordlichter",
	"Bergziegen", "Flussottern", "Waldgeister", "Feuerdrachen", "Eisbären", "Wüstenfüchse",
}

var disciplinePool = []string{
	"Sackhüpfen", "Tauziehen", "Eierlauf", "Staffellauf", "Weitsprung",
	"Dosenwerfen", "Sprint 100m", "Hochsprung", "Ballwurf", "Schubkarrenrennen",
}
