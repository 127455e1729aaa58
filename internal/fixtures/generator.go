package fixtures

import (
	"fmt"
	"math/rand/v2"

	"github.com/okian/podium/internal/domain/results"
)

// Normalize fills zero fields of cfg with defaults and clamps the pools
// to the available names.
func Normalize(cfg Config) Config {
	if cfg.Rows <= 0 {
		cfg.Rows = DefaultRows
	}
	if cfg.Teams <= 0 {
		cfg.Teams = DefaultTeams
	}
	if cfg.Teams > len(teamPool) {
		cfg.Teams = len(teamPool)
	}
	if cfg.Disciplines <= 0 {
		cfg.Disciplines = DefaultDisciplines
	}
	if cfg.Disciplines > len(disciplinePool) {
		cfg.Disciplines = len(disciplinePool)
	}
	if cfg.Malformed < 0 {
		cfg.Malformed = 0
	}
	if cfg.Malformed > 1 {
		cfg.Malformed = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Settle <= 0 {
		cfg.Settle = DefaultSettle
	}
	return cfg
}

// Generate builds cfg.Rows raw records. The same Config always yields the
// same rows. Clock times increase from 09:00 and wrap at midnight. The first row
// is always well formed so the document passes structural validation.
func Generate(cfg Config) ([]results.RawRecord, int) {
	cfg = Normalize(cfg)
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	keys := keySet(cfg.English)

	rows := make([]results.RawRecord, 0, cfg.Rows)
	malformed := 0
	clock := startClock
	for i := 0; i < cfg.Rows; i++ {
		clock += 1 + rng.IntN(maxStepSeconds)
		row := results.RawRecord{
			keys[results.FieldTeam]:       teamPool[rng.IntN(cfg.Teams)],
			keys[results.FieldDiscipline]: disciplinePool[rng.IntN(cfg.Disciplines)],
			keys[results.FieldPoints]:     rng.IntN(maxPoints + 1),
			keys[results.FieldPlace]:      1 + rng.IntN(maxPlace),
			keys[results.FieldTime]:       formatClock(clock%86400, rng.IntN(2) == 0),
		}
		if i > 0 && rng.Float64() < cfg.Malformed {
			degrade(rng, row, keys)
			malformed++
		}
		rows = append(rows, row)
	}
	return rows, malformed
}

func keySet(english bool) [5]string {
	var keys [5]string
	for f := results.FieldTeam; f <= results.FieldTime; f++ {
		aliases := f.Aliases()
		keys[f] = aliases[0]
		if english && len(aliases) > 1 {
			keys[f] = aliases[1]
		}
	}
	return keys
}

// degrade replaces one value of row with something the transform has to
// tolerate.
func degrade(rng *rand.Rand, row results.RawRecord, keys [5]string) {
	switch rng.IntN(6) {
	case 0:
		row[keys[results.FieldPoints]] = fmt.Sprintf("%dabc", rng.IntN(maxPoints+1))
	case 1:
		row[keys[results.FieldPoints]] = "n/a"
	case 2:
		row[keys[results.FieldPlace]] = ""
	case 3:
		row[keys[results.FieldTime]] = "gleich"
	case 4:
		row[keys[results.FieldTeam]] = ""
	default:
		delete(row, keys[results.FieldDiscipline])
	}
}

func formatClock(secs int, withSeconds bool) string {
	h, m, s := secs/3600, secs/60%60, secs%60
	if withSeconds {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}
