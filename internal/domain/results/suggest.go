package results

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
)

// SuggestDistance is the largest edit distance ClosestTeam accepts.
const SuggestDistance = 3

// ClosestTeam returns the leaderboard team whose name is nearest to name
// by case-folded Levenshtein distance. Candidates farther than maxDistance
// edits, or farther than half the query length, are not suggested. Ties
// go to the better ranked team.
func (s *Snapshot) ClosestTeam(name string, maxDistance int) (string, bool) {
	if name == "" || maxDistance < 0 {
		return "", false
	}
	fold := cases.Fold()
	query := fold.String(name)
	limit := min(maxDistance, utf8.RuneCountInString(query)/2)

	best, bestDist := "", limit+1
	for _, t := range s.Leaderboard {
		d := levenshtein.ComputeDistance(query, fold.String(t.Name))
		if d < bestDist {
			best, bestDist = t.Name, d
		}
	}
	return best, best != ""
}
