// Package results turns a loosely typed list of competition rows into the
// leaderboard, discipline and recent-results views shown on the dashboard.
//
// The transform is pure: it never mutates its input, holds no package
// state and can be called from any number of goroutines.
package results

// RawRecord is one decoded input row. Keys are matched case-insensitively
// through the alias table in fields.go.
type RawRecord = map[string]any

// TeamAggregate is a team's standing on the leaderboard.
type TeamAggregate struct {
	Name        string  `json:"name"`
	TotalPoints int     `json:"totalPoints"`
	Events      int     `json:"events"`
	Places      []int   `json:"places"`
	AvgPlace    float64 `json:"avgPlace"`
	Rank        int     `json:"rank"`
}

// DisciplineSummary describes one discipline across all teams.
// AvgPoints carries one decimal, e.g. "15.0".
type DisciplineSummary struct {
	Name         string `json:"name"`
	Participants int    `json:"participants"`
	AvgPoints    string `json:"avgPoints"`
	TotalEvents  int    `json:"totalEvents"`
}

// RecentResult is a single timestamped row for the live feed.
type RecentResult struct {
	Team       string `json:"team"`
	Discipline string `json:"discipline"`
	Points     int    `json:"points"`
	Place      int    `json:"place"`
	Time       string `json:"time"`
}

// Snapshot is the complete derived view produced by one aggregation run.
// Error is set only when the input failed structural validation, in which
// case every aggregate is empty.
type Snapshot struct {
	Teams             []string            `json:"teams"`
	Disciplines       []DisciplineSummary `json:"disciplines"`
	TotalParticipants int                 `json:"totalParticipants"`
	TotalEvents       int                 `json:"totalEvents"`
	Leaderboard       []TeamAggregate     `json:"leaderboard"`
	RecentResults     []RecentResult      `json:"recentResults"`
	Error             string              `json:"error,omitempty"`
}

// Empty returns a zeroed snapshot whose slices encode as [] rather than null.
func Empty() Snapshot {
	return Snapshot{
		Teams:         []string{},
		Disciplines:   []DisciplineSummary{},
		Leaderboard:   []TeamAggregate{},
		RecentResults: []RecentResult{},
	}
}

// Team returns the leaderboard entry for name (exact match).
func (s *Snapshot) Team(name string) (TeamAggregate, bool) {
	for _, t := range s.Leaderboard {
		if t.Name == name {
			return t, true
		}
	}
	return TeamAggregate{}, false
}

// TotalDisciplines is the number of distinct disciplines.
func (s *Snapshot) TotalDisciplines() int {
	return len(s.Disciplines)
}

// Stats are the headline counters of a snapshot.
type Stats struct {
	TotalParticipants int `json:"totalParticipants"`
	TotalEvents       int `json:"totalEvents"`
	TotalDisciplines  int `json:"totalDisciplines"`
}

// Stats returns the headline counters.
func (s *Snapshot) Stats() Stats {
	return Stats{
		TotalParticipants: s.TotalParticipants,
		TotalEvents:       s.TotalEvents,
		TotalDisciplines:  s.TotalDisciplines(),
	}
}
