package results

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// RecentLimit caps the recent-results feed.
const RecentLimit = 10

// Structural error messages carried in Snapshot.Error.
const (
	MsgNotSequence   = "input is not a sequence"
	msgMissingFields = "missing fields: "
)

// ErrStructural marks input the transform refuses to aggregate.
var ErrStructural = errors.New("structural input error")

type teamAcc struct {
	name   string
	points int
	events int
	places []int
}

type disciplineAcc struct {
	name         string
	participants map[string]struct{}
	points       int
	events       int
}

// Aggregate derives a Snapshot from a decoded record sequence.
//
// It never fails: structural problems (input is not a sequence, or the
// first record lacks one of the five logical fields) are reported through
// Snapshot.Error with all aggregates zeroed, and unparseable numbers
// degrade to 0. Records without a team or discipline are left out of every
// aggregate but still count toward TotalEvents.
func Aggregate(input any) Snapshot {
	out := Empty()

	rows, ok := asSequence(input)
	if !ok {
		out.Error = MsgNotSequence
		return out
	}
	if len(rows) == 0 {
		return out
	}

	r := newResolver()
	if missing := r.missing(rows[0]); len(missing) > 0 {
		out.Error = msgMissingFields + strings.Join(missing, ", ")
		return out
	}

	var (
		teams       []*teamAcc
		teamIdx     = make(map[string]*teamAcc)
		disciplines []*disciplineAcc
		discIdx     = make(map[string]*disciplineAcc)
		recent      []RecentResult
	)

	for _, raw := range rows {
		rec, ok := asRecord(raw)
		if !ok {
			continue
		}
		row := r.resolve(rec)
		if row.team == "" || row.discipline == "" {
			continue
		}

		t, ok := teamIdx[row.team]
		if !ok {
			t = &teamAcc{name: row.team, places: []int{}}
			teamIdx[row.team] = t
			teams = append(teams, t)
		}
		t.points += row.points
		t.events++
		if row.place > 0 {
			t.places = append(t.places, row.place)
		}

		d, ok := discIdx[row.discipline]
		if !ok {
			d = &disciplineAcc{name: row.discipline, participants: make(map[string]struct{})}
			discIdx[row.discipline] = d
			disciplines = append(disciplines, d)
		}
		d.participants[row.team] = struct{}{}
		d.points += row.points
		d.events++

		recent = append(recent, RecentResult{
			Team:       row.team,
			Discipline: row.discipline,
			Points:     row.points,
			Place:      row.place,
			Time:       row.time,
		})
	}

	out.Leaderboard = leaderboard(teams)
	out.Disciplines = summarize(disciplines)
	out.RecentResults = latest(recent, RecentLimit)
	out.TotalParticipants = len(teams)
	out.TotalEvents = len(rows)
	for _, t := range teams {
		out.Teams = append(out.Teams, t.name)
	}
	return out
}

// AggregateJSON decodes data and aggregates it. Malformed JSON is reported
// the same way as any other structural problem.
func AggregateJSON(data []byte) Snapshot {
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		out := Empty()
		out.Error = fmt.Sprintf("invalid json: %v", err)
		return out
	}
	return Aggregate(v)
}

// Validate runs only the structural checks of Aggregate. The returned
// error wraps ErrStructural.
func Validate(input any) error {
	rows, ok := asSequence(input)
	if !ok {
		return fmt.Errorf("%w: %s", ErrStructural, MsgNotSequence)
	}
	if len(rows) == 0 {
		return nil
	}
	if missing := newResolver().missing(rows[0]); len(missing) > 0 {
		return fmt.Errorf("%w: %s%s", ErrStructural, msgMissingFields, strings.Join(missing, ", "))
	}
	return nil
}

// leaderboard orders teams by points, keeping first-seen order on ties,
// and numbers them 1..N without shared ranks.
func leaderboard(teams []*teamAcc) []TeamAggregate {
	out := make([]TeamAggregate, 0, len(teams))
	for _, t := range teams {
		avg := 0.0
		if len(t.places) > 0 {
			sum := 0
			for _, p := range t.places {
				sum += p
			}
			avg = float64(sum) / float64(len(t.places))
		}
		out = append(out, TeamAggregate{
			Name:        t.name,
			TotalPoints: t.points,
			Events:      t.events,
			Places:      t.places,
			AvgPlace:    avg,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalPoints > out[j].TotalPoints
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

func summarize(disciplines []*disciplineAcc) []DisciplineSummary {
	out := make([]DisciplineSummary, 0, len(disciplines))
	for _, d := range disciplines {
		out = append(out, DisciplineSummary{
			Name:         d.name,
			Participants: len(d.participants),
			AvgPoints:    formatTenths(d.points, d.events),
			TotalEvents:  d.events,
		})
	}
	return out
}

// latest keeps rows with a recognised clock time, newest first, higher
// points first within the same second.
func latest(rows []RecentResult, limit int) []RecentResult {
	type timed struct {
		RecentResult
		secs int
	}
	kept := make([]timed, 0, len(rows))
	for _, row := range rows {
		if secs, ok := ClockSeconds(row.Time); ok {
			kept = append(kept, timed{RecentResult: row, secs: secs})
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].secs != kept[j].secs {
			return kept[i].secs > kept[j].secs
		}
		return kept[i].Points > kept[j].Points
	})
	if len(kept) > limit {
		kept = kept[:limit]
	}
	out := make([]RecentResult, len(kept))
	for i, k := range kept {
		out[i] = k.RecentResult
	}
	return out
}

// asSequence accepts any slice or array except byte strings.
func asSequence(v any) ([]any, bool) {
	switch s := v.(type) {
	case nil:
		return nil, false
	case []any:
		return s, true
	case []map[string]any:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	case []byte, string:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
