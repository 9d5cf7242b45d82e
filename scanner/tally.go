package scanner

import (
	"fmt"
	"strings"
)

// TallyPolicy decides how repeated nominations by one nominator combine
type TallyPolicy string

const (
	// TallyCumulative sums the pixels of every nomination
	TallyCumulative TallyPolicy = "cumulative"
	// TallyLatest keeps the pixels of the most recent nomination only
	TallyLatest TallyPolicy = "latest"
)

// ParseTallyPolicy parses a policy name, case insensitive
func ParseTallyPolicy(s string) (TallyPolicy, error) {
	switch p := TallyPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case TallyCumulative, TallyLatest:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTallyPolicy, s)
	}
}

// NominatorTally is the combined activity of one nominator in the window
type NominatorTally struct {
	Nominator   string
	Nominations int
	Pixels      int64
}

// Tally aggregates events per nominator, in order of first appearance
func Tally(events []NominationEvent, policy TallyPolicy) []NominatorTally {
	pos := make(map[string]int)
	var tallies []NominatorTally
	for _, ev := range events {
		i, ok := pos[ev.Nominator]
		if !ok {
			i = len(tallies)
			pos[ev.Nominator] = i
			tallies = append(tallies, NominatorTally{Nominator: ev.Nominator})
		}

		t := &tallies[i]
		t.Nominations++
		if policy == TallyLatest {
			t.Pixels = ev.Pixels
		} else {
			t.Pixels += ev.Pixels
		}
	}
	return tallies
}
