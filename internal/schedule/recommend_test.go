package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRank_Scores(t *testing.T) {
	tests := []struct {
		name   string
		slot   Slot
		booked []Interval
		score  int
		reason string
	}{
		{"morning band", Slot{tod("09:30"), 60}, nil, 70, "preferred morning time"},
		{"midday band", Slot{tod("14:00"), 60}, nil, 70, "preferred midday time"},
		{"evening band", Slot{tod("18:30"), 60}, nil, 70, "preferred evening time"},
		{"late evening", Slot{tod("20:00"), 60}, nil, 60, "late evening"},
		{"plain slot", Slot{tod("12:00"), 60}, nil, 50, "available"},
		{"too early", Slot{tod("07:00"), 60}, nil, 20, "outside regular hours"},
		{"runs past ten", Slot{tod("21:30"), 60}, nil, 30, "late evening, outside regular hours"},
		{"after a booking", Slot{tod("12:00"), 60}, []Interval{{tod("11:00"), tod("12:00")}}, 65, "adjacent to existing session"},
		{"before a booking", Slot{tod("12:00"), 60}, []Interval{{tod("13:00"), tod("14:00")}}, 65, "adjacent to existing session"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranked := Rank([]Slot{tt.slot}, tt.booked)
			require.Len(t, ranked, 1)
			assert.Equal(t, tt.score, ranked[0].Score)
			assert.Equal(t, tt.reason, ranked[0].Reason)
		})
	}
}

func TestRank_OrderAndNoFiltering(t *testing.T) {
	slots := []Slot{
		{tod("07:00"), 60},
		{tod("12:00"), 60},
		{tod("10:00"), 60},
		{tod("09:00"), 60},
		{tod("13:00"), 60},
	}
	booked := []Interval{{tod("14:00"), tod("15:00")}}

	ranked := Rank(slots, booked)
	require.Len(t, ranked, len(slots))

	order := make([]string, 0, len(ranked))
	for _, r := range ranked {
		order = append(order, r.Time.String())
	}
	// 09:00 and 10:00 tie on the morning bonus; earlier wins.
	assert.Equal(t, []string{"09:00", "10:00", "13:00", "12:00", "07:00"}, order)
}
