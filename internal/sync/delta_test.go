package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stacklok/keysync/internal/packages"
)

func TestDelta(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remote     packages.DaysAndHours
		localDays  []packages.DayKey
		localHours []packages.HourKey
		want       packages.DaysAndHours
	}{
		{
			name:   "empty local archive",
			remote: packages.DaysAndHours{Days: []packages.DayKey{"2026-06-19", "2026-06-18"}, Hours: []packages.HourKey{2, 1}},
			want:   packages.DaysAndHours{Days: []packages.DayKey{"2026-06-18", "2026-06-19"}, Hours: []packages.HourKey{1, 2}},
		},
		{
			name:       "partial overlap",
			remote:     packages.DaysAndHours{Days: []packages.DayKey{"2026-06-17", "2026-06-18", "2026-06-19"}, Hours: []packages.HourKey{0, 1, 2}},
			localDays:  []packages.DayKey{"2026-06-18"},
			localHours: []packages.HourKey{0, 2},
			want:       packages.DaysAndHours{Days: []packages.DayKey{"2026-06-17", "2026-06-19"}, Hours: []packages.HourKey{1}},
		},
		{
			name:       "local keys not offered remotely are ignored",
			remote:     packages.DaysAndHours{Days: []packages.DayKey{"2026-06-19"}},
			localDays:  []packages.DayKey{"2026-06-01", "2026-06-02"},
			localHours: []packages.HourKey{5},
			want:       packages.DaysAndHours{Days: []packages.DayKey{"2026-06-19"}},
		},
		{
			name:   "duplicates collapse",
			remote: packages.DaysAndHours{Days: []packages.DayKey{"2026-06-19", "2026-06-19"}, Hours: []packages.HourKey{3, 3}},
			want:   packages.DaysAndHours{Days: []packages.DayKey{"2026-06-19"}, Hours: []packages.HourKey{3}},
		},
		{
			name: "nothing remote",
			want: packages.DaysAndHours{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Delta(tt.remote, tt.localDays, tt.localHours)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDelta_SelfIsEmpty(t *testing.T) {
	t.Parallel()

	remote := packages.DaysAndHours{
		Days:  []packages.DayKey{"2026-06-20", "2026-06-07", "2026-06-13"},
		Hours: []packages.HourKey{23, 0, 12},
	}
	assert.True(t, Delta(remote, remote.Days, remote.Hours).IsEmpty())
}

func TestDelta_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	remote := packages.DaysAndHours{Days: []packages.DayKey{"2026-06-19", "2026-06-18"}}
	_ = Delta(remote, []packages.DayKey{"2026-06-18"}, nil)
	assert.Equal(t, []packages.DayKey{"2026-06-19", "2026-06-18"}, remote.Days)
}
