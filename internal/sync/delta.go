package sync

import (
	"slices"

	"github.com/stacklok/keysync/internal/packages"
)

// Delta returns the remote keys missing locally.
// Output is sorted ascending without duplicates. Delta(x, x.Days, x.Hours) is empty.
func Delta(remote packages.DaysAndHours, localDays []packages.DayKey, localHours []packages.HourKey) packages.DaysAndHours {
	return packages.DaysAndHours{
		Days:  missing(packages.SortDays(remote.Days), localDays),
		Hours: missing(packages.SortHours(remote.Hours), localHours),
	}
}

func missing[K comparable](remote, local []K) []K {
	have := make(map[K]struct{}, len(local))
	for _, k := range local {
		have[k] = struct{}{}
	}
	out := slices.DeleteFunc(remote, func(k K) bool {
		_, ok := have[k]
		return ok
	})
	if len(out) == 0 {
		return nil
	}
	return out
}
