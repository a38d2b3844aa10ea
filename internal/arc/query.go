package arc

import "time"

// SortKey selects the listing sort column.
type SortKey string

const (
	SortByID   SortKey = "id"
	SortBySize SortKey = "size"
)

// ParseSortKey returns SortBySize for "size" and SortByID for anything else.
func ParseSortKey(s string) SortKey {
	if s == string(SortBySize) {
		return SortBySize
	}
	return SortByID
}

// SortOrder is the listing direction.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// ParseSortOrder returns OrderDesc for "desc" and OrderAsc for anything else.
func ParseSortOrder(s string) SortOrder {
	if s == string(OrderDesc) {
		return OrderDesc
	}
	return OrderAsc
}

// MatchMode controls how author and filename filters are compared.
type MatchMode string

const (
	MatchSubstring MatchMode = "substring"
	MatchExact     MatchMode = "exact"
)

// ParseMatchMode returns MatchExact for "exact" and MatchSubstring for anything else.
func ParseMatchMode(s string) MatchMode {
	if s == string(MatchExact) {
		return MatchExact
	}
	return MatchSubstring
}

// ListQuery filters and orders the Current files listing.
// Empty Author or Filename values do not filter.
type ListQuery struct {
	Order    SortOrder
	SortKey  SortKey
	Author   string
	Filename string
	Match    MatchMode
}

// HistoryFilter names a window over the change log.
type HistoryFilter string

const (
	HistoryLastHour  HistoryFilter = "lastHour"
	HistoryToday     HistoryFilter = "today"
	HistoryYesterday HistoryFilter = "yesterday"
	HistoryLast7Days HistoryFilter = "last7Days"
	HistoryAllTime   HistoryFilter = "allTime"
	HistoryLast10    HistoryFilter = "last10"
)

// defaultHistoryLimit is the number of entries returned by HistoryLast10.
const defaultHistoryLimit = 10

// ParseHistoryFilter maps unknown or empty values to HistoryLast10.
func ParseHistoryFilter(s string) HistoryFilter {
	switch f := HistoryFilter(s); f {
	case HistoryLastHour, HistoryToday, HistoryYesterday, HistoryLast7Days, HistoryAllTime:
		return f
	default:
		return HistoryLast10
	}
}

// HistoryQuery is the resolved form of a HistoryFilter.
// Zero Since/Until are unbounded; Limit 0 means no limit.
// Results are always newest first.
type HistoryQuery struct {
	Since time.Time
	Until time.Time
	Limit int
}

// Resolve turns the filter into concrete bounds relative to now.
// Calendar days are taken in now's location.
func (f HistoryFilter) Resolve(now time.Time) HistoryQuery {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch f {
	case HistoryLastHour:
		return HistoryQuery{Since: now.Add(-time.Hour)}
	case HistoryToday:
		return HistoryQuery{Since: startOfDay, Until: startOfDay.AddDate(0, 0, 1)}
	case HistoryYesterday:
		return HistoryQuery{Since: startOfDay.AddDate(0, 0, -1), Until: startOfDay}
	case HistoryLast7Days:
		return HistoryQuery{Since: now.AddDate(0, 0, -7)}
	case HistoryAllTime:
		return HistoryQuery{}
	default:
		return HistoryQuery{Limit: defaultHistoryLimit}
	}
}
