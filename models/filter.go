package models

import "fmt"

// ReadFilter selects notifications by read state.
type ReadFilter string

const (
	FilterAll    ReadFilter = "all"
	FilterRead   ReadFilter = "read"
	FilterUnread ReadFilter = "unread"
)

// ParseReadFilter maps a query value to a ReadFilter. Empty means all.
func ParseReadFilter(raw string) (ReadFilter, error) {
	switch ReadFilter(raw) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterRead:
		return FilterRead, nil
	case FilterUnread:
		return FilterUnread, nil
	}
	return "", fmt.Errorf("invalid filter %q: want all, read or unread", raw)
}

// Matches reports whether a notification with the given read state passes the filter.
func (f ReadFilter) Matches(isRead bool) bool {
	switch f {
	case FilterRead:
		return isRead
	case FilterUnread:
		return !isRead
	default:
		return true
	}
}
