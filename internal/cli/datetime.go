package cli

import (
	"strings"
	"time"

	"github.com/sanLimbu/tasksync/internal"
)

// dueDateLayouts are tried in order on the lower-cased input, all in the local time zone.
var dueDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 3:04pm",
	"2006-01-02t3:04pm",
	"2006-01-02 15:04",
	"2006-01-02t15:04",
}

const dueDateFormat = "2006-01-02 3:04pm"

// ParseDueDate parses a due date given on the command line. RFC 3339 values keep their offset,
// the shorter forms are interpreted in loc.
func ParseDueDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}

	lower := strings.ToLower(s)

	for _, layout := range dueDateLayouts {
		if t, err := time.ParseInLocation(layout, lower, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "invalid due date %q, use YYYY-MM-DD [H:MMam|pm]", s)
}

func formatDueDate(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}

	return t.In(loc).Format(dueDateFormat)
}
