package repository

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// TaskFilter describes a task search. ProjectID is required; every other
// field narrows the result set only when set. Empty optional fields
// contribute nothing to the predicate.
type TaskFilter struct {
	ProjectID  int
	Title      string
	Statuses   []string
	Priorities []string
	StartDate  *time.Time
	EndDate    *time.Time

	// Tags is parsed off the request but not applied to the predicate.
	// Tag filtering is not wired up yet.
	Tags []string
}

// CacheKey renders the filter as a canonical query string. Equal filters
// always produce the same key, so it doubles as the list cache key. Values
// are escaped so a title or status can never forge another filter's key.
func (f TaskFilter) CacheKey() string {
	var b strings.Builder
	fmt.Fprintf(&b, "projectId=%d", f.ProjectID)
	if f.Title != "" {
		fmt.Fprintf(&b, "&taskName=%s", url.QueryEscape(f.Title))
	}
	if len(f.Statuses) > 0 {
		fmt.Fprintf(&b, "&statuses=%s", escapeJoin(f.Statuses))
	}
	if len(f.Priorities) > 0 {
		fmt.Fprintf(&b, "&priorities=%s", escapeJoin(f.Priorities))
	}
	if f.StartDate != nil {
		fmt.Fprintf(&b, "&startDate=%s", url.QueryEscape(f.StartDate.UTC().Format(time.RFC3339)))
	}
	if f.EndDate != nil {
		fmt.Fprintf(&b, "&endDate=%s", url.QueryEscape(f.EndDate.UTC().Format(time.RFC3339)))
	}
	return b.String()
}

// escapeJoin escapes each element before joining, so element commas stay
// distinguishable from the separator.
func escapeJoin(values []string) string {
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = url.QueryEscape(v)
	}
	return strings.Join(escaped, ",")
}

// BuildWhere renders the filter as a WHERE clause with positional args.
// Title matching is case-insensitive substring; the date bounds are
// inclusive on due_date.
func (f TaskFilter) BuildWhere() (string, []any) {
	var (
		conds []string
		args  []any
	)

	args = append(args, f.ProjectID)
	conds = append(conds, fmt.Sprintf("project_id = $%d", len(args)))

	if f.Title != "" {
		args = append(args, f.Title)
		conds = append(conds, fmt.Sprintf("title ILIKE '%%' || $%d || '%%'", len(args)))
	}

	if len(f.Statuses) > 0 {
		args = append(args, f.Statuses)
		conds = append(conds, fmt.Sprintf("status = ANY($%d)", len(args)))
	}

	if len(f.Priorities) > 0 {
		args = append(args, f.Priorities)
		conds = append(conds, fmt.Sprintf("priority = ANY($%d)", len(args)))
	}

	if f.StartDate != nil {
		args = append(args, *f.StartDate)
		conds = append(conds, fmt.Sprintf("due_date >= $%d", len(args)))
	}

	if f.EndDate != nil {
		args = append(args, *f.EndDate)
		conds = append(conds, fmt.Sprintf("due_date <= $%d", len(args)))
	}

	return "WHERE " + strings.Join(conds, " AND "), args
}
