package domain

import (
	"strings"
	"time"
)

// DigestHeader is the first line of every digest message.
const DigestHeader = "🌍 GA4 Analytics Report:\n"

// ReportRow is one (country, active users) pair from the analytics provider.
// ActiveUsers stays a string because that is how the provider returns it.
type ReportRow struct {
	Country     string
	ActiveUsers string
}

// Report holds the rows of one analytics fetch, in provider response order.
type Report struct {
	Rows      []ReportRow
	FetchedAt time.Time
}

// Digest renders the report as the chat message: the fixed header followed
// by one line per row, in row order. No dedup, no sorting, no size cap.
func (r Report) Digest() string {
	var b strings.Builder
	b.WriteString(DigestHeader)
	for _, row := range r.Rows {
		b.WriteString(row.Country)
		b.WriteString(": ")
		b.WriteString(row.ActiveUsers)
		b.WriteString(" users\n")
	}
	return b.String()
}
