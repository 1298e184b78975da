// Package api runs the travel-warnings pipeline: fetch every record from the
// collector, normalize it through the lookup tables and persist the snapshot.
package api

// ErrorCode defines error types for pipeline phases
type ErrorCode string

const (
	// ErrScrape wraps any failure while fetching records
	ErrScrape ErrorCode = "ScrapeError"
	// ErrTransform wraps any failure while normalizing records
	ErrTransform ErrorCode = "TransformError"
	// ErrWrite wraps any failure while persisting the snapshot
	ErrWrite ErrorCode = "WriteError"
)

func (c ErrorCode) ErrorCode() string {
	return string(c)
}
