package models

// SnapshotStatus reports how a page capture went.
type SnapshotStatus string

const (
	SnapshotSuccess SnapshotStatus = "success"
	SnapshotPartial SnapshotStatus = "partial"
	SnapshotFailed  SnapshotStatus = "failed"
)

// PageSnapshot is the raw capture of one page, produced by the static
// fetcher or the render engine and consumed by the extraction stages.
// Snapshots are never shared across requests.
type PageSnapshot struct {
	// URL is the originating request URL.
	URL string

	// HTML is the raw document. Empty when Status is SnapshotFailed.
	HTML string

	// Status records whether the capture fully succeeded.
	Status SnapshotStatus

	// StatusCode is the HTTP status observed, when known.
	StatusCode int

	// Issues are the non-fatal problems raised while producing the snapshot.
	Issues []ErrorRecord
}

// RenderResult is the outcome of a browser render plus interactive crawl.
type RenderResult struct {
	Snapshot     PageSnapshot
	Interactions Interactions
}
