package constants

// SnapshotKind is the canonical kind for rows in calculation_snapshot.
type SnapshotKind string

// Stable values (store these exact strings in DB).
const (
	SnapshotValuation     SnapshotKind = "VALUATION"
	SnapshotApportionment SnapshotKind = "APPORTIONMENT"
	SnapshotProration     SnapshotKind = "PRORATION"
	SnapshotExtraction    SnapshotKind = "EXTRACTION"
)

// AnonymousUser is recorded when no user id is supplied.
const AnonymousUser = "anonymous"
