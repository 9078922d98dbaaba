package types

// IngestPath is the server endpoint agents POST snapshot batches to.
const IngestPath = "/ingest/v1/snapshots"

// SnapshotBatch is the body of a POST to IngestPath.
type SnapshotBatch struct {
	Snapshots []ScoreSnapshot `json:"snapshots"`
}

// IngestResponse acknowledges a SnapshotBatch.
type IngestResponse struct {
	Accepted int    `json:"accepted"`
	Message  string `json:"message,omitempty"`
}
