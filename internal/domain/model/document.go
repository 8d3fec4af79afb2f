package model

import "time"

// JobStatus is the processing state the backend reports for an ingested document.
type JobStatus string

const (
	JobStatusSubmitted  JobStatus = "submitted"
	JobStatusProcessing JobStatus = "processing"
	JobStatusReady      JobStatus = "ready"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status is final for the job.
func (s JobStatus) Terminal() bool {
	return s == JobStatusReady || s == JobStatusFailed
}

// Document is the backend's record of an ingested document.
type Document struct {
	ID         string
	UserID     string
	Filename   string
	FileURL    string
	FileType   string
	Content    string
	Status     JobStatus
	UploadedAt time.Time
}

// IngestResult is the outcome of a raw-text ingestion.
type IngestResult struct {
	DocumentID   string
	ChunksStored int
}

// UploadReceipt is the immediate response to a PDF upload. Processing
// continues asynchronously; DocumentID is the handle for status polling.
type UploadReceipt struct {
	DocumentID string
	Message    string
	FileURL    string
}
