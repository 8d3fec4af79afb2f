// Package driven defines the driven ports the application core depends on.
package driven

import (
	"context"

	"github.com/dorylabs/dorycli/internal/domain/model"
)

// Gateway is the driven port for the dory backend API. Every method issues
// at most one HTTP request and returns either a typed result or exactly one
// member of the error taxonomy in errors.go.
type Gateway interface {
	// Login exchanges an externally obtained identity token for a backend
	// session, returning the bearer token and the signed-in user. It is the
	// only unauthenticated operation.
	Login(ctx context.Context, idToken string) (string, model.User, error)

	// CurrentUser validates the stored session and returns the profile it
	// belongs to.
	CurrentUser(ctx context.Context) (model.User, error)

	// SendMessage posts a chat message. chatID threads the message into an
	// existing conversation when non-empty; useRAG asks the backend to
	// ground the reply in previously ingested documents.
	SendMessage(ctx context.Context, message, chatID string, useRAG bool) (model.ChatReply, error)

	// IngestText submits raw text for ingestion. filename is optional.
	IngestText(ctx context.Context, content, filename string) (model.IngestResult, error)

	// IngestPDF uploads a PDF as a multipart body. Processing is
	// asynchronous; poll GetDocument with the returned document id.
	IngestPDF(ctx context.Context, pdf []byte, filename string) (model.UploadReceipt, error)

	// GetDocument fetches the current record of an ingested document.
	GetDocument(ctx context.Context, documentID string) (model.Document, error)

	// DetectedEvents lists the calendar-like events extracted from a
	// processed document.
	DetectedEvents(ctx context.Context, documentID string) ([]model.DetectedEvent, error)
}
