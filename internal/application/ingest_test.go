package application_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dorylabs/dorycli/internal/application"
	"github.com/dorylabs/dorycli/internal/domain/model"
	"github.com/dorylabs/dorycli/internal/domain/port/driven"
)

const testInterval = 2 * time.Millisecond

// awaitTerminal drains the update stream until a terminal phase arrives.
func awaitTerminal(t *testing.T, svc *application.IngestService) application.IngestState {
	t.Helper()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case state := <-svc.Updates():
			if state.Phase.Terminal() {
				return state
			}
		case <-deadline:
			t.Fatalf("no terminal state observed, current: %+v", svc.State())
		}
	}
}

func uploadOK(docID string) func(context.Context, []byte, string) (model.UploadReceipt, error) {
	return func(_ context.Context, _ []byte, _ string) (model.UploadReceipt, error) {
		return model.UploadReceipt{DocumentID: docID, Message: "processing started"}, nil
	}
}

func TestIngest_CompletesWhenDocumentReady(t *testing.T) {
	var polls atomic.Int64
	gw := &mockGateway{
		ingestPDF: uploadOK("doc-1"),
		getDocument: func(_ context.Context, documentID string) (model.Document, error) {
			assert.Equal(t, "doc-1", documentID)
			if polls.Add(1) < 4 {
				return model.Document{ID: documentID, Status: model.JobStatusProcessing}, nil
			}
			return model.Document{ID: documentID, Status: model.JobStatusReady}, nil
		},
	}

	svc := application.NewIngestService(gw, testInterval, 100, nil)
	svc.Submit(context.Background(), []byte("%PDF"), "syllabus.pdf")

	final := awaitTerminal(t, svc)
	assert.Equal(t, application.PhaseCompleted, final.Phase)
	assert.Equal(t, "doc-1", final.DocumentID)

	// The loop must stop once the job completes.
	settled := polls.Load()
	time.Sleep(20 * testInterval)
	assert.Equal(t, settled, polls.Load(), "no polls after completion")
}

func TestIngest_FailedStatusTerminatesJob(t *testing.T) {
	gw := &mockGateway{
		ingestPDF: uploadOK("doc-1"),
		getDocument: func(_ context.Context, documentID string) (model.Document, error) {
			return model.Document{ID: documentID, Status: model.JobStatusFailed}, nil
		},
	}

	svc := application.NewIngestService(gw, testInterval, 100, nil)
	svc.Submit(context.Background(), []byte("%PDF"), "syllabus.pdf")

	final := awaitTerminal(t, svc)
	assert.Equal(t, application.PhaseFailed, final.Phase)
	assert.Equal(t, "processing failed", final.Message)
}

func TestIngest_PollErrorsRetrySilently(t *testing.T) {
	var polls atomic.Int64
	gw := &mockGateway{
		ingestPDF: uploadOK("doc-1"),
		getDocument: func(_ context.Context, documentID string) (model.Document, error) {
			switch polls.Add(1) {
			case 1, 2:
				return model.Document{}, &driven.NetworkError{Err: errors.New("connection reset")}
			default:
				return model.Document{ID: documentID, Status: model.JobStatusReady}, nil
			}
		},
	}

	svc := application.NewIngestService(gw, testInterval, 100, nil)
	svc.Submit(context.Background(), []byte("%PDF"), "syllabus.pdf")

	final := awaitTerminal(t, svc)
	assert.Equal(t, application.PhaseCompleted, final.Phase)
	assert.GreaterOrEqual(t, polls.Load(), int64(3))
}

func TestIngest_UploadFailureIsTerminal(t *testing.T) {
	gw := &mockGateway{
		ingestPDF: func(_ context.Context, _ []byte, _ string) (model.UploadReceipt, error) {
			return model.UploadReceipt{}, &driven.HTTPError{StatusCode: 413, Message: "file too large"}
		},
	}

	svc := application.NewIngestService(gw, testInterval, 100, nil)
	svc.Submit(context.Background(), []byte("%PDF"), "huge.pdf")

	final := awaitTerminal(t, svc)
	assert.Equal(t, application.PhaseFailed, final.Phase)
	assert.Contains(t, final.Message, "file too large")
}

func TestIngest_BudgetExhaustionFails(t *testing.T) {
	gw := &mockGateway{
		ingestPDF: uploadOK("doc-1"),
		getDocument: func(_ context.Context, documentID string) (model.Document, error) {
			return model.Document{ID: documentID, Status: model.JobStatusProcessing}, nil
		},
	}

	svc := application.NewIngestService(gw, testInterval, 3, nil)
	svc.Submit(context.Background(), []byte("%PDF"), "syllabus.pdf")

	final := awaitTerminal(t, svc)
	assert.Equal(t, application.PhaseFailed, final.Phase)
	assert.Equal(t, "processing timed out", final.Message)
}

func TestIngest_CancelSuppressesInFlightPoll(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once atomic.Bool

	gw := &mockGateway{
		ingestPDF: uploadOK("doc-1"),
		getDocument: func(_ context.Context, documentID string) (model.Document, error) {
			if once.CompareAndSwap(false, true) {
				close(entered)
				<-release
			}
			return model.Document{ID: documentID, Status: model.JobStatusReady}, nil
		},
	}

	svc := application.NewIngestService(gw, testInterval, 100, nil)
	svc.Submit(context.Background(), []byte("%PDF"), "syllabus.pdf")

	// Wait for the first poll to be in flight, cancel, then let it return ready.
	<-entered
	svc.Cancel()
	close(release)

	time.Sleep(20 * testInterval)
	state := svc.State()
	assert.Equal(t, application.PhaseProcessing, state.Phase,
		"a poll in flight at cancellation must not transition the machine")
	assert.Equal(t, "doc-1", state.DocumentID)
}

func TestIngest_ResubmitSupersedesActiveJob(t *testing.T) {
	firstUploads := make(chan struct{}, 1)
	gw := &mockGateway{
		ingestPDF: func(_ context.Context, _ []byte, filename string) (model.UploadReceipt, error) {
			if filename == "first.pdf" {
				firstUploads <- struct{}{}
				return model.UploadReceipt{DocumentID: "doc-1"}, nil
			}
			return model.UploadReceipt{DocumentID: "doc-2"}, nil
		},
		getDocument: func(_ context.Context, documentID string) (model.Document, error) {
			if documentID == "doc-1" {
				return model.Document{ID: documentID, Status: model.JobStatusProcessing}, nil
			}
			return model.Document{ID: documentID, Status: model.JobStatusReady}, nil
		},
	}

	svc := application.NewIngestService(gw, testInterval, 100, nil)
	svc.Submit(context.Background(), []byte("%PDF"), "first.pdf")
	<-firstUploads
	svc.Submit(context.Background(), []byte("%PDF"), "second.pdf")

	require.Eventually(t, func() bool {
		state := svc.State()
		return state.Phase == application.PhaseCompleted && state.DocumentID == "doc-2"
	}, 5*time.Second, testInterval)
}
