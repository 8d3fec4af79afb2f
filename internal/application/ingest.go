package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/dorylabs/dorycli/internal/domain/model"
	"github.com/dorylabs/dorycli/internal/domain/port/driven"
)

// IngestPhase is one state of the PDF ingestion lifecycle.
type IngestPhase string

const (
	PhaseIdle       IngestPhase = "idle"
	PhaseUploading  IngestPhase = "uploading"
	PhaseProcessing IngestPhase = "processing"
	PhaseCompleted  IngestPhase = "completed"
	PhaseFailed     IngestPhase = "failed"
)

// Terminal reports whether the phase ends the current job.
func (p IngestPhase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseFailed
}

// IngestState is one observed state of the ingestion machine. DocumentID is
// set from Processing onward; Message only on Failed.
type IngestState struct {
	Phase      IngestPhase
	DocumentID string
	Message    string
}

// IngestService turns the backend's submit-then-poll PDF pipeline into a
// single observable lifecycle:
//
//	Idle -> Uploading -> Processing(id) -> Completed(id) | Failed(message)
//
// At most one job runs per service instance; a new Submit cancels any loop
// in progress. Poll failures retry silently up to the attempt budget, so a
// transient backend hiccup never surfaces as a permanent failure.
type IngestService struct {
	gateway     driven.Gateway
	interval    time.Duration
	maxAttempts uint64
	logger      *slog.Logger

	mu     sync.Mutex
	state  IngestState
	cancel context.CancelFunc

	updates chan IngestState
}

// NewIngestService creates an IngestService polling every interval, giving
// up after maxAttempts polls.
func NewIngestService(gateway driven.Gateway, interval time.Duration, maxAttempts uint64, logger *slog.Logger) *IngestService {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestService{
		gateway:     gateway,
		interval:    interval,
		maxAttempts: maxAttempts,
		logger:      logger,
		state:       IngestState{Phase: PhaseIdle},
		updates:     make(chan IngestState, 16),
	}
}

// State returns a snapshot of the current state.
func (s *IngestService) State() IngestState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Updates exposes the state transition stream. The channel is buffered and
// never closed; slow consumers miss intermediate states, not terminal ones
// observable via State.
func (s *IngestService) Updates() <-chan IngestState {
	return s.updates
}

// Submit starts a new ingestion job, discarding any polling in progress.
// It returns once the job is running; progress arrives via Updates/State.
func (s *IngestService) Submit(ctx context.Context, pdf []byte, filename string) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.state = IngestState{Phase: PhaseUploading}
	s.mu.Unlock()
	s.publish(IngestState{Phase: PhaseUploading})

	go s.run(runCtx, pdf, filename)
}

// Cancel stops the active poll loop at its next wake-up. In-flight network
// calls are not aborted; their results are discarded. Calling Cancel after
// the job terminated is a no-op.
func (s *IngestService) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *IngestService) run(ctx context.Context, pdf []byte, filename string) {
	receipt, err := s.gateway.IngestPDF(ctx, pdf, filename)
	if err != nil {
		// Submission errors are terminal for the job.
		s.transition(ctx, IngestState{Phase: PhaseFailed, Message: err.Error()})
		return
	}

	docID := receipt.DocumentID
	if !s.transition(ctx, IngestState{Phase: PhaseProcessing, DocumentID: docID}) {
		return
	}

	s.poll(ctx, docID)
}

func (s *IngestService) poll(ctx context.Context, docID string) {
	ticker := backoff.WithMaxRetries(backoff.NewConstantBackOff(s.interval), s.maxAttempts)

	for {
		wait := ticker.NextBackOff()
		if wait == backoff.Stop {
			s.transition(ctx, IngestState{
				Phase:      PhaseFailed,
				DocumentID: docID,
				Message:    "processing timed out",
			})
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		doc, err := s.gateway.GetDocument(ctx, docID)
		if err != nil {
			s.logger.Debug("status poll failed", "document_id", docID, "error", err)
			continue
		}

		switch doc.Status {
		case model.JobStatusReady:
			s.transition(ctx, IngestState{Phase: PhaseCompleted, DocumentID: docID})
			return
		case model.JobStatusFailed:
			s.transition(ctx, IngestState{
				Phase:      PhaseFailed,
				DocumentID: docID,
				Message:    "processing failed",
			})
			return
		}
	}
}

// transition applies a state change unless the run was cancelled. The check
// guards against a poll that was already in flight at cancellation time.
func (s *IngestService) transition(ctx context.Context, state IngestState) bool {
	if ctx.Err() != nil {
		return false
	}

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	s.logger.Info("ingest state",
		"phase", string(state.Phase),
		"document_id", state.DocumentID,
		"message", state.Message,
	)
	s.publish(state)
	return true
}

func (s *IngestService) publish(state IngestState) {
	select {
	case s.updates <- state:
	default:
	}
}
