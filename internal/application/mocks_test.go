package application_test

import (
	"context"
	"errors"

	"github.com/dorylabs/dorycli/internal/domain/model"
)

// --- Mock implementations of the driven ports ---

type mockGateway struct {
	loginFn      func(ctx context.Context, idToken string) (string, model.User, error)
	currentUser  func(ctx context.Context) (model.User, error)
	sendMessage  func(ctx context.Context, message, chatID string, useRAG bool) (model.ChatReply, error)
	ingestText   func(ctx context.Context, content, filename string) (model.IngestResult, error)
	ingestPDF    func(ctx context.Context, pdf []byte, filename string) (model.UploadReceipt, error)
	getDocument  func(ctx context.Context, documentID string) (model.Document, error)
	listEvents   func(ctx context.Context, documentID string) ([]model.DetectedEvent, error)
}

func (m *mockGateway) Login(ctx context.Context, idToken string) (string, model.User, error) {
	if m.loginFn == nil {
		return "", model.User{}, errors.New("login not stubbed")
	}
	return m.loginFn(ctx, idToken)
}

func (m *mockGateway) CurrentUser(ctx context.Context) (model.User, error) {
	if m.currentUser == nil {
		return model.User{}, errors.New("currentUser not stubbed")
	}
	return m.currentUser(ctx)
}

func (m *mockGateway) SendMessage(ctx context.Context, message, chatID string, useRAG bool) (model.ChatReply, error) {
	if m.sendMessage == nil {
		return model.ChatReply{}, errors.New("sendMessage not stubbed")
	}
	return m.sendMessage(ctx, message, chatID, useRAG)
}

func (m *mockGateway) IngestText(ctx context.Context, content, filename string) (model.IngestResult, error) {
	if m.ingestText == nil {
		return model.IngestResult{}, errors.New("ingestText not stubbed")
	}
	return m.ingestText(ctx, content, filename)
}

func (m *mockGateway) IngestPDF(ctx context.Context, pdf []byte, filename string) (model.UploadReceipt, error) {
	if m.ingestPDF == nil {
		return model.UploadReceipt{}, errors.New("ingestPDF not stubbed")
	}
	return m.ingestPDF(ctx, pdf, filename)
}

func (m *mockGateway) GetDocument(ctx context.Context, documentID string) (model.Document, error) {
	if m.getDocument == nil {
		return model.Document{}, errors.New("getDocument not stubbed")
	}
	return m.getDocument(ctx, documentID)
}

func (m *mockGateway) DetectedEvents(ctx context.Context, documentID string) ([]model.DetectedEvent, error) {
	if m.listEvents == nil {
		return nil, errors.New("detectedEvents not stubbed")
	}
	return m.listEvents(ctx, documentID)
}

type mockCredentialStore struct {
	token   string
	saveErr error
	loadErr error
}

func (m *mockCredentialStore) SaveToken(_ context.Context, token string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.token = token
	return nil
}

func (m *mockCredentialStore) LoadToken(_ context.Context) (string, error) {
	if m.loadErr != nil {
		return "", m.loadErr
	}
	return m.token, nil
}

func (m *mockCredentialStore) DeleteToken(_ context.Context) error {
	m.token = ""
	return nil
}

type mockProfileCache struct {
	profile *model.User
}

func (m *mockProfileCache) SaveProfile(_ context.Context, user model.User) error {
	m.profile = &user
	return nil
}

func (m *mockProfileCache) LoadProfile(_ context.Context) (*model.User, error) {
	return m.profile, nil
}

func (m *mockProfileCache) DeleteProfile(_ context.Context) error {
	m.profile = nil
	return nil
}
