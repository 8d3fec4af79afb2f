package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dorylabs/dorycli/internal/domain/model"
	"github.com/dorylabs/dorycli/internal/domain/port/driven"
)

// --- Wire types ---

type loginRequest struct {
	IDToken string `json:"idToken"`
}

// authResponse is the login endpoint's body. It is the one endpoint the
// backend serves without the success envelope.
type authResponse struct {
	Token string   `json:"token"`
	User  userJSON `json:"user"`
}

type userJSON struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         *string    `json:"name"`
	ProfilePhoto *string    `json:"profilePhoto"`
	CreatedAt    *Timestamp `json:"createdAt"`
}

type chatRequest struct {
	Message string `json:"message"`
	ChatID  string `json:"chatId,omitempty"`
	UseRAG  bool   `json:"useRAG"`
}

// chatData tolerates the superset of the two observed reply shapes:
// chunk metadata and plain source identifiers are both optional.
type chatData struct {
	ChatID          string      `json:"chatId"`
	Response        string      `json:"response"`
	RetrievedChunks []chunkJSON `json:"retrievedChunks"`
	Sources         []string    `json:"sources"`
}

type chunkJSON struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Score      float64 `json:"score"`
}

type ingestTextRequest struct {
	Content  string `json:"content"`
	Filename string `json:"filename,omitempty"`
}

type ingestTextData struct {
	DocumentID   string `json:"documentId"`
	ChunksStored int    `json:"chunksStored"`
}

type pdfIngestData struct {
	DocumentID    string  `json:"documentId"`
	Message       string  `json:"message"`
	CloudinaryURL *string `json:"cloudinaryUrl"`
}

// documentJSON binds the backend's document record. The backend serializes
// its model without JSON tags, so the keys are the exported Go field names.
type documentJSON struct {
	ID         string     `json:"ID"`
	UserID     *string    `json:"UserID"`
	Filename   *string    `json:"Filename"`
	FileURL    *string    `json:"FileURL"`
	FileType   *string    `json:"FileType"`
	Content    *string    `json:"Content"`
	Status     string     `json:"Status"`
	UploadedAt *Timestamp `json:"UploadedAt"`
}

type eventsData struct {
	Events []eventJSON `json:"events"`
	Count  int         `json:"count"`
}

type eventJSON struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	StartTime  *Timestamp `json:"startTime"`
	EndTime    *Timestamp `json:"endTime"`
	Recurrence *string    `json:"recurrence"`
	Confidence float64    `json:"confidence"`
	SourceText *string    `json:"sourceText"`
}

// --- Port methods ---

// Login exchanges a Google identity token for a backend session.
func (c *Client) Login(ctx context.Context, idToken string) (string, model.User, error) {
	data, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   pathGoogleLogin,
		body:   loginRequest{IDToken: idToken},
	})
	if err != nil {
		return "", model.User{}, err
	}

	var resp authResponse
	if err := decodeJSON(data, &resp); err != nil {
		return "", model.User{}, err
	}
	if resp.Token == "" {
		return "", model.User{}, fmt.Errorf("%w: login response without token", driven.ErrInvalidResponse)
	}

	return resp.Token, resp.User.toModel(), nil
}

// CurrentUser returns the profile the stored session belongs to.
func (c *Client) CurrentUser(ctx context.Context) (model.User, error) {
	user, err := call[userJSON](ctx, c, request{
		method:       http.MethodGet,
		path:         pathCurrentUser,
		requiresAuth: true,
	})
	if err != nil {
		return model.User{}, err
	}
	return user.toModel(), nil
}

// SendMessage posts a chat message and returns the grounded reply.
func (c *Client) SendMessage(ctx context.Context, message, chatID string, useRAG bool) (model.ChatReply, error) {
	data, err := call[chatData](ctx, c, request{
		method:       http.MethodPost,
		path:         pathChat,
		body:         chatRequest{Message: message, ChatID: chatID, UseRAG: useRAG},
		requiresAuth: true,
	})
	if err != nil {
		return model.ChatReply{}, err
	}
	return data.toModel(), nil
}

// IngestText submits raw text for ingestion.
func (c *Client) IngestText(ctx context.Context, content, filename string) (model.IngestResult, error) {
	data, err := call[ingestTextData](ctx, c, request{
		method:       http.MethodPost,
		path:         pathIngestText,
		body:         ingestTextRequest{Content: content, Filename: filename},
		requiresAuth: true,
	})
	if err != nil {
		return model.IngestResult{}, err
	}
	return model.IngestResult{DocumentID: data.DocumentID, ChunksStored: data.ChunksStored}, nil
}

// IngestPDF uploads a PDF and returns the document handle for polling.
func (c *Client) IngestPDF(ctx context.Context, pdf []byte, filename string) (model.UploadReceipt, error) {
	body, err := c.upload(ctx, pathIngestPDF, pdf, filename, "application/pdf")
	if err != nil {
		return model.UploadReceipt{}, err
	}

	data, err := decodeEnvelope[pdfIngestData](body)
	if err != nil {
		return model.UploadReceipt{}, err
	}

	receipt := model.UploadReceipt{DocumentID: data.DocumentID, Message: data.Message}
	if data.CloudinaryURL != nil {
		receipt.FileURL = *data.CloudinaryURL
	}
	return receipt, nil
}

// GetDocument fetches the current record of an ingested document.
func (c *Client) GetDocument(ctx context.Context, documentID string) (model.Document, error) {
	doc, err := call[documentJSON](ctx, c, request{
		method:       http.MethodGet,
		path:         pathDocuments + "/" + url.PathEscape(documentID),
		requiresAuth: true,
	})
	if err != nil {
		return model.Document{}, err
	}
	return doc.toModel(), nil
}

// DetectedEvents lists the events extracted from a processed document.
func (c *Client) DetectedEvents(ctx context.Context, documentID string) ([]model.DetectedEvent, error) {
	data, err := call[eventsData](ctx, c, request{
		method:       http.MethodGet,
		path:         pathDocuments + "/" + url.PathEscape(documentID) + "/events",
		requiresAuth: true,
	})
	if err != nil {
		return nil, err
	}

	events := make([]model.DetectedEvent, 0, len(data.Events))
	for _, e := range data.Events {
		events = append(events, e.toModel())
	}
	return events, nil
}

// --- Mapping helpers ---

func (u userJSON) toModel() model.User {
	user := model.User{
		ID:    u.ID,
		Email: u.Email,
	}
	if u.Name != nil {
		user.Name = *u.Name
	}
	if u.ProfilePhoto != nil {
		user.ProfilePhoto = *u.ProfilePhoto
	}
	if u.CreatedAt != nil {
		user.CreatedAt = u.CreatedAt.Time
	}
	return user
}

func (d chatData) toModel() model.ChatReply {
	reply := model.ChatReply{
		ChatID:   d.ChatID,
		Response: d.Response,
		Sources:  d.Sources,
	}
	for _, chunk := range d.RetrievedChunks {
		reply.Chunks = append(reply.Chunks, model.RetrievedChunk{
			ChunkID:    chunk.ChunkID,
			DocumentID: chunk.DocumentID,
			Score:      chunk.Score,
		})
	}
	return reply
}

func (d documentJSON) toModel() model.Document {
	doc := model.Document{
		ID:     d.ID,
		Status: model.JobStatus(d.Status),
	}
	if d.UserID != nil {
		doc.UserID = *d.UserID
	}
	if d.Filename != nil {
		doc.Filename = *d.Filename
	}
	if d.FileURL != nil {
		doc.FileURL = *d.FileURL
	}
	if d.FileType != nil {
		doc.FileType = *d.FileType
	}
	if d.Content != nil {
		doc.Content = *d.Content
	}
	if d.UploadedAt != nil {
		doc.UploadedAt = d.UploadedAt.Time
	}
	return doc
}

func (e eventJSON) toModel() model.DetectedEvent {
	event := model.DetectedEvent{
		ID:         e.ID,
		Title:      e.Title,
		Confidence: e.Confidence,
	}
	if e.StartTime != nil {
		t := e.StartTime.Time
		event.StartTime = &t
	}
	if e.EndTime != nil {
		t := e.EndTime.Time
		event.EndTime = &t
	}
	if e.Recurrence != nil {
		event.Recurrence = *e.Recurrence
	}
	if e.SourceText != nil {
		event.SourceText = *e.SourceText
	}
	return event
}
