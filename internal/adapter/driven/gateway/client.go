// Package gateway implements the Gateway port against the dory backend's
// REST API.
package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/gregjones/httpcache"

	"github.com/dorylabs/dorycli/internal/domain/port/driven"
)

// Backend endpoint paths, relative to the configured base URL.
const (
	pathGoogleLogin = "/api/auth/google/login"
	pathCurrentUser = "/api/auth/me"
	pathChat        = "/api/chat"
	pathIngestText  = "/api/ingest/text"
	pathIngestPDF   = "/api/ingest/pdf"
	pathDocuments   = "/api/documents"
)

const defaultTimeout = 30 * time.Second

// Compile-time interface satisfaction check.
var _ driven.Gateway = (*Client)(nil)

// Client implements the driven.Gateway port. It is the single point of HTTP
// interaction: URL construction, credential attachment, request/response
// encoding, and status classification all happen here. It holds no mutable
// session state beyond reading the credential store, so independent calls
// may run concurrently.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	creds      driven.CredentialStore
	logger     *slog.Logger
}

// NewClient creates a gateway client for the given base URL. The transport
// stack wraps an in-memory httpcache for ETag-based conditional requests,
// and the client enforces a 30 s overall timeout per call.
func NewClient(baseURL string, creds driven.CredentialStore, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: base URL %q", driven.ErrInvalidRequest, baseURL)
	}

	httpClient := &http.Client{
		Transport: httpcache.NewMemoryCacheTransport(),
		Timeout:   defaultTimeout,
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    u,
		creds:      creds,
		logger:     logger,
	}, nil
}

// NewClientWithHTTPClient creates a Client with a custom http.Client.
// This constructor is intended for testing, allowing injection of an
// httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string, creds driven.CredentialStore) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: base URL %q", driven.ErrInvalidRequest, baseURL)
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    u,
		creds:      creds,
		logger:     slog.Default(),
	}, nil
}

// request describes one backend call. Immutable, constructed per call.
type request struct {
	method       string
	path         string
	body         any
	requiresAuth bool
}

// do builds, authenticates, and issues one request, then classifies the
// response: 2xx returns the raw body for the caller to decode, 401 is
// ErrUnauthorized, and anything else decodes the backend's error envelope
// into an *HTTPError. No failure class is ever retried here.
func (c *Client) do(ctx context.Context, req request) ([]byte, error) {
	ref, err := url.Parse(req.path)
	if err != nil {
		return nil, fmt.Errorf("%w: path %q", driven.ErrInvalidRequest, req.path)
	}
	u := c.baseURL.ResolveReference(ref)

	var bodyReader io.Reader
	if req.body != nil {
		data, err := encodeBody(req.body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", driven.ErrInvalidRequest, err)
	}
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if req.requiresAuth {
		if err := c.attachToken(ctx, httpReq); err != nil {
			return nil, err
		}
	}

	return c.send(httpReq, req.method, req.path)
}

// attachToken reads the bearer token and sets the Authorization header.
// A missing token fails immediately with ErrUnauthorized, before any
// network traffic.
func (c *Client) attachToken(ctx context.Context, httpReq *http.Request) error {
	token, err := c.creds.LoadToken(ctx)
	if err != nil || token == "" {
		return driven.ErrUnauthorized
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// send issues the request and classifies the status.
func (c *Client) send(httpReq *http.Request, method, path string) ([]byte, error) {
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &driven.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &driven.NetworkError{Err: err}
	}

	c.logger.Debug("gateway call",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"bytes", len(data),
	)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		return data, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, driven.ErrUnauthorized
	default:
		message := "unknown error"
		var envelope errorEnvelope
		if err := decodeJSON(data, &envelope); err == nil && envelope.Error != "" {
			message = envelope.Error
		}
		return nil, &driven.HTTPError{StatusCode: resp.StatusCode, Message: message}
	}
}

// call issues a request and decodes the enveloped payload.
func call[T any](ctx context.Context, c *Client, req request) (T, error) {
	data, err := c.do(ctx, req)
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeEnvelope[T](data)
}

// upload issues a multipart POST with a single part named "file". Uploads
// always require auth. The boundary is a freshly generated UUID.
func (c *Client) upload(ctx context.Context, path string, file []byte, filename, contentType string) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.SetBoundary(uuid.NewString()); err != nil {
		return nil, fmt.Errorf("%w: multipart boundary: %v", driven.ErrInvalidRequest, err)
	}

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("%w: multipart part: %v", driven.ErrInvalidRequest, err)
	}
	if _, err := part.Write(file); err != nil {
		return nil, fmt.Errorf("%w: multipart write: %v", driven.ErrInvalidRequest, err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("%w: multipart terminate: %v", driven.ErrInvalidRequest, err)
	}

	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("%w: path %q", driven.ErrInvalidRequest, path)
	}
	u := c.baseURL.ResolveReference(ref)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), &buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", driven.ErrInvalidRequest, err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	if err := c.attachToken(ctx, httpReq); err != nil {
		return nil, err
	}

	return c.send(httpReq, http.MethodPost, path)
}
