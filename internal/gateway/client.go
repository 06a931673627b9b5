// Package gateway translates ticket intents into authenticated calls against the
// remote ticket API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/labdesk/helpdesk/internal/domain"
	"github.com/labdesk/helpdesk/internal/observability"
)

const (
	routeTickets = "/tickets"
	routeTicket  = "/tickets/{id}"
)

// TokenSource yields the token attached to each request. An empty string means
// no session; the backend decides whether to reject the call.
type TokenSource interface {
	Token(ctx context.Context) string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) string

// Token implements TokenSource.
func (f TokenFunc) Token(ctx context.Context) string {
	return f(ctx)
}

// Uploader stores an attachment out-of-band and returns its reference.
type Uploader interface {
	Upload(ctx context.Context, file domain.ImageUpload) (string, error)
}

// Options tunes a Client. Zero values pick defaults.
type Options struct {
	HTTPClient *http.Client
	Uploader   Uploader
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// Client is the ticket remote gateway.
type Client struct {
	baseURL  string
	http     *http.Client
	tokens   TokenSource
	uploader Uploader
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewHTTPClient returns an instrumented HTTP client. A zero timeout keeps the
// transport default.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   timeout,
	}
}

// New builds a gateway rooted at baseURL (no trailing slash required).
func New(baseURL string, tokens TokenSource, opts Options) *Client {
	if tokens == nil {
		tokens = TokenFunc(func(context.Context) string { return "" })
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = NewHTTPClient(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     httpClient,
		tokens:   tokens,
		uploader: opts.Uploader,
		logger:   logger.Named("gateway"),
		metrics:  opts.Metrics,
	}
}

// List returns every ticket the backend reports, normalized.
func (c *Client) List(ctx context.Context) ([]domain.Ticket, error) {
	data, err := c.do(ctx, http.MethodGet, routeTickets, routeTickets, nil)
	if err != nil {
		return nil, err
	}
	tickets, envelope, err := decodeTicketList(data, c.logger)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("listed tickets", zap.Int("count", len(tickets)), zap.String("envelope", string(envelope)))
	return tickets, nil
}

// Get fetches one ticket. A 404 matches ErrNotFound.
func (c *Client) Get(ctx context.Context, id string) (*domain.Ticket, error) {
	data, err := c.do(ctx, http.MethodGet, ticketPath(id), routeTicket, nil)
	if err != nil {
		return nil, err
	}
	var ticket domain.Ticket
	if err := json.Unmarshal(data, &ticket); err != nil {
		return nil, fmt.Errorf("decode ticket %s: %w", id, err)
	}
	normalized, ok := ticket.Normalize()
	if !ok {
		return nil, fmt.Errorf("ticket %s has unknown status %q or priority %q", id, ticket.Status, ticket.Priority)
	}
	return &normalized, nil
}

// CreateResponse is the body returned by POST /tickets.
type CreateResponse struct {
	Message  string `json:"message"`
	TicketID string `json:"ticket_id"`
}

// Create uploads files, submits the ticket and returns the assigned id with
// the ticket as sent, uploaded image references included.
func (c *Client) Create(ctx context.Context, ticket domain.NewTicket, files []domain.ImageUpload) (string, domain.NewTicket, error) {
	refs, err := c.uploadAll(ctx, files)
	if err != nil {
		return "", ticket, err
	}
	if len(refs) > 0 {
		ticket.Images = append(append([]string{}, ticket.Images...), refs...)
	}

	data, err := c.do(ctx, http.MethodPost, routeTickets, routeTickets, ticket)
	if err != nil {
		return "", ticket, err
	}
	var resp CreateResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", ticket, fmt.Errorf("decode create response: %w", err)
	}
	if resp.TicketID == "" {
		return "", ticket, errors.New("create response missing ticket_id")
	}
	c.logger.Info("created ticket", zap.String("ticket_id", resp.TicketID))
	return resp.TicketID, ticket, nil
}

// UpdateStatus changes only the status field.
func (c *Client) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) error {
	if !status.Valid() {
		return fmt.Errorf("unknown status %q", status)
	}
	if _, err := c.do(ctx, http.MethodPut, ticketPath(id), routeTicket, domain.StatusPatch(status)); err != nil {
		return err
	}
	c.logger.Info("updated ticket status", zap.String("ticket_id", id), zap.String("status", string(status)))
	return nil
}

// UpdateFields uploads new files, appends their references to the patch's image
// list and sends the patch. The patch must list the kept images when files are
// supplied; it returns the patch that was sent.
func (c *Client) UpdateFields(ctx context.Context, id string, patch domain.TicketPatch, files []domain.ImageUpload) (domain.TicketPatch, error) {
	if len(files) > 0 && patch.Images == nil {
		return patch, errors.New("patch must list kept images when adding files")
	}
	refs, err := c.uploadAll(ctx, files)
	if err != nil {
		return patch, err
	}
	if len(refs) > 0 {
		images := append(append([]string{}, (*patch.Images)...), refs...)
		patch.Images = &images
	}
	if patch.IsEmpty() {
		return patch, nil
	}
	if _, err := c.do(ctx, http.MethodPut, ticketPath(id), routeTicket, patch); err != nil {
		return patch, err
	}
	c.logger.Info("updated ticket fields", zap.String("ticket_id", id))
	return patch, nil
}

// Delete removes the ticket.
func (c *Client) Delete(ctx context.Context, id string) error {
	if _, err := c.do(ctx, http.MethodDelete, ticketPath(id), routeTicket, nil); err != nil {
		return err
	}
	c.logger.Info("deleted ticket", zap.String("ticket_id", id))
	return nil
}

func (c *Client) uploadAll(ctx context.Context, files []domain.ImageUpload) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if c.uploader == nil {
		return nil, errors.New("no uploader configured for image attachments")
	}
	refs := make([]string, 0, len(files))
	for _, file := range files {
		ref, err := c.uploader.Upload(ctx, file)
		if err != nil {
			return nil, fmt.Errorf("upload %s: %w", file.Name, err)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func (c *Client) do(ctx context.Context, method, path, route string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.tokens.Token(ctx))

	c.logger.Debug("request", zap.String("method", method), zap.String("path", path))
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.RecordError(route, method, "transport")
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	c.metrics.RecordRequest(route, method, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := NewAPIError(resp.StatusCode, data)
		c.metrics.RecordError(route, method, fmt.Sprint(resp.StatusCode))
		c.logger.Warn("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message))
		return nil, apiErr
	}
	return data, nil
}

func ticketPath(id string) string {
	return routeTickets + "/" + url.PathEscape(id)
}
