package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labdesk/helpdesk/internal/domain"
	"github.com/labdesk/helpdesk/internal/observability"
)

const twoTickets = `[
	{"ticket_id":"1","user_email":"a@example.test","title":"Lab PC #12 not booting","description":"black screen","status":"Open","priority":"High","created_at":"2025-12-05T10:30:00Z"},
	{"ticket_id":"2","user_id":"jane.smith","title":"Printer out of toner","description":"faint prints","status":"Processing","priority":"Medium","tags":["printer"],"created_at":"2025-12-04T14:20:00Z"}
]`

type recordedRequest struct {
	Method        string
	Path          string
	Authorization []string
	ContentType   string
	Body          []byte
}

type fakeAPI struct {
	mu       sync.Mutex
	requests []recordedRequest
	handler  http.HandlerFunc
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method:        r.Method,
		Path:          r.URL.Path,
		Authorization: r.Header.Values("Authorization"),
		ContentType:   r.Header.Get("Content-Type"),
		Body:          body,
	})
	f.mu.Unlock()
	f.handler(w, r)
}

func (f *fakeAPI) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newTestClient(t *testing.T, handler http.HandlerFunc, token string, opts Options) (*Client, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{handler: handler}
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)
	opts.HTTPClient = server.Client()
	client := New(server.URL+"/", TokenFunc(func(context.Context) string { return token }), opts)
	return client, api
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func TestListEnvelopes(t *testing.T) {
	bodies := map[string]string{
		"bare":   twoTickets,
		"items":  `{"items":` + twoTickets + `}`,
		"Items":  `{"Items":` + twoTickets + `,"Count":2,"ScannedCount":2}`,
		"padded": "\n  " + twoTickets,
	}

	var reference []domain.Ticket
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			client, _ := newTestClient(t, respond(http.StatusOK, body), "tok", Options{})
			tickets, err := client.List(context.Background())
			require.NoError(t, err)
			require.Len(t, tickets, 2)
			assert.Equal(t, "1", tickets[0].ID)
			assert.Equal(t, []domain.Tag{domain.TagPrinter}, tickets[1].Tags)
			if reference == nil {
				reference = tickets
			}
			assert.Equal(t, reference, tickets)
		})
	}
}

func TestListUnknownShapeIsEmpty(t *testing.T) {
	for _, body := range []string{`{"data":[]}`, `{"items":"nope"}`, `null`, ``, `"tickets"`} {
		client, _ := newTestClient(t, respond(http.StatusOK, body), "", Options{})
		tickets, err := client.List(context.Background())
		require.NoError(t, err, body)
		assert.Empty(t, tickets, body)
		assert.NotNil(t, tickets, body)
	}
}

func TestListPrefersLowercaseItems(t *testing.T) {
	body := `{"items":[{"ticket_id":"a","title":"t","status":"Open","priority":"Low"}],"Items":[{"ticket_id":"b","title":"t","status":"Open","priority":"Low"}]}`
	client, _ := newTestClient(t, respond(http.StatusOK, body), "", Options{})

	tickets, err := client.List(context.Background())
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, "a", tickets[0].ID)
}

func TestListNormalizesAndDropsInvalid(t *testing.T) {
	body := `[
		{"ticket_id":"1","title":"defaults"},
		{"ticket_id":"2","title":"bad","status":"Resolved","priority":"High"}
	]`
	client, _ := newTestClient(t, respond(http.StatusOK, body), "", Options{})

	tickets, err := client.List(context.Background())
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, domain.TicketStatusOpen, tickets[0].Status)
	assert.Equal(t, domain.TicketPriorityLow, tickets[0].Priority)
}

func TestListMalformedJSON(t *testing.T) {
	client, _ := newTestClient(t, respond(http.StatusOK, `{"items":[`), "", Options{})
	_, err := client.List(context.Background())
	require.Error(t, err)
}

func TestRequestHeaders(t *testing.T) {
	client, api := newTestClient(t, respond(http.StatusOK, `[]`), "id-token-123", Options{})
	_, err := client.List(context.Background())
	require.NoError(t, err)

	req := api.last()
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/tickets", req.Path)
	assert.Equal(t, []string{"id-token-123"}, req.Authorization)
	assert.Equal(t, "application/json", req.ContentType)
}

func TestRequestHeadersWithoutSession(t *testing.T) {
	client, api := newTestClient(t, respond(http.StatusOK, `[]`), "", Options{})
	_, err := client.List(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{""}, api.last().Authorization)
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"message field", http.StatusForbidden, `{"message":"Only admins can change status"}`, "Only admins can change status"},
		{"nested error", http.StatusBadRequest, `{"error":{"code":"VALIDATION_FAILED","message":"title required"}}`, "title required"},
		{"no body", http.StatusBadGateway, ``, "API Error: 502"},
		{"html body", http.StatusInternalServerError, `<html>oops</html>`, "API Error: 500"},
		{"string error", http.StatusInternalServerError, `{"error":"boom"}`, "API Error: 500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, respond(tt.status, tt.body), "", Options{})
			err := client.Delete(context.Background(), "42")
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestGetNotFound(t *testing.T) {
	client, api := newTestClient(t, respond(http.StatusNotFound, `{"message":"Ticket not found"}`), "", Options{})

	_, err := client.Get(context.Background(), "a/b")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "/tickets/a/b", api.last().Path)
}

func TestGet(t *testing.T) {
	body := `{"ticket_id":"9","title":"VPN","description":"drops","status":"Closed","priority":"High","created_at":"2025-12-03T09:15:00"}`
	client, api := newTestClient(t, respond(http.StatusOK, body), "", Options{})

	ticket, err := client.Get(context.Background(), "9")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, ticket.Status)
	assert.Equal(t, "/tickets/9", api.last().Path)
}

func TestCreate(t *testing.T) {
	client, api := newTestClient(t, respond(http.StatusOK, `{"message":"Success","ticket_id":"abc-123"}`), "tok", Options{})

	id, _, err := client.Create(context.Background(), domain.NewTicket{
		Title:       "Mouse not working",
		Description: "station 8",
		Priority:    domain.TicketPriorityLow,
		UserEmail:   "david@example.test",
		UserName:    "David",
		Tags:        []domain.Tag{domain.TagHardware},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", id)

	req := api.last()
	assert.Equal(t, http.MethodPost, req.Method)
	var sent map[string]any
	require.NoError(t, json.Unmarshal(req.Body, &sent))
	assert.Equal(t, "Mouse not working", sent["title"])
	assert.Equal(t, "Low", sent["priority"])
	assert.Equal(t, "david@example.test", sent["user_email"])
	assert.Equal(t, []any{"hardware"}, sent["tags"])
	assert.NotContains(t, sent, "images")
}

func TestCreateMissingID(t *testing.T) {
	client, _ := newTestClient(t, respond(http.StatusOK, `{"message":"Success"}`), "", Options{})
	_, _, err := client.Create(context.Background(), domain.NewTicket{Title: "x"}, nil)
	require.Error(t, err)
}

func TestUpdateStatusSendsOnlyStatus(t *testing.T) {
	client, api := newTestClient(t, respond(http.StatusOK, ``), "", Options{})

	require.NoError(t, client.UpdateStatus(context.Background(), "7", domain.TicketStatusProcessing))

	req := api.last()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/tickets/7", req.Path)
	assert.JSONEq(t, `{"status":"Processing"}`, string(req.Body))

	require.Error(t, client.UpdateStatus(context.Background(), "7", "Resolved"))
}

type fakeUploader struct {
	names []string
	err   error
}

func (f *fakeUploader) Upload(_ context.Context, file domain.ImageUpload) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.names = append(f.names, file.Name)
	return "https://cdn.example.test/" + file.Name, nil
}

func TestUpdateFieldsUploadsNewImages(t *testing.T) {
	uploader := &fakeUploader{}
	client, api := newTestClient(t, respond(http.StatusOK, `{}`), "", Options{Uploader: uploader})

	title := "Printer jam"
	kept := []string{"https://cdn.example.test/old.png"}
	sent, err := client.UpdateFields(context.Background(), "5",
		domain.TicketPatch{Title: &title, Images: &kept},
		[]domain.ImageUpload{{Name: "new.png", ContentType: "image/png", Data: []byte{1}}})
	require.NoError(t, err)

	assert.Equal(t, []string{"new.png"}, uploader.names)
	require.NotNil(t, sent.Images)
	assert.Equal(t, []string{"https://cdn.example.test/old.png", "https://cdn.example.test/new.png"}, *sent.Images)
	assert.Equal(t, []string{"https://cdn.example.test/old.png"}, kept, "caller slice must not be modified")
	assert.JSONEq(t,
		`{"title":"Printer jam","images":["https://cdn.example.test/old.png","https://cdn.example.test/new.png"]}`,
		string(api.last().Body))
}

func TestCreateReturnsSentTicketWithUploads(t *testing.T) {
	uploader := &fakeUploader{}
	client, api := newTestClient(t, respond(http.StatusCreated, `{"message":"Success","ticket_id":"n-1"}`), "", Options{Uploader: uploader})

	existing := []string{"https://cdn.example.test/first.png"}
	id, sent, err := client.Create(context.Background(),
		domain.NewTicket{Title: "Scanner", Description: "no power", Images: existing},
		[]domain.ImageUpload{{Name: "scan.png", ContentType: "image/png", Data: []byte{1}}})
	require.NoError(t, err)

	assert.Equal(t, "n-1", id)
	assert.Equal(t, []string{"https://cdn.example.test/first.png", "https://cdn.example.test/scan.png"}, sent.Images)
	assert.Equal(t, []string{"https://cdn.example.test/first.png"}, existing, "caller slice must not be modified")
	var body map[string]any
	require.NoError(t, json.Unmarshal(api.last().Body, &body))
	assert.Equal(t, []any{"https://cdn.example.test/first.png", "https://cdn.example.test/scan.png"}, body["images"])
}

func TestUpdateFieldsUploadFailureSendsNothing(t *testing.T) {
	uploader := &fakeUploader{err: errors.New("bucket unavailable")}
	client, api := newTestClient(t, respond(http.StatusOK, `{}`), "", Options{Uploader: uploader})

	kept := []string{}
	_, err := client.UpdateFields(context.Background(), "5", domain.TicketPatch{Images: &kept},
		[]domain.ImageUpload{{Name: "a.png"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket unavailable")
	assert.Empty(t, api.requests)
}

func TestUpdateFieldsRequiresKeptImages(t *testing.T) {
	client, _ := newTestClient(t, respond(http.StatusOK, `{}`), "", Options{Uploader: &fakeUploader{}})
	_, err := client.UpdateFields(context.Background(), "5", domain.TicketPatch{}, []domain.ImageUpload{{Name: "a.png"}})
	require.Error(t, err)
}

func TestCreateWithoutUploaderRejectsFiles(t *testing.T) {
	client, api := newTestClient(t, respond(http.StatusOK, `{}`), "", Options{})
	_, _, err := client.Create(context.Background(), domain.NewTicket{Title: "x"}, []domain.ImageUpload{{Name: "a.png"}})
	require.Error(t, err)
	assert.Empty(t, api.requests)
}

func TestMetricsRecorded(t *testing.T) {
	metrics := observability.NewMetrics()
	client, _ := newTestClient(t, respond(http.StatusOK, `[]`), "", Options{Metrics: metrics})

	_, err := client.List(context.Background())
	require.NoError(t, err)
	_ = client.Delete(context.Background(), "1")

	snap := metrics.Snapshot()
	assert.Equal(t, int64(1), snap.Requests[observability.RequestKey("/tickets", http.MethodGet, http.StatusOK)])
	assert.Equal(t, int64(1), snap.Requests[observability.RequestKey("/tickets/{id}", http.MethodDelete, http.StatusOK)])
}
