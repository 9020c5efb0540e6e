package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/holt-ace/DASHBOARDV3-sub001/internal/metrics"
	"github.com/holt-ace/DASHBOARDV3-sub001/internal/purchaseorder"
	"github.com/holt-ace/DASHBOARDV3-sub001/internal/workflow"
	apperrors "github.com/holt-ace/DASHBOARDV3-sub001/pkg/errors"
	"github.com/holt-ace/DASHBOARDV3-sub001/pkg/eventstore"
)

const extractedPO = `{
	"header": {"poNumber": "PO-77", "orderDate": "2024-05-01"},
	"products": [{"supc": "1", "quantity": 2, "fobCost": 5, "total": 10}],
	"totalCost": 10
}`

var pdf = []byte("%PDF-1.7\n1 0 obj\n<<>>\nendobj\n")

type memBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newMemBlobs() *memBlobs { return &memBlobs{objects: map[string][]byte{}} }

func (b *memBlobs) Put(_ context.Context, fileName string, data []byte, _ string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := objectKey(fileName, time.Now())
	b.objects[key] = data
	return key, nil
}

func (b *memBlobs) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	b.deleted = append(b.deleted, key)
	return nil
}

func newClient(url string, retries int) *Client {
	c := NewClient(ClientConfig{URL: url, APIKey: "secret", Model: "po-extract", MaxRetries: retries, Timeout: time.Second}, zap.NewNop())
	c.initialInterval = time.Millisecond
	return c
}

func TestClient_Extract(t *testing.T) {
	var got extractRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, extractedPO)
	}))
	defer srv.Close()

	po, attempts, err := newClient(srv.URL, 3).Extract(context.Background(), "po.pdf", pdf)
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, "PO-77", po.Header.PONumber)
	assert.Equal(t, "po-extract", got.Model)
	assert.Equal(t, "po.pdf", got.Filename)
	assert.NotEmpty(t, got.Content)
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusServiceUnavailable)
		case 2:
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			_, _ = io.WriteString(w, extractedPO)
		}
	}))
	defer srv.Close()

	po, attempts, err := newClient(srv.URL, 3).Extract(context.Background(), "po.pdf", pdf)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, "PO-77", po.Header.PONumber)
}

func TestClient_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, attempts, err := newClient(srv.URL, 2).Extract(context.Background(), "po.pdf", pdf)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.Code)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_ClientErrorsArePermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad document", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, attempts, err := newClient(srv.URL, 3).Extract(context.Background(), "po.pdf", pdf)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.Code)
	assert.Equal(t, "bad document", statusErr.Body)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, int32(1), calls.Load())
}

type stubExtractor struct {
	po  string
	err error
}

func (s stubExtractor) Extract(context.Context, string, []byte) (*purchaseorder.PurchaseOrder, int, error) {
	if s.err != nil {
		return nil, 2, s.err
	}
	var po purchaseorder.PurchaseOrder
	if err := json.Unmarshal([]byte(s.po), &po); err != nil {
		return nil, 1, err
	}
	return &po, 1, nil
}

type fixture struct {
	svc      Service
	orders   purchaseorder.Service
	blobs    *memBlobs
	recorder metrics.Service
}

func newFixture(ext Extractor) fixture {
	validator := workflow.NewService(workflow.DefaultRegistry(), workflow.DefaultPredicates(), zap.NewNop())
	orders := purchaseorder.NewService(purchaseorder.NewMemoryRepository(), validator, eventstore.NewMemoryStore(), zap.NewNop())
	recorder := metrics.NewService(nil, metrics.NewRecorder(0), zap.NewNop())
	blobs := newMemBlobs()
	return fixture{
		svc:      NewService(ext, orders, blobs, recorder, zap.NewNop()),
		orders:   orders,
		blobs:    blobs,
		recorder: recorder,
	}
}

func TestService_Ingest(t *testing.T) {
	f := newFixture(stubExtractor{po: extractedPO})
	ctx := context.Background()

	res, err := f.svc.Ingest(ctx, "po.pdf", pdf)
	require.NoError(t, err)
	assert.Equal(t, "PO-77", res.PurchaseOrder.Header.PONumber)
	assert.Equal(t, purchaseorder.StatusUploaded, res.PurchaseOrder.Header.Status)
	assert.Contains(t, f.blobs.objects, res.ObjectKey)
	assert.True(t, strings.HasSuffix(res.ObjectKey, ".pdf"))

	_, err = f.orders.Get(ctx, "PO-77")
	require.NoError(t, err)

	events := f.recorder.Metrics(MetricPDFProcessing)
	require.Len(t, events, 1)
	assert.Equal(t, true, events[0]["success"])
	assert.Equal(t, "PO-77", events[0]["poNumber"])
	assert.Equal(t, "po.pdf", events[0]["fileName"])
	assert.Contains(t, events[0], "durationMs")
}

// steppingClock returns start, then advances by step on every call.
func steppingClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := next
		next = next.Add(step)
		return now
	}
}

func TestService_IngestSetsProcessingTime(t *testing.T) {
	f := newFixture(stubExtractor{po: extractedPO})
	f.svc.(*service).now = steppingClock(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC), 2500*time.Millisecond)
	ctx := context.Background()

	res, err := f.svc.Ingest(ctx, "po.pdf", pdf)
	require.NoError(t, err)
	require.NotNil(t, res.PurchaseOrder.ProcessingTime)
	assert.InDelta(t, 2.5, *res.PurchaseOrder.ProcessingTime, 1e-9)

	stored, err := f.orders.Get(ctx, "PO-77")
	require.NoError(t, err)
	require.NotNil(t, stored.ProcessingTime)
	assert.InDelta(t, 2.5, *stored.ProcessingTime, 1e-9)
}

func TestService_IngestKeepsExtractedProcessingTime(t *testing.T) {
	withTime := strings.Replace(extractedPO, `"totalCost": 10`, `"totalCost": 10, "processingTime": 7`, 1)
	f := newFixture(stubExtractor{po: withTime})

	res, err := f.svc.Ingest(context.Background(), "po.pdf", pdf)
	require.NoError(t, err)
	require.NotNil(t, res.PurchaseOrder.ProcessingTime)
	assert.Equal(t, 7.0, *res.PurchaseOrder.ProcessingTime)
}

func TestService_IngestCompensatesOnCreateFailure(t *testing.T) {
	f := newFixture(stubExtractor{po: extractedPO})
	ctx := context.Background()

	_, err := f.svc.Ingest(ctx, "first.pdf", pdf)
	require.NoError(t, err)

	_, err = f.svc.Ingest(ctx, "second.pdf", pdf)
	var conflict *apperrors.ErrConflict
	require.ErrorAs(t, err, &conflict)
	assert.Len(t, f.blobs.objects, 1)
	assert.Len(t, f.blobs.deleted, 1)

	events := f.recorder.Metrics(MetricPDFProcessing)
	require.Len(t, events, 2)
	assert.Equal(t, false, events[1]["success"])
	assert.Equal(t, "PO-77", events[1]["poNumber"])
	assert.NotEmpty(t, events[1]["error"])
}

func TestService_IngestExtractionFailure(t *testing.T) {
	f := newFixture(stubExtractor{err: errors.New("upstream down")})

	_, err := f.svc.Ingest(context.Background(), "po.pdf", pdf)
	require.ErrorIs(t, err, ErrExtractionFailed)
	assert.Empty(t, f.blobs.objects)
	assert.Len(t, f.blobs.deleted, 1)

	events := f.recorder.Metrics(MetricPDFProcessing)
	require.Len(t, events, 1)
	assert.Equal(t, false, events[0]["success"])
	assert.Equal(t, 2, events[0]["attempts"])
	assert.NotContains(t, events[0], "poNumber")
}

func multipartBody(t *testing.T, field, name string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func upload(t *testing.T, h *Handler, field, name string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, ctype := multipartBody(t, field, name, data)
	req := httptest.NewRequest(http.MethodPost, "/purchase-orders/upload", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	h.HandleUpload(rec, req)
	return rec
}

func TestHandler_Upload(t *testing.T) {
	f := newFixture(stubExtractor{po: extractedPO})
	h := NewHandler(f.svc, 60, 10, zap.NewNop())

	rec := upload(t, h, "file", "po.pdf", pdf)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var res Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "PO-77", res.PurchaseOrder.Header.PONumber)
}

func TestHandler_UploadRejections(t *testing.T) {
	tests := []struct {
		name  string
		ext   Extractor
		field string
		data  []byte
		want  int
	}{
		{"missing field", stubExtractor{po: extractedPO}, "document", pdf, http.StatusBadRequest},
		{"not a pdf", stubExtractor{po: extractedPO}, "file", []byte("hello, world"), http.StatusUnsupportedMediaType},
		{"extraction failed", stubExtractor{err: errors.New("boom")}, "file", pdf, http.StatusBadGateway},
		{"invalid document", stubExtractor{po: `{"header":{"poNumber":""},"totalCost":1}`}, "file", pdf, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(newFixture(tt.ext).svc, 60, 10, zap.NewNop())
			rec := upload(t, h, tt.field, "po.pdf", tt.data)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestHandler_UploadTooLarge(t *testing.T) {
	h := NewHandler(newFixture(stubExtractor{po: extractedPO}).svc, 60, 10, zap.NewNop())
	big := append(append([]byte{}, pdf...), make([]byte, MaxUploadSize)...)

	rec := upload(t, h, "file", "po.pdf", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestHandler_RateLimited(t *testing.T) {
	h := NewHandler(newFixture(stubExtractor{err: errors.New("boom")}).svc, 1, 1, zap.NewNop())

	first := upload(t, h, "file", "po.pdf", pdf)
	assert.Equal(t, http.StatusBadGateway, first.Code)

	second := upload(t, h, "file", "po.pdf", pdf)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}
