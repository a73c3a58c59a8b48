package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marsesrobotics/dashboard/internal/logging"
)

type fakeReader struct {
	data  *Data
	err   error
	calls atomic.Int32
}

func (f *fakeReader) Statistics(context.Context) ([]Statistic, error) {
	f.calls.Add(1)
	return f.data.Statistics, f.err
}

func (f *fakeReader) Charts(context.Context) ([]Chart, error) {
	return f.data.Charts, nil
}

func (f *fakeReader) Regions(context.Context) ([]Region, error) {
	return f.data.Regions, nil
}

// blockingReader holds Statistics until release is closed or its ctx ends
type blockingReader struct {
	fakeReader
	started     chan struct{}
	startedOnce sync.Once
	release     chan struct{}
}

func (b *blockingReader) Statistics(ctx context.Context) ([]Statistic, error) {
	b.calls.Add(1)
	b.startedOnce.Do(func() { close(b.started) })
	select {
	case <-b.release:
		return b.data.Statistics, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type memoryCache struct {
	data   *Data
	getErr error
	sets   int
}

func (m *memoryCache) Get(context.Context) (*Data, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	return m.data, m.data != nil, nil
}

func (m *memoryCache) Set(_ context.Context, d *Data) error {
	m.sets++
	m.data = d
	return nil
}

func TestServiceLoadUsesCache(t *testing.T) {
	reader := &fakeReader{data: sampleData()}
	cache := &memoryCache{}
	svc := NewService(reader, cache, logging.Discard())

	first, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, first.Statistics, 6)

	second, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.EqualValues(t, 1, reader.calls.Load())
	assert.Equal(t, 1, cache.sets)
}

func TestServiceLoadBypassesBrokenCache(t *testing.T) {
	reader := &fakeReader{data: sampleData()}
	svc := NewService(reader, &memoryCache{getErr: errors.New("redis down")}, logging.Discard())

	data, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, data.Charts, 2)
}

func TestServiceLoadError(t *testing.T) {
	reader := &fakeReader{data: sampleData(), err: errors.New("connection reset")}
	cache := &memoryCache{}
	svc := NewService(reader, cache, logging.Discard())

	_, err := svc.Load(context.Background())
	assert.ErrorContains(t, err, "connection reset")
	assert.Equal(t, 0, cache.sets)
}

func TestServiceLoadCancelledCallerDoesNotFailWaiters(t *testing.T) {
	reader := &blockingReader{
		fakeReader: fakeReader{data: sampleData()},
		started:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	svc := NewService(reader, nil, logging.Discard())

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	defer cancelFirst()

	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Load(firstCtx)
		firstErr <- err
	}()

	select {
	case <-reader.started:
	case <-time.After(2 * time.Second):
		t.Fatal("first load never reached the reader")
	}

	type result struct {
		data *Data
		err  error
	}
	second := make(chan result, 1)
	go func() {
		data, err := svc.Load(context.Background())
		second <- result{data, err}
	}()
	// let the second caller join the in-flight round
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(reader.release)
	select {
	case res := <-second:
		require.NoError(t, res.err)
		assert.Equal(t, sampleData().Statistics, res.data.Statistics)
	case <-time.After(2 * time.Second):
		t.Fatal("waiting caller did not return")
	}
	assert.Equal(t, int32(1), reader.calls.Load())
}

func TestServiceLoadFetchTimeout(t *testing.T) {
	reader := &blockingReader{
		fakeReader: fakeReader{data: sampleData()},
		started:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	svc := NewService(reader, nil, logging.Discard())
	svc.fetchTimeout = 20 * time.Millisecond

	_, err := svc.Load(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestServiceLoadEmptyCollections(t *testing.T) {
	svc := NewService(&fakeReader{data: &Data{}}, nil, logging.Discard())

	data, err := svc.Load(context.Background())
	require.NoError(t, err)

	raw, err := json.Marshal(data)
	require.NoError(t, err)
	assert.JSONEq(t, `{"charts":[],"statistics":[],"regions":[]}`, string(raw))
}

func TestHandlerData(t *testing.T) {
	h := NewHandler(NewService(&fakeReader{data: sampleData()}, nil, logging.Discard()))

	rec := httptest.NewRecorder()
	h.Data(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=60, stale-while-revalidate=300", rec.Header().Get("Cache-Control"))

	var resp DataResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Len(t, resp.Charts, 2)
	assert.Len(t, resp.Statistics, 6)
	assert.Len(t, resp.Regions, 2)
	assert.Equal(t, "pie", resp.Charts[1].ChartType)
}

func TestHandlerDataError(t *testing.T) {
	h := NewHandler(NewService(&fakeReader{data: &Data{}, err: errors.New("boom")}, nil, logging.Discard()))

	rec := httptest.NewRecorder()
	h.Data(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.JSONEq(t, `{"success":false,"error":"Failed to fetch dashboard data"}`, rec.Body.String())
}
