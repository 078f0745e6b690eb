package llm

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Veraticus/aviation-bay/internal/capture"
	"github.com/Veraticus/aviation-bay/internal/common"
	"github.com/Veraticus/aviation-bay/internal/model"
	"github.com/Veraticus/aviation-bay/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient returns queued errors first, then jets.
type fakeClient struct {
	replyErr error
	reply    model.Turn
	errs     []error
	jets     []model.DetectedJet
	calls    int
	mu       sync.Mutex
}

func (f *fakeClient) AnalyzeImage(_ context.Context, _ capture.Image) ([]model.DetectedJet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return f.jets, nil
}

func (f *fakeClient) Reply(_ context.Context, _ []model.Turn) (model.Turn, error) {
	return f.reply, f.replyErr
}

func (f *fakeClient) Ping(_ context.Context) error { return nil }

func (f *fakeClient) Provider() string { return "fake" }

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestService(client Client) (*Service, *observability.Metrics, *clockwork.FakeClock) {
	metrics := observability.NewMetricsForTesting()
	clock := clockwork.NewFakeClock()
	svc := NewService(client, Config{RetryDelay: time.Millisecond, MaxRetries: 3}, metrics, clock, nil)
	return svc, metrics, clock
}

func TestService_AnalyzeImageCachesByDigest(t *testing.T) {
	client := &fakeClient{jets: []model.DetectedJet{{JetType: "helicopter", Confidence: 0.9, Description: "Bell 206"}}}
	svc, metrics, _ := newTestService(client)

	first, err := svc.AnalyzeImage(context.Background(), testImage)
	require.NoError(t, err)
	second, err := svc.AnalyzeImage(context.Background(), testImage)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, client.callCount())
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.AnalysisCache.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.AnalysisCache.WithLabelValues("miss")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.AnalysisRequests.WithLabelValues("fake", observability.OutcomeSuccess)), 0)
}

func TestService_EmptyResultNotCached(t *testing.T) {
	client := &fakeClient{}
	svc, metrics, _ := newTestService(client)

	for i := 0; i < 2; i++ {
		jets, err := svc.AnalyzeImage(context.Background(), testImage)
		require.NoError(t, err)
		assert.Empty(t, jets)
	}

	assert.Equal(t, 2, client.callCount())
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.AnalysisRequests.WithLabelValues("fake", observability.OutcomeEmpty)), 0)
}

func TestService_AnalyzeImageErrors(t *testing.T) {
	tests := []struct {
		wantErr     error
		name        string
		wantMessage string
		errs        []error
		wantCalls   int
	}{
		{
			name:      "transient failure is retried",
			errs:      []error{&common.RetryableError{Err: errors.New("503"), Retryable: true}},
			wantCalls: 2,
		},
		{
			name:        "missing key is not retried",
			errs:        []error{statusError("fake", 401, "unauthorized")},
			wantCalls:   1,
			wantErr:     common.ErrMissingConfig,
			wantMessage: MsgInvalidKey,
		},
		{
			name:        "unknown failure gets generic message",
			errs:        []error{&common.RetryableError{Err: errors.New("400 bad image"), Retryable: false}},
			wantCalls:   1,
			wantMessage: MsgAnalysisFailed,
		},
		{
			name: "timeouts exhaust retries",
			errs: []error{
				common.NewUserError(MsgTimeout, common.ErrTimeout),
				common.NewUserError(MsgTimeout, common.ErrTimeout),
				common.NewUserError(MsgTimeout, common.ErrTimeout),
			},
			wantCalls:   3,
			wantErr:     common.ErrMaxRetries,
			wantMessage: MsgTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{
				errs: tt.errs,
				jets: []model.DetectedJet{{JetType: "drone", Confidence: 0.7, Description: "uav"}},
			}
			svc, _, _ := newTestService(client)

			jets, err := svc.AnalyzeImage(context.Background(), testImage)
			assert.Equal(t, tt.wantCalls, client.callCount())

			if tt.wantMessage == "" {
				require.NoError(t, err)
				assert.Len(t, jets, 1)
				return
			}
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, tt.wantMessage, common.UserMessage(err))
		})
	}
}

func TestService_AnalyzeImageEmptyCapture(t *testing.T) {
	svc, _, _ := newTestService(&fakeClient{})
	_, err := svc.AnalyzeImage(context.Background(), capture.Image{})
	assert.ErrorIs(t, err, common.ErrEmptyCapture)
}

func TestService_AnalyzeBatch(t *testing.T) {
	client := &fakeClient{jets: []model.DetectedJet{{JetType: "cargo aircraft", Confidence: 0.8, Description: "747F"}}}
	svc, _, _ := newTestService(client)

	images := []capture.Image{
		{MIMEType: "image/png", Data: []byte("one")},
		{MIMEType: "image/png", Data: []byte("two")},
		{MIMEType: "image/png", Data: []byte("three")},
	}

	var done atomic.Int32
	results, err := svc.AnalyzeBatch(context.Background(), images, func() { done.Add(1) })
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, int32(3), done.Load())
	for _, jets := range results {
		assert.Equal(t, "cargo aircraft", jets[0].JetType)
	}
	assert.Equal(t, 3, client.callCount())

	_, err = svc.AnalyzeBatch(context.Background(), []capture.Image{{}}, nil)
	assert.ErrorIs(t, err, common.ErrEmptyCapture)
}

// stallingClient fails the image whose payload is "bad" once every other call
// is in flight, and holds those calls until their context ends.
type stallingClient struct {
	fakeClient
	inFlight  sync.WaitGroup
	cancelled atomic.Int32
}

func (c *stallingClient) AnalyzeImage(ctx context.Context, img capture.Image) ([]model.DetectedJet, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()

	if string(img.Data) == "bad" {
		c.inFlight.Wait()
		return nil, &common.RetryableError{Err: errors.New("bad photo"), Retryable: false}
	}
	c.inFlight.Done()
	<-ctx.Done()
	c.cancelled.Add(1)
	return nil, ctx.Err()
}

func TestService_AnalyzeBatchCancelsOnFirstFailure(t *testing.T) {
	client := &stallingClient{}
	client.inFlight.Add(3)
	svc, _, _ := newTestService(client)

	images := []capture.Image{
		{MIMEType: "image/png", Data: []byte("one")},
		{MIMEType: "image/png", Data: []byte("two")},
		{MIMEType: "image/png", Data: []byte("bad")},
		{MIMEType: "image/png", Data: []byte("three")},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := svc.AnalyzeBatch(ctx, images, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image 3")
	assert.Contains(t, err.Error(), "bad photo")
	assert.NoError(t, ctx.Err(), "siblings stopped before the outer deadline")
	assert.Equal(t, int32(3), client.cancelled.Load())
	assert.Equal(t, 4, client.callCount())
}

func TestService_Reply(t *testing.T) {
	client := &fakeClient{reply: model.Turn{Role: model.RoleModel, Text: "Mach 2."}}
	svc, _, clock := newTestService(client)

	turn, err := svc.Reply(context.Background(), []model.Turn{{Role: model.RoleUser, Text: "How fast is an F-16?"}})
	require.NoError(t, err)
	assert.Equal(t, "Mach 2.", turn.Text)
	assert.Equal(t, clock.Now(), turn.At)

	client.replyErr = ErrContentBlocked
	_, err = svc.Reply(context.Background(), nil)
	assert.ErrorIs(t, err, ErrContentBlocked)
}
