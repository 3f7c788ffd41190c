package dashboard_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/churn-dashboard/internal/analyzer"
	"github.com/OldStager01/churn-dashboard/internal/cache"
	"github.com/OldStager01/churn-dashboard/internal/churnapi"
	"github.com/OldStager01/churn-dashboard/internal/dashboard"
	"github.com/OldStager01/churn-dashboard/internal/events"
	"github.com/OldStager01/churn-dashboard/internal/metrics"
	"github.com/OldStager01/churn-dashboard/internal/resilience"
	"github.com/OldStager01/churn-dashboard/pkg/models"
	"github.com/OldStager01/churn-dashboard/pkg/validation"
)

type fixture struct {
	svc    *dashboard.Service
	mock   *churnapi.MockClient
	bus    *events.EventBus
	events <-chan *models.Event
	m      *metrics.Metrics
}

func newFixture(t *testing.T, probability float64, c cache.Cache) *fixture {
	t.Helper()
	bus := events.NewEventBus(100)
	t.Cleanup(bus.Close)

	f := &fixture{
		mock:   churnapi.NewMockClient(churnapi.MockClientConfig{Probability: probability}),
		bus:    bus,
		events: bus.SubscribeAll(),
		m:      metrics.New(),
	}
	f.svc = dashboard.New(dashboard.Config{
		Client:          f.mock,
		Cache:           c,
		Publisher:       events.NewPublisher(bus),
		Metrics:         f.m,
		RefreshInterval: 50 * time.Millisecond,
	})
	return f
}

func (f *fixture) drain() []*models.Event {
	var out []*models.Event
	for {
		select {
		case ev := <-f.events:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func hasEvent(evs []*models.Event, eventType models.EventType) bool {
	for _, ev := range evs {
		if ev.Type == eventType {
			return true
		}
	}
	return false
}

func validForm() map[string]string {
	return map[string]string{
		"tenure":         "24",
		"MonthlyCharges": "55.5",
		"SeniorCitizen":  "0",
		"Contract":       "Month-to-month",
	}
}

func TestPredict_EndToEnd(t *testing.T) {
	f := newFixture(t, 0.82, nil)

	result, err := f.svc.Predict(context.Background(), validForm())
	require.NoError(t, err)

	assert.Equal(t, models.RiskHigh, result.Category)
	assert.True(t, result.WillChurn)
	assert.Equal(t, "High Churn Risk", result.Headline)
	assert.InDelta(t, 82.0, result.ProbabilityPct, 1e-9)
	assert.InDelta(t, 82.0, result.ConfidencePct, 1e-9)
	assert.NotEmpty(t, result.Recommendation)
	assert.False(t, result.Cached)

	assert.Equal(t, result, f.svc.LastResult())
	assert.False(t, f.svc.PredictionInFlight())

	// The post-prediction refresh records the new average.
	trend := f.svc.Trend()
	require.Equal(t, 1, trend.Len())
	assert.InDelta(t, 0.82, trend.Values()[0], 1e-9)
	require.NotNil(t, f.svc.Metrics())
	assert.Equal(t, 1, f.svc.Metrics().TotalPredictions)

	evs := f.drain()
	assert.True(t, hasEvent(evs, models.EventTypePredictionCompleted))
	assert.True(t, hasEvent(evs, models.EventTypeMetricsRefreshed))
}

func TestPredict_ValidationErrorNeverCallsUpstream(t *testing.T) {
	f := newFixture(t, 0.5, nil)
	form := validForm()
	form["tenure"] = "abc"
	delete(form, "MonthlyCharges")

	_, err := f.svc.Predict(context.Background(), form)
	require.Error(t, err)
	assert.ErrorIs(t, err, validation.ErrInvalidInput)

	fields := validation.Fields(err)
	require.Len(t, fields, 2)
	assert.Equal(t, "MonthlyCharges", fields[0].Field)
	assert.Equal(t, validation.ReasonMissing, fields[0].Reason)
	assert.Equal(t, "tenure", fields[1].Field)
	assert.Equal(t, validation.ReasonNotNumeric, fields[1].Reason)

	assert.Equal(t, 0, f.mock.Calls("predict"))
	assert.False(t, f.svc.PredictionInFlight())
	assert.Nil(t, f.svc.LastResult())
	assert.True(t, hasEvent(f.drain(), models.EventTypePredictionFailed))
}

func TestPredict_RejectsConcurrentSubmission(t *testing.T) {
	f := newFixture(t, 0.2, nil)

	release := make(chan struct{})
	entered := make(chan struct{})
	f.mock.SetPredictHook(func(ctx context.Context) error {
		close(entered)
		<-release
		return nil
	})

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Predict(context.Background(), validForm())
		done <- err
	}()

	<-entered
	assert.True(t, f.svc.PredictionInFlight())

	_, err := f.svc.Predict(context.Background(), validForm())
	assert.ErrorIs(t, err, dashboard.ErrPredictionInFlight)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, f.svc.PredictionInFlight())

	f.mock.SetPredictHook(nil)
	result, err := f.svc.Predict(context.Background(), validForm())
	require.NoError(t, err)
	assert.Equal(t, models.RiskLow, result.Category)
	assert.Equal(t, 2, f.mock.Calls("predict"))
}

func TestPredict_UpstreamFailure(t *testing.T) {
	f := newFixture(t, 0.5, nil)
	f.mock.SetPredictError(&churnapi.NetworkError{Endpoint: "POST /predict", StatusCode: 500, Detail: "Prediction failed"})

	_, err := f.svc.Predict(context.Background(), validForm())
	require.Error(t, err)
	assert.ErrorIs(t, err, churnapi.ErrUpstream)
	assert.False(t, f.svc.PredictionInFlight())
	assert.Nil(t, f.svc.LastResult())

	var out strings.Builder
	f.m.WriteTo(&out)
	assert.Contains(t, out.String(), `churn_dashboard_prediction_errors_total{reason="error"} 1`)
}

func TestPredict_CircuitOpen(t *testing.T) {
	mock := churnapi.NewMockClient(churnapi.MockClientConfig{})
	mock.SetOffline(true)
	rc := churnapi.NewResilientClient(churnapi.ResilientClientConfig{
		Client:        mock,
		MaxFailures:   1,
		Timeout:       time.Hour,
		RetryAttempts: 1,
	})
	svc := dashboard.New(dashboard.Config{Client: rc})

	_, err := svc.Predict(context.Background(), validForm())
	assert.ErrorIs(t, err, churnapi.ErrUpstream)

	_, err = svc.Predict(context.Background(), validForm())
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)

	circuit := svc.Circuit()
	require.NotNil(t, circuit)
	assert.Equal(t, resilience.StateOpen, circuit.State)
}

func TestPredict_UnknownRiskLevelFailsClosed(t *testing.T) {
	f := newFixture(t, 0.7, nil)
	f.mock.SetRiskLevel("Extreme")

	result, err := f.svc.Predict(context.Background(), validForm())
	require.NoError(t, err)
	assert.Equal(t, models.RiskUnknown, result.Category)
	assert.Equal(t, "secondary", result.Tone)
	assert.Equal(t, "Extreme", result.RawRiskLevel)

	assert.True(t, hasEvent(f.drain(), models.EventTypeUnknownCategory))
}

func TestPredict_InvalidResponse(t *testing.T) {
	f := newFixture(t, 1.5, nil)

	_, err := f.svc.Predict(context.Background(), validForm())
	require.Error(t, err)
	assert.ErrorIs(t, err, churnapi.ErrInvalidResponse)
	assert.Nil(t, f.svc.LastResult())

	// The mock now reports an average of 1.5, which must not reach the trend.
	_, err = f.svc.RefreshMetrics(context.Background())
	assert.ErrorIs(t, err, churnapi.ErrInvalidResponse)
	assert.Equal(t, 0, f.svc.Trend().Len())
	assert.Nil(t, f.svc.Metrics())
}

func TestPredict_CacheHit(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := cache.Connect(context.Background(), mr.Addr())
	require.NoError(t, err)
	defer client.Close()

	f := newFixture(t, 0.45, cache.NewRedisCache(client, time.Hour))

	first, err := f.svc.Predict(context.Background(), validForm())
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := f.svc.Predict(context.Background(), validForm())
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.CustomerID, second.CustomerID)
	assert.Equal(t, models.RiskMedium, second.Category)

	assert.Equal(t, 1, f.mock.Calls("predict"))
}

func TestRefreshMetrics_Failure(t *testing.T) {
	f := newFixture(t, 0.5, nil)
	f.mock.SetMetricsError(errors.New("boom"))

	_, err := f.svc.RefreshMetrics(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, f.svc.Trend().Len())
}

func TestCheckHealth_StateChangeRaisesAlert(t *testing.T) {
	f := newFixture(t, 0.5, nil)
	ctx := context.Background()

	assert.False(t, f.svc.Ready())
	assert.Equal(t, models.StateOffline, f.svc.Status().State)

	status := f.svc.CheckHealth(ctx)
	assert.Equal(t, models.StateOnline, status.State)
	assert.True(t, f.svc.Ready())
	assert.False(t, hasEvent(f.drain(), models.EventTypeAlert))

	f.mock.SetModelLoaded(false)
	status = f.svc.CheckHealth(ctx)
	assert.Equal(t, models.StateModelUnavailable, status.State)
	assert.Equal(t, "Model Unavailable", f.svc.Status().Label())
	assert.True(t, hasEvent(f.drain(), models.EventTypeAlert))
}

func TestService_StartStop(t *testing.T) {
	f := newFixture(t, 0.3, nil)

	require.NoError(t, f.svc.Start())
	require.NoError(t, f.svc.Start())
	assert.True(t, f.svc.IsRunning())

	require.Eventually(t, func() bool {
		return f.svc.Ready() && f.svc.Trend().Len() >= 2
	}, 2*time.Second, 10*time.Millisecond)

	f.svc.Stop()
	f.svc.Stop()
	assert.False(t, f.svc.IsRunning())

	calls := f.mock.Calls("metrics")
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, calls, f.mock.Calls("metrics"))
}

func TestOverview(t *testing.T) {
	f := newFixture(t, 0.82, nil)
	ctx := context.Background()

	o := f.svc.Overview()
	assert.Equal(t, "API Offline", o.StatusLabel)
	assert.Nil(t, o.Metrics)
	assert.Nil(t, o.RefreshedAt)
	assert.Len(t, o.Distribution, 3)

	f.svc.CheckHealth(ctx)
	_, err := f.svc.Predict(ctx, validForm())
	require.NoError(t, err)

	o = f.svc.Overview()
	assert.Equal(t, "Model Active", o.StatusLabel)
	require.NotNil(t, o.Metrics)
	require.NotNil(t, o.LastResult)
	require.NotNil(t, o.RefreshedAt)
	assert.Equal(t, 1, o.Trend.Len())
	assert.Nil(t, o.Circuit)
}

func TestDistribution(t *testing.T) {
	shares := dashboard.Distribution(models.RiskCounts{Low: 1, Medium: 1, High: 2})
	require.Len(t, shares, 3)
	assert.Equal(t, models.RiskLow, shares[0].Category)
	assert.InDelta(t, 25.0, shares[0].Percent, 1e-9)
	assert.InDelta(t, 25.0, shares[1].Percent, 1e-9)
	assert.InDelta(t, 50.0, shares[2].Percent, 1e-9)

	shares = dashboard.Distribution(models.RiskCounts{Low: 2, Unknown: 1})
	require.Len(t, shares, 4)
	assert.Equal(t, models.RiskUnknown, shares[3].Category)
	assert.InDelta(t, 33.3, shares[3].Percent, 1e-9)
	assert.InDelta(t, 66.7, shares[0].Percent, 1e-9)

	for _, share := range dashboard.Distribution(models.RiskCounts{}) {
		assert.Zero(t, share.Percent)
	}
}

func TestCircuitObserver(t *testing.T) {
	bus := events.NewEventBus(10)
	defer bus.Close()
	ch := bus.Subscribe(models.EventTypeCircuitChanged)
	m := metrics.New()

	dashboard.CircuitObserver(m, events.NewPublisher(bus))("churn-api", resilience.StateClosed, resilience.StateOpen)

	select {
	case ev := <-ch:
		assert.Equal(t, models.SeverityCritical, ev.Severity)
	case <-time.After(time.Second):
		t.Fatal("no circuit event")
	}

	var out strings.Builder
	m.WriteTo(&out)
	assert.Contains(t, out.String(), `churn_dashboard_circuit_breaker_state{name="churn-api"} 1`)
}

func TestRefreshMetrics_ElevatedChurnRaisesAlert(t *testing.T) {
	f := newFixture(t, 0.8, nil)
	ctx := context.Background()

	_, err := f.svc.RefreshMetrics(ctx)
	require.NoError(t, err)
	require.NotNil(t, f.svc.Analysis())
	assert.Equal(t, analyzer.LevelNormal, f.svc.Analysis().Level)
	assert.False(t, hasEvent(f.drain(), models.EventTypeAlert))

	_, err = f.svc.Predict(ctx, validForm())
	require.NoError(t, err)

	overview := f.svc.Overview()
	require.NotNil(t, overview.Analysis)
	assert.Equal(t, analyzer.LevelCritical, overview.Analysis.Level)
	assert.Equal(t, "investigate_immediately", overview.Analysis.Recommendation)

	var critical bool
	for _, ev := range f.drain() {
		if ev.Type == models.EventTypeAlert && ev.Severity == models.SeverityCritical {
			critical = true
		}
	}
	assert.True(t, critical)
}

func TestPredict_NaiveTimestampUsesConfiguredLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/predict" {
			w.Write([]byte(`{"customer_id":"C-9","churn_prediction":0,"churn_probability":0.1,"risk_level":"Low","timestamp":"2024-06-01T12:00:00"}`))
			return
		}
		w.Write([]byte(`{"total_predictions":1,"predictions_by_risk":{"low":1},"average_churn_probability":0.1}`))
	}))
	defer srv.Close()

	berlin := time.FixedZone("CEST", 2*60*60)
	svc := dashboard.New(dashboard.Config{
		Client:   churnapi.NewHTTPClient(churnapi.HTTPClientConfig{BaseURL: srv.URL, Timeout: time.Second}),
		Location: berlin,
	})

	result, err := svc.Predict(context.Background(), validForm())
	require.NoError(t, err)
	assert.True(t, result.PredictedAt.Equal(time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)))
}

func TestLastResult_ReturnsIndependentCopy(t *testing.T) {
	f := newFixture(t, 0.82, nil)

	returned, err := f.svc.Predict(context.Background(), validForm())
	require.NoError(t, err)
	returned.Actions[0] = "changed by caller"

	first := f.svc.LastResult()
	require.NotEmpty(t, first.Actions)
	want := first.Actions[0]
	first.Actions[0] = "tampered"
	first.Actions = append(first.Actions, "extra")

	again := f.svc.LastResult()
	assert.Equal(t, want, again.Actions[0])
	assert.Len(t, again.Actions, len(first.Actions)-1)
	assert.Equal(t, want, f.svc.Overview().LastResult.Actions[0])
}
