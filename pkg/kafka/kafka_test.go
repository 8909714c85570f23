package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/fulfillment-simulator/pkg/cloudevents"
	"github.com/wms-platform/fulfillment-simulator/pkg/metrics"
	"github.com/wms-platform/fulfillment-simulator/pkg/resilience"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func newFakeProducer() (*Producer, map[string]*fakeWriter) {
	writers := map[string]*fakeWriter{}
	p := NewProducerWithWriters(DefaultConfig(), func(topic string) MessageWriter {
		w := &fakeWriter{}
		writers[topic] = w
		return w
	})
	return p, writers
}

func testEvent() *cloudevents.WMSCloudEvent {
	factory := cloudevents.NewEventFactory(cloudevents.SourceSimulator)
	event := factory.CreateTruckLoadedEvent(context.Background(), cloudevents.TruckLoadedData{
		PickRequestID: 1,
		TruckID:       0,
	}, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	return event.WithRun("run-1", 2)
}

func headers(msg kafka.Message) map[string]string {
	out := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		out[h.Key] = string(h.Value)
	}
	return out
}

func TestTopicFor(t *testing.T) {
	tests := []struct {
		eventType string
		expected  string
	}{
		{cloudevents.PickRequestCreated, Topics.SimulationEvents},
		{cloudevents.RunCompleted, Topics.SimulationEvents},
		{cloudevents.LowStockAlert, Topics.InventoryEvents},
		{cloudevents.ShelfReplenished, Topics.InventoryEvents},
		{cloudevents.TruckLoaded, Topics.ShippingEvents},
		{"something.else", Topics.SimulationEvents},
	}
	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			assert.Equal(t, tt.expected, TopicFor(tt.eventType))
		})
	}
}

func TestParseBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, ParseBrokers(" a:9092, ,b:9092 "))
	assert.Nil(t, ParseBrokers(""))
}

func TestProducer_PublishEvent(t *testing.T) {
	p, writers := newFakeProducer()
	event := testEvent()
	event.TraceParent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"

	require.NoError(t, p.PublishEvent(context.Background(), Topics.ShippingEvents, event))

	w := writers[Topics.ShippingEvents]
	require.NotNil(t, w)
	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, "run-1/2", string(msg.Key))

	h := headers(msg)
	assert.Equal(t, cloudevents.TruckLoaded, h["ce-type"])
	assert.Equal(t, "run-1", h["ce-wmsrunid"])
	assert.Equal(t, "2", h["ce-wmswarehouse"])
	assert.Equal(t, event.TraceParent, h["ce-traceparent"])
	assert.NotContains(t, h, "ce-tracestate")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event.ID, decoded["id"])
	assert.Equal(t, float64(2), decoded["wmswarehouse"])

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestProducer_PublishBatchReusesWriter(t *testing.T) {
	p, writers := newFakeProducer()
	ctx := context.Background()

	require.NoError(t, p.PublishBatch(ctx, Topics.SimulationEvents, []*cloudevents.WMSCloudEvent{testEvent(), testEvent()}))
	require.NoError(t, p.PublishEvent(ctx, Topics.SimulationEvents, testEvent()))
	require.NoError(t, p.PublishBatch(ctx, Topics.SimulationEvents, nil))

	assert.Len(t, writers, 1)
	assert.Len(t, writers[Topics.SimulationEvents].messages, 3)
}

func TestInstrumentedProducer_RecordsMetrics(t *testing.T) {
	p, _ := newFakeProducer()
	m := metrics.New(metrics.DefaultConfig("test"))
	ip := NewInstrumentedProducer(p, m, nil)

	require.NoError(t, ip.PublishEvent(context.Background(), Topics.ShippingEvents, testEvent()))

	counter, err := m.KafkaEventsPublished.GetMetricWithLabelValues("test", Topics.ShippingEvents, cloudevents.TruckLoaded, "success")
	require.NoError(t, err)
	assert.NotNil(t, counter)
}

func TestCircuitBreakerProducer_TripsOnFailures(t *testing.T) {
	broken := errors.New("broker unavailable")
	p := NewProducerWithWriters(DefaultConfig(), func(string) MessageWriter {
		return &fakeWriter{err: broken}
	})
	config := ProducerBreakerConfig()
	config.FailureThreshold = 2
	cb := NewCircuitBreakerProducer(p, config, nil)
	ctx := context.Background()

	assert.ErrorIs(t, cb.PublishEvent(ctx, Topics.SimulationEvents, testEvent()), broken)
	assert.ErrorIs(t, cb.PublishEvent(ctx, Topics.SimulationEvents, testEvent()), broken)

	err := cb.PublishEvent(ctx, Topics.SimulationEvents, testEvent())
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.True(t, cb.CircuitBreaker().IsOpen())
}
