package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAssignee struct {
	assigned []PickRequest
	err      error
}

func (s *stubAssignee) AssignPickRequest(job PickRequest) error {
	if s.err != nil {
		return s.err
	}
	s.assigned = append(s.assigned, job)
	return nil
}

func newTestOrderHandler(t *testing.T, opts ...OrderHandlerOption) (*OrderHandler, *Marshalling) {
	t.Helper()
	m := NewMarshalling()
	return NewOrderHandler(testTranslation(), newTestStockRoom(t, nil), m, opts...), m
}

func TestOrderHandler_AddOrder(t *testing.T) {
	tests := []struct {
		name        string
		order       Order
		expectedErr error
	}{
		{name: "Known order", order: Order{Model: "SES", Colour: "Blue"}},
		{name: "Unknown colour", order: Order{Model: "SES", Colour: "Pink"}, expectedErr: ErrUnknownOrder},
		{name: "Model and colour must both match", order: Order{Model: "S", Colour: "Blue"}, expectedErr: ErrUnknownOrder},
		{name: "Rear sku not stocked", order: Order{Model: "SE", Colour: "Green"}, expectedErr: ErrSKUNotStocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestOrderHandler(t)
			err := h.AddOrder(tt.order)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Equal(t, 0, h.PendingOrders())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, h.PendingOrders())
		})
	}
}

func TestOrderHandler_Batching(t *testing.T) {
	log := NewEventLog(testClock)
	h, _ := newTestOrderHandler(t, WithOrderEvents(log))
	order := Order{Model: "SES", Colour: "Blue"}

	for i := 0; i < DefaultBatchSize-1; i++ {
		require.NoError(t, h.AddOrder(order))
	}
	assert.Empty(t, h.QueuedJobs(), "no job before a full batch")

	require.NoError(t, h.AddOrder(order))
	assert.Equal(t, []int{1}, h.QueuedJobs())

	for i := 0; i < DefaultBatchSize; i++ {
		require.NoError(t, h.AddOrder(order))
	}
	assert.Equal(t, []int{1, 2}, h.QueuedJobs())
	assert.Equal(t, 0, h.PendingOrders())

	job, ok := h.PeekJob()
	require.True(t, ok)
	assert.Equal(t, 1, job.ID())
	assert.Equal(t, 8, job.Size())
	assert.Len(t, job.Orders(), DefaultBatchSize)
	assert.Equal(t, []string{"1", "1", "1", "1", "2", "2", "2", "2"}, job.SKUPackage())
	assert.Equal(t, []string{"1", "1", "1", "1", "2", "2", "2", "2"}, job.RouteSKUs())

	assert.Equal(t, []string{EventTypePickRequestCreated, EventTypePickRequestCreated}, eventTypes(log.Events()))
}

func TestOrderHandler_MixedBatch(t *testing.T) {
	h, _ := newTestOrderHandler(t)
	for _, o := range []Order{
		{Model: "SES", Colour: "Blue"},
		{Model: "SES", Colour: "Red"},
		{Model: "S", Colour: "White"},
		{Model: "SE", Colour: "Black"},
	} {
		require.NoError(t, h.AddOrder(o))
	}

	job, ok := h.PeekJob()
	require.True(t, ok)
	assert.Equal(t, []string{"7", "5", "3", "1", "8", "6", "4", "2"}, job.SKUPackage())
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6", "7", "8"}, job.RouteSKUs())
	assert.Equal(t, Order{Model: "SES", Colour: "Blue"}, job.Orders()[0])
}

func TestOrganizeSKUs(t *testing.T) {
	t.Run("Fronts last to first, then rears last to first", func(t *testing.T) {
		arrival := []string{"f1", "r1", "f2", "r2", "f3", "r3", "f4", "r4"}
		assert.Equal(t, []string{"f4", "f3", "f2", "f1", "r4", "r3", "r2", "r1"}, OrganizeSKUs(arrival))
	})

	t.Run("Fixed permutation of arrival positions", func(t *testing.T) {
		arrival := []string{"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7"}
		assert.Equal(t, []string{"s6", "s4", "s2", "s0", "s7", "s5", "s3", "s1"}, OrganizeSKUs(arrival))
	})
}

func TestOrderHandler_SendPickRequest(t *testing.T) {
	order := Order{Model: "SES", Colour: "Blue"}

	t.Run("Empty queue is unavailable", func(t *testing.T) {
		h, _ := newTestOrderHandler(t)
		_, err := h.SendPickRequest(&stubAssignee{})
		assert.ErrorIs(t, err, ErrNoPickRequest)
		assert.True(t, IsUnavailable(err))
	})

	t.Run("Hands the job to the picker and queues it for sequencing", func(t *testing.T) {
		h, m := newTestOrderHandler(t)
		for i := 0; i < DefaultBatchSize; i++ {
			require.NoError(t, h.AddOrder(order))
		}

		picker := &stubAssignee{}
		job, err := h.SendPickRequest(picker)
		require.NoError(t, err)
		assert.Equal(t, 1, job.ID())
		require.Len(t, picker.assigned, 1)
		assert.Equal(t, 1, picker.assigned[0].ID())
		assert.Empty(t, h.QueuedJobs())
		assert.Equal(t, []int{1}, m.SequencingQueue())
	})

	t.Run("Refused job returns to the head of the queue", func(t *testing.T) {
		h, m := newTestOrderHandler(t)
		for i := 0; i < 2*DefaultBatchSize; i++ {
			require.NoError(t, h.AddOrder(order))
		}

		refusal := errors.New("refused")
		_, err := h.SendPickRequest(&stubAssignee{err: refusal})
		assert.ErrorIs(t, err, refusal)
		assert.Equal(t, []int{1, 2}, h.QueuedJobs())
		assert.Empty(t, m.SequencingQueue())
	})
}

func TestOrderHandler_PriorityQueue(t *testing.T) {
	h, _ := newTestOrderHandler(t)
	for i := 0; i < DefaultBatchSize; i++ {
		require.NoError(t, h.AddOrder(Order{Model: "SES", Colour: "Blue"}))
	}

	redo, err := NewPickRequest(9, make([]string, 8), make([]RouteStop, 8), make([]Order, 4))
	require.NoError(t, err)
	h.PriorityQueue(redo)

	assert.Equal(t, []int{9, 1}, h.QueuedJobs())
}
