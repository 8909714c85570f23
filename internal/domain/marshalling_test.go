package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJob(t *testing.T, id int) PickRequest {
	t.Helper()
	skus := []string{"1", "1", "1", "1", "2", "2", "2", "2"}
	route, err := Optimize(skus, newTestStockRoom(t, nil))
	require.NoError(t, err)
	orders := []Order{{"SES", "Blue"}, {"SES", "Blue"}, {"SES", "Blue"}, {"SES", "Blue"}}
	job, err := NewPickRequest(id, skus, route, orders)
	require.NoError(t, err)
	return job
}

func TestMarshalling_AddPickRequestIsIdempotent(t *testing.T) {
	m := NewMarshalling()
	m.AddPickRequest(testJob(t, 1))
	m.AddPickRequest(testJob(t, 2))
	m.AddPickRequest(testJob(t, 1))
	m.RedoPickRequest(testJob(t, 2))
	assert.Equal(t, []int{1, 2}, m.SequencingQueue())

	m.RedoPickRequest(testJob(t, 3))
	assert.Equal(t, []int{3, 1, 2}, m.SequencingQueue())

	head, ok := m.RemovePickRequest()
	require.True(t, ok)
	assert.Equal(t, 3, head.ID())
}

func TestMarshalling_ReceiveSequencer(t *testing.T) {
	tests := []struct {
		name        string
		queued      []int
		droppedOff  []int
		expectedID  int
		expectedErr error
	}{
		{name: "Nothing dropped off", queued: []int{1}, expectedErr: ErrNothingDroppedOff},
		{name: "Dropped off but nothing queued", droppedOff: []int{1}, expectedErr: ErrNotReady},
		{name: "Head not yet dropped off", queued: []int{1, 2}, droppedOff: []int{2}, expectedErr: ErrNotReady},
		{name: "Head dropped off", queued: []int{1, 2}, droppedOff: []int{2, 1}, expectedID: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMarshalling()
			for _, id := range tt.queued {
				m.AddPickRequest(testJob(t, id))
			}
			for _, id := range tt.droppedOff {
				m.ReceivePicker(id)
			}

			job, err := m.ReceiveSequencer()
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.True(t, IsUnavailable(err))
				assert.Equal(t, tt.queued, nilIfEmpty(m.SequencingQueue()))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedID, job.ID())
			assert.NotContains(t, m.DropOffs(), tt.expectedID)
			assert.NotContains(t, m.SequencingQueue(), tt.expectedID)
		})
	}
}

func TestMarshalling_ReceiveSequencerCallOrder(t *testing.T) {
	t.Run("Drop-off reported before queueing is still matched", func(t *testing.T) {
		m := NewMarshalling()
		m.ReceivePicker(1)
		m.AddPickRequest(testJob(t, 1))
		_, err := m.ReceiveSequencer()
		assert.NoError(t, err)
	})

	t.Run("Sequencer asking before the drop-off is not ready", func(t *testing.T) {
		m := NewMarshalling()
		m.AddPickRequest(testJob(t, 1))
		m.ReceivePicker(2)

		_, err := m.ReceiveSequencer()
		assert.ErrorIs(t, err, ErrNotReady)

		m.ReceivePicker(1)
		job, err := m.ReceiveSequencer()
		require.NoError(t, err)
		assert.Equal(t, 1, job.ID())
		assert.Equal(t, []int{2}, m.DropOffs())
	})
}

func TestMarshalling_Loader(t *testing.T) {
	m := NewMarshalling()
	_, err := m.ReceiveLoader()
	assert.ErrorIs(t, err, ErrNothingToLoad)

	m.AddLoaderRequest(testJob(t, 4))
	m.AddLoaderRequest(testJob(t, 5))
	assert.Equal(t, []int{4, 5}, m.LoaderQueue())

	job, err := m.ReceiveLoader()
	require.NoError(t, err)
	assert.Equal(t, 4, job.ID())

	m.returnLoaderRequest(job)
	assert.Equal(t, []int{4, 5}, m.LoaderQueue())
}

func TestMarshalling_LoadTruck(t *testing.T) {
	m := NewMarshalling(WithTruckCapacity(2))
	orders := []Order{{"SES", "Blue"}}

	first, created := m.LoadTruck(orders)
	assert.True(t, created)
	assert.Equal(t, 0, first.ID())

	same, created := m.LoadTruck(orders)
	assert.False(t, created)
	assert.Same(t, first, same)
	assert.True(t, first.IsFull())

	second, created := m.LoadTruck(orders)
	assert.True(t, created)
	assert.Equal(t, 1, second.ID())
	assert.Len(t, m.Trucks(), 2)
}

func TestMarshalling_TruckIDsFromContext(t *testing.T) {
	next := 40
	m := NewMarshalling(WithTruckCapacity(1), WithTruckIDs(func() int { next++; return next }))
	truck, _ := m.LoadTruck(nil)
	assert.Equal(t, 41, truck.ID())
}

func nilIfEmpty(ids []int) []int {
	if len(ids) == 0 {
		return nil
	}
	return ids
}
