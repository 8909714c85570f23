package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	shared "github.com/wms-platform/fulfillment-simulator/pkg/domain"
)

func placeMixedBatch(t *testing.T, w *Warehouse) {
	t.Helper()
	require.NoError(t, w.PlaceOrder("SES", "Blue"))
	require.NoError(t, w.PlaceOrder("SES", "Red"))
	require.NoError(t, w.PlaceOrder("S", "White"))
	require.NoError(t, w.PlaceOrder("SE", "Black"))
}

func scannerOf(t *testing.T, w *Warehouse, name string) Scanner {
	t.Helper()
	st, ok := w.Worker(name)
	require.True(t, ok)
	sc, ok := st.(Scanner)
	require.True(t, ok)
	return sc
}

func TestPicker_ReadyAssignsFirstJob(t *testing.T) {
	w := newTestWarehouse(t)
	placeBatch(t, w)

	require.NoError(t, w.Ready(StationPicker, "Alice"))

	picker := scannerOf(t, w, "Alice")
	assert.Equal(t, 1, picker.CurrentJobID())
	assert.Len(t, picker.Expected(), 8)
	assert.Equal(t, WorkerAssigned, picker.State())
	assert.Equal(t, []int{1}, w.Marshalling().SequencingQueue())
}

func TestPicker_ReadyWithoutWork(t *testing.T) {
	w := newTestWarehouse(t)

	err := w.Ready(StationPicker, "Alice")
	assert.ErrorIs(t, err, ErrNoPickRequest)
	assert.True(t, IsUnavailable(err))

	picker := scannerOf(t, w, "Alice")
	assert.Equal(t, WorkerIdle, picker.State())
	assert.Equal(t, 0, picker.CurrentJobID())
}

func TestPicker_ReadyWhileBusy(t *testing.T) {
	w := newTestWarehouse(t)
	placeBatch(t, w)
	placeBatch(t, w)
	require.NoError(t, w.Ready(StationPicker, "Alice"))

	err := w.Ready(StationPicker, "Alice")
	assert.ErrorIs(t, err, ErrWorkerBusy)
	assert.Equal(t, 1, scannerOf(t, w, "Alice").CurrentJobID())
	assert.Equal(t, []int{2}, w.OrderHandler().QueuedJobs())
}

func TestPicker_ExpectsTravelRouteOrder(t *testing.T) {
	w := newTestWarehouse(t)
	placeMixedBatch(t, w)
	require.NoError(t, w.Ready(StationPicker, "Alice"))

	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6", "7", "8"}, scannerOf(t, w, "Alice").Expected())
}

func TestPicker_ScanTakesStock(t *testing.T) {
	w := newTestWarehouse(t)
	placeBatch(t, w)
	require.NoError(t, w.Ready(StationPicker, "Alice"))

	scanAll(t, w, StationPicker, "Alice")

	picker := scannerOf(t, w, "Alice")
	assert.Equal(t, WorkerVerified, picker.State())
	for _, sku := range []string{"1", "2"} {
		qty, err := w.StockRoom().Quantity(sku)
		require.NoError(t, err)
		assert.Equal(t, DefaultStockLevel-4, qty)
	}

	err := w.Scan(StationPicker, "Alice", "2")
	assert.ErrorIs(t, err, ErrAlreadyVerified)
}

func TestPicker_OutOfStockScanDoesNotAdvance(t *testing.T) {
	tables := testTables()
	tables.Initial = []StockRow{{Location: shared.MustNewLocation("A", 0, 0, 0), Quantity: 0}}
	w, err := NewWarehouse(0, tables)
	require.NoError(t, err)
	placeBatch(t, w)
	require.NoError(t, w.Ready(StationPicker, "Alice"))

	err = w.Scan(StationPicker, "Alice", "1")
	assert.ErrorIs(t, err, ErrOutOfStock)

	picker := scannerOf(t, w, "Alice")
	assert.Equal(t, 0, picker.Position())
	assert.False(t, picker.Misscanned())
}

func TestScanner_Misscan(t *testing.T) {
	w := newTestWarehouse(t)
	placeBatch(t, w)
	require.NoError(t, w.Ready(StationPicker, "Alice"))
	require.NoError(t, w.Scan(StationPicker, "Alice", "1"))

	err := w.Scan(StationPicker, "Alice", "2")
	var misscan *MisscanError
	require.ErrorAs(t, err, &misscan)
	assert.Equal(t, 1, misscan.Position)
	assert.Equal(t, "1", misscan.Expected)
	assert.Equal(t, "2", misscan.Got)
	assert.ErrorIs(t, err, ErrInvalidScan)

	picker := scannerOf(t, w, "Alice")
	assert.True(t, picker.Misscanned())
	assert.Equal(t, 1, picker.Position())

	err = w.Scan(StationPicker, "Alice", "1")
	assert.ErrorIs(t, err, ErrMisscanned, "flag is sticky until a rescan")

	require.NoError(t, w.Rescan(StationPicker, "Alice"))
	assert.False(t, picker.Misscanned())
	assert.Equal(t, 0, picker.Position())
	assert.Equal(t, 1, picker.CurrentJobID(), "rescan keeps the job")
	require.NoError(t, w.Scan(StationPicker, "Alice", "1"))
}

func TestScanner_CompleteBeforeVerified(t *testing.T) {
	w := newTestWarehouse(t)
	placeBatch(t, w)
	require.NoError(t, w.Ready(StationPicker, "Alice"))
	require.NoError(t, w.Scan(StationPicker, "Alice", "1"))

	err := w.Complete(StationPicker, "Alice")
	assert.ErrorIs(t, err, ErrNotVerified)
	assert.True(t, IsSequencingError(err))

	picker := scannerOf(t, w, "Alice")
	assert.Equal(t, WorkerVerifying, picker.State())
	assert.Equal(t, 1, picker.CurrentJobID())
	assert.Empty(t, w.Marshalling().DropOffs())
}

func TestScanner_ScanWithoutJob(t *testing.T) {
	w := newTestWarehouse(t)
	_ = w.Ready(StationLoader, "Lou")

	err := w.Scan(StationLoader, "Lou", "1")
	assert.ErrorIs(t, err, ErrNoJob)

	err = w.Discard(StationLoader, "Lou")
	assert.ErrorIs(t, err, ErrNoJob)
}

func TestPipeline_PickSequenceLoad(t *testing.T) {
	w := newTestWarehouse(t)
	placeMixedBatch(t, w)

	runThroughPicker(t, w, "Alice")
	assert.Equal(t, []int{1}, w.Marshalling().DropOffs())

	require.NoError(t, w.Ready(StationSequencer, "Sue"))
	sequencer := scannerOf(t, w, "Sue")
	assert.Equal(t, []string{"7", "5", "3", "1", "8", "6", "4", "2"}, sequencer.Expected())
	scanAll(t, w, StationSequencer, "Sue")
	require.NoError(t, w.Complete(StationSequencer, "Sue"))
	assert.Equal(t, []int{1}, w.Marshalling().LoaderQueue())

	require.NoError(t, w.Ready(StationLoader, "Lou"))
	scanAll(t, w, StationLoader, "Lou")
	require.NoError(t, w.Complete(StationLoader, "Lou"))

	assert.Equal(t, []string{"SES, Blue", "SES, Red", "S, White", "SE, Black"}, w.OrderManifest())
	assert.Equal(t, []string{
		EventTypePickRequestCreated,
		EventTypeStationCompleted,
		EventTypeStationCompleted,
		EventTypeTruckLoaded,
		EventTypeStationCompleted,
	}, eventTypes(w.DomainEvents()))

	for _, name := range []string{"Alice", "Sue", "Lou"} {
		assert.Equal(t, WorkerIdle, scannerOf(t, w, name).State(), name)
	}
}

func TestSequencer_WaitsForDropOff(t *testing.T) {
	w := newTestWarehouse(t)
	placeBatch(t, w)
	require.NoError(t, w.Ready(StationPicker, "Alice"))

	err := w.Ready(StationSequencer, "Sue")
	assert.ErrorIs(t, err, ErrNothingDroppedOff)
	assert.Equal(t, WorkerIdle, scannerOf(t, w, "Sue").State())
}

func TestLoader_FillsTrucksInOrder(t *testing.T) {
	w := newTestWarehouse(t, WithTruckSize(1))
	for i := 0; i < 2; i++ {
		placeBatch(t, w)
		runThroughPicker(t, w, "Alice")
		require.NoError(t, w.Ready(StationSequencer, "Sue"))
		scanAll(t, w, StationSequencer, "Sue")
		require.NoError(t, w.Complete(StationSequencer, "Sue"))
		require.NoError(t, w.Ready(StationLoader, "Lou"))
		scanAll(t, w, StationLoader, "Lou")
		require.NoError(t, w.Complete(StationLoader, "Lou"))
	}

	trucks := w.Marshalling().Trucks()
	require.Len(t, trucks, 2)
	assert.Equal(t, 0, trucks[0].ID())
	assert.Equal(t, 1, trucks[1].ID())
	assert.Len(t, w.OrderManifest(), 8)

	var loaded []*TruckLoadedEvent
	for _, e := range w.DomainEvents() {
		if tl, ok := e.(*TruckLoadedEvent); ok {
			loaded = append(loaded, tl)
		}
	}
	require.Len(t, loaded, 2)
	assert.True(t, loaded[0].NewTruck)
	assert.Equal(t, 2, loaded[1].PickRequestID)
}

func TestScanner_Discard(t *testing.T) {
	t.Run("Picker discard requeues the job for picking", func(t *testing.T) {
		w := newTestWarehouse(t)
		placeBatch(t, w)
		require.NoError(t, w.Ready(StationPicker, "Alice"))
		require.NoError(t, w.Scan(StationPicker, "Alice", "1"))

		require.NoError(t, w.Discard(StationPicker, "Alice"))

		picker := scannerOf(t, w, "Alice")
		assert.Equal(t, WorkerIdle, picker.State())
		assert.Equal(t, 0, picker.CurrentJobID())
		assert.Equal(t, []int{1}, w.OrderHandler().QueuedJobs())
		assert.Equal(t, []int{1}, w.Marshalling().SequencingQueue())
	})

	t.Run("Sequencer discard requeues for picking and sequencing", func(t *testing.T) {
		w := newTestWarehouse(t)
		placeBatch(t, w)
		placeBatch(t, w)
		runThroughPicker(t, w, "Alice")
		require.NoError(t, w.Ready(StationSequencer, "Sue"))
		require.NoError(t, w.Ready(StationPicker, "Alice"))
		assert.Equal(t, []int{2}, w.Marshalling().SequencingQueue())
		w.ClearDomainEvents()

		require.NoError(t, w.Discard(StationSequencer, "Sue"))

		sequencer := scannerOf(t, w, "Sue")
		assert.Equal(t, WorkerIdle, sequencer.State())
		assert.Equal(t, 0, sequencer.CurrentJobID())

		job, ok := w.OrderHandler().PeekJob()
		require.True(t, ok)
		assert.Equal(t, 1, job.ID())
		assert.Equal(t, []int{1, 2}, w.Marshalling().SequencingQueue())

		events := w.DomainEvents()
		require.Len(t, events, 1)
		discarded := events[0].(*PickRequestDiscardedEvent)
		assert.Equal(t, 1, discarded.PickRequestID)
		assert.Equal(t, StationSequencer, discarded.Station)
		assert.Equal(t, "Sue", discarded.Worker)
	})

	t.Run("Discarded job is picked again before newer work", func(t *testing.T) {
		w := newTestWarehouse(t)
		placeBatch(t, w)
		placeBatch(t, w)
		require.NoError(t, w.Ready(StationPicker, "Alice"))
		require.NoError(t, w.Discard(StationPicker, "Alice"))

		require.NoError(t, w.Ready(StationPicker, "Bob"))
		assert.Equal(t, 1, scannerOf(t, w, "Bob").CurrentJobID())
	})
}

func TestScanner_JobSizeMismatch(t *testing.T) {
	t.Run("Picker refusal keeps the job queued", func(t *testing.T) {
		w := newTestWarehouse(t)
		placeBatch(t, w)
		picker := NewPicker("Tiny", &Facilities{
			Stock:       w.StockRoom(),
			Orders:      w.OrderHandler(),
			Marshalling: w.Marshalling(),
			Capacity:    6,
		})

		err := picker.Ready()
		assert.ErrorIs(t, err, ErrJobSizeMismatch)
		assert.Equal(t, WorkerIdle, picker.State())
		assert.Equal(t, []int{1}, w.OrderHandler().QueuedJobs())
		assert.Empty(t, w.Marshalling().SequencingQueue())
	})

	t.Run("Sequencer refusal restores the queue head and drop-off", func(t *testing.T) {
		w := newTestWarehouse(t)
		placeBatch(t, w)
		runThroughPicker(t, w, "Alice")
		sequencer := NewSequencer("Tiny", &Facilities{Marshalling: w.Marshalling(), Capacity: 6})

		err := sequencer.Ready()
		assert.ErrorIs(t, err, ErrJobSizeMismatch)
		assert.Equal(t, []int{1}, w.Marshalling().SequencingQueue())
		assert.Equal(t, []int{1}, w.Marshalling().DropOffs())
	})
}

func TestWarehouse_WorkerLookup(t *testing.T) {
	w := newTestWarehouse(t)
	placeBatch(t, w)
	require.NoError(t, w.Ready(StationPicker, "Alice"))

	err := w.Scan(StationPicker, "Nobody", "1")
	assert.ErrorIs(t, err, ErrUnknownWorker)

	err = w.Scan(StationSequencer, "Alice", "1")
	assert.ErrorIs(t, err, ErrUnknownWorker)
	assert.ErrorIs(t, err, ErrStationMismatch)

	err = w.Ready(StationLoader, "Alice")
	assert.ErrorIs(t, err, ErrStationMismatch)
	assert.Len(t, w.Workers(), 1)
}

func TestReplenisher(t *testing.T) {
	w := newTestWarehouse(t)
	loc := shared.MustNewLocation("A", 0, 0, 4)

	require.NoError(t, w.Replenish("Rita", loc))
	qty, err := w.StockRoom().Quantity("5")
	require.NoError(t, err)
	assert.Equal(t, DefaultStockLevel+DefaultRestockAmount, qty)

	st, ok := w.Worker("Rita")
	require.True(t, ok)
	assert.Equal(t, StationReplenisher, st.Kind())
	_, scans := st.(Scanner)
	assert.False(t, scans)

	assert.NoError(t, w.Ready(StationReplenisher, "Rita"))
	err = w.Complete(StationReplenisher, "Rita")
	assert.ErrorIs(t, err, ErrUnsupportedAction)

	err = w.Replenish("Rita", shared.MustNewLocation("Z", 0, 0, 0))
	assert.ErrorIs(t, err, ErrUnknownLocation)
}

func TestNewStation(t *testing.T) {
	f := &Facilities{}
	for kind := range Stations {
		st, err := NewStation(kind, "w", f)
		require.NoError(t, err)
		assert.Equal(t, kind, st.Kind())
		assert.Equal(t, "w", st.Name())
	}

	_, err := NewStation("Forklift", "w", f)
	assert.True(t, errors.Is(err, ErrUnknownStation))

	_, err = ParseStationKind("picker")
	assert.ErrorIs(t, err, ErrUnknownStation)
}
