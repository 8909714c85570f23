package domain

import (
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func applyScript(t *testing.T, w *Warehouse, lines ...string) []error {
	t.Helper()
	var refusals []error
	for _, line := range lines {
		ev, err := ParseEvent(line)
		require.NoError(t, err, line)
		if err := w.Apply(ev); err != nil {
			refusals = append(refusals, err)
		}
	}
	return refusals
}

func TestWarehouse_EmptyScriptExportsEverySKU(t *testing.T) {
	w := newTestWarehouse(t)

	inventory := w.FinalInventory()
	assert.Len(t, inventory, len(testTraversal()))
	assert.True(t, slices.IsSorted(inventory))
	for _, line := range inventory {
		assert.True(t, strings.HasSuffix(line, ",30"), line)
	}
	assert.Empty(t, w.OrderManifest())
	assert.Empty(t, w.DomainEvents())
}

func TestWarehouse_FullBatchThenPickerReady(t *testing.T) {
	w := newTestWarehouse(t)

	refusals := applyScript(t, w,
		"Order SES Blue",
		"Order SES Blue",
		"Order SES Blue",
		"Order SES Blue",
		"Picker Alice ready",
	)
	require.Empty(t, refusals)

	picker := scannerOf(t, w, "Alice")
	assert.Equal(t, 1, picker.CurrentJobID())
	assert.Len(t, picker.Expected(), 8)
}

func TestWarehouse_ScriptRun(t *testing.T) {
	w := newTestWarehouse(t)

	refusals := applyScript(t, w,
		"Order SES Blue",
		"Order SES Pink",
		"Order SES Red",
		"Order S White",
		"Order SE Black",
		"Sequencer Sue ready",
		"Picker Alice ready",
		"Picker Alice scans 1",
		"Picker Alice scans 3",
		"Picker Alice rescans",
		"Picker Alice scans 1",
		"Picker Alice scans 2",
		"Picker Alice scans 3",
		"Picker Alice scans 4",
		"Picker Alice scans 5",
		"Picker Alice scans 6",
		"Picker Alice scans 7",
		"Picker Alice completes",
		"Picker Alice scans 8",
		"Picker Alice completes",
		"Sequencer Sue ready",
		"Sequencer Sue scans 7",
		"Sequencer Sue scans 5",
		"Sequencer Sue scans 3",
		"Sequencer Sue scans 1",
		"Sequencer Sue scans 8",
		"Sequencer Sue scans 6",
		"Sequencer Sue scans 4",
		"Sequencer Sue scans 2",
		"Sequencer Sue completes",
		"Loader Lou ready",
		"Loader Lou scans 7",
		"Loader Lou scans 5",
		"Loader Lou scans 3",
		"Loader Lou scans 1",
		"Loader Lou scans 8",
		"Loader Lou scans 6",
		"Loader Lou scans 4",
		"Loader Lou scans 2",
		"Loader Lou completes",
		"Replenisher Rita replenish A 0 0 0",
	)

	require.Len(t, refusals, 4)
	assert.ErrorIs(t, refusals[0], ErrUnknownOrder)
	assert.ErrorIs(t, refusals[1], ErrNothingDroppedOff)
	assert.ErrorIs(t, refusals[2], ErrInvalidScan)
	assert.ErrorIs(t, refusals[3], ErrNotVerified)

	assert.Equal(t, []string{"SES, Blue", "SES, Red", "S, White", "SE, Black"}, w.OrderManifest())

	inventory := w.FinalInventory()
	assert.Equal(t, "A,0,0,0,53", inventory[0])
	assert.Equal(t, "A,0,0,1,29", inventory[1])
	assert.Len(t, w.Workers(), 4)

	w.ClearDomainEvents()
	assert.Empty(t, w.DomainEvents())
}

func TestWarehouse_Apply(t *testing.T) {
	w := newTestWarehouse(t)

	err := w.Apply(Event{Kind: "teleport"})
	assert.ErrorIs(t, err, ErrMalformedEvent)

	err = w.Apply(Event{Kind: EventReady, Station: "Forklift", Worker: "Fred"})
	assert.ErrorIs(t, err, ErrUnknownStation)

	err = w.Apply(Event{Kind: EventOrder, Model: "", Colour: "Blue"})
	assert.ErrorIs(t, err, ErrInvalidOrder)
}

func TestWarehouse_PullDomainEvents(t *testing.T) {
	w := newTestWarehouse(t)
	placeBatch(t, w)

	events := w.PullDomainEvents()
	require.Len(t, events, 1)
	created := events[0].(*PickRequestCreatedEvent)
	assert.Equal(t, 1, created.PickRequestID)
	assert.Equal(t, fixedTime, created.CreatedAt)
	assert.Empty(t, w.DomainEvents())
}

func TestWarehouse_Workers(t *testing.T) {
	w := newTestWarehouse(t)
	placeBatch(t, w)
	applyScript(t, w,
		"Picker Alice ready",
		"Picker Alice scans 1",
		"Replenisher Rita ready",
	)

	workers := w.Workers()
	require.Len(t, workers, 2)
	assert.Equal(t, WorkerStatus{
		Name:     "Alice",
		Station:  StationPicker,
		State:    WorkerVerifying,
		JobID:    1,
		Position: 1,
		Expected: []string{"1", "1", "1", "1", "2", "2", "2", "2"},
	}, workers[0])
	assert.Equal(t, WorkerStatus{Name: "Rita", Station: StationReplenisher, State: WorkerIdle}, workers[1])
}
