package domain

import (
	"slices"
	"sync"
)

// Marshalling is the hand-off area between stations. It owns the sequencing
// queue with its drop-off ledger, the loader queue and the truck registry.
// Stations only ever receive clones of queued jobs.
type Marshalling struct {
	mu         sync.Mutex
	sequencing []PickRequest
	dropOffs   []int
	loading    []PickRequest
	trucks     []*Truck

	truckCapacity int
	nextTruckID   func() int
}

// MarshallingOption configures Marshalling
type MarshallingOption func(*Marshalling)

// WithTruckCapacity sets the load units of newly registered trucks
func WithTruckCapacity(n int) MarshallingOption {
	return func(m *Marshalling) { m.truckCapacity = n }
}

// WithTruckIDs sets the source of truck ids
func WithTruckIDs(next func() int) MarshallingOption {
	return func(m *Marshalling) { m.nextTruckID = next }
}

// NewMarshalling creates an empty marshalling area. Without WithTruckIDs,
// truck ids count up from zero.
func NewMarshalling(opts ...MarshallingOption) *Marshalling {
	m := &Marshalling{truckCapacity: DefaultTruckCapacity}
	for _, opt := range opts {
		opt(m)
	}
	if m.nextTruckID == nil {
		seq := 0
		m.nextTruckID = func() int {
			id := seq
			seq++
			return id
		}
	}
	return m
}

func (m *Marshalling) queuedForSequencing(id int) bool {
	return slices.ContainsFunc(m.sequencing, func(p PickRequest) bool { return p.ID() == id })
}

// AddPickRequest appends job to the sequencing queue unless a job with the
// same id is already queued
func (m *Marshalling) AddPickRequest(job PickRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.queuedForSequencing(job.ID()) {
		m.sequencing = append(m.sequencing, job.Clone())
	}
}

// RedoPickRequest puts job at the head of the sequencing queue unless a job
// with the same id is already queued
func (m *Marshalling) RedoPickRequest(job PickRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.queuedForSequencing(job.ID()) {
		m.sequencing = slices.Insert(m.sequencing, 0, job.Clone())
	}
}

// RemovePickRequest pops the head of the sequencing queue
func (m *Marshalling) RemovePickRequest() (PickRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sequencing) == 0 {
		return PickRequest{}, false
	}
	head := m.sequencing[0]
	m.sequencing = m.sequencing[1:]
	return head, true
}

// ReceivePicker records that the picked goods of job id were dropped off
func (m *Marshalling) ReceivePicker(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropOffs = append(m.dropOffs, id)
}

// ReceiveSequencer releases the head of the sequencing queue to a sequencer.
// Only the head can be released, and only once its id is in the drop-off
// ledger. An empty ledger yields ErrNothingDroppedOff; a ledger with no entry
// for the head yields ErrNotReady.
func (m *Marshalling) ReceiveSequencer() (PickRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.dropOffs) == 0 {
		return PickRequest{}, ErrNothingDroppedOff
	}
	if len(m.sequencing) == 0 {
		return PickRequest{}, ErrNotReady
	}

	head := m.sequencing[0]
	idx := slices.Index(m.dropOffs, head.ID())
	if idx < 0 {
		return PickRequest{}, ErrNotReady
	}

	m.dropOffs = slices.Delete(m.dropOffs, idx, idx+1)
	m.sequencing = m.sequencing[1:]
	return head.Clone(), nil
}

// AddLoaderRequest appends a sequenced job to the loader queue
func (m *Marshalling) AddLoaderRequest(job PickRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading = append(m.loading, job.Clone())
}

// RemoveLoaderRequest pops the head of the loader queue
func (m *Marshalling) RemoveLoaderRequest() (PickRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.loading) == 0 {
		return PickRequest{}, false
	}
	head := m.loading[0]
	m.loading = m.loading[1:]
	return head, true
}

// ReceiveLoader releases the head of the loader queue to a loader
func (m *Marshalling) ReceiveLoader() (PickRequest, error) {
	job, ok := m.RemoveLoaderRequest()
	if !ok {
		return PickRequest{}, ErrNothingToLoad
	}
	return job.Clone(), nil
}

// returnLoaderRequest puts a job a loader could not accept back at the head
func (m *Marshalling) returnLoaderRequest(job PickRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading = slices.Insert(m.loading, 0, job)
}

// LoadTruck loads orders onto the first truck that is not full, registering a
// new truck when every registered one is full. It reports whether the truck
// was newly created.
func (m *Marshalling) LoadTruck(orders []Order) (*Truck, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, truck := range m.trucks {
		if !truck.IsFull() {
			truck.LoadPallet(orders)
			return truck, false
		}
	}

	truck := NewTruck(m.nextTruckID(), m.truckCapacity)
	truck.LoadPallet(orders)
	m.trucks = append(m.trucks, truck)
	return truck, true
}

// Trucks returns the registered trucks in registration order
func (m *Marshalling) Trucks() []*Truck {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.trucks)
}

// SequencingQueue returns the ids waiting for sequencing, head first
func (m *Marshalling) SequencingQueue() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int, len(m.sequencing))
	for i, p := range m.sequencing {
		ids[i] = p.ID()
	}
	return ids
}

// DropOffs returns the drop-off ledger
func (m *Marshalling) DropOffs() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.dropOffs)
}

// LoaderQueue returns the ids waiting for loading, head first
func (m *Marshalling) LoaderQueue() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int, len(m.loading))
	for i, p := range m.loading {
		ids[i] = p.ID()
	}
	return ids
}
