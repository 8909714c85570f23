package domain

import (
	"fmt"
	"slices"
)

// DefaultWorkerCapacity is the number of scan slots every worker has
const DefaultWorkerCapacity = 8

// StationKind tags the four station specializations
type StationKind string

const (
	StationPicker      StationKind = "Picker"
	StationSequencer   StationKind = "Sequencer"
	StationLoader      StationKind = "Loader"
	StationReplenisher StationKind = "Replenisher"
)

// ParseStationKind validates a station tag
func ParseStationKind(s string) (StationKind, error) {
	switch kind := StationKind(s); kind {
	case StationPicker, StationSequencer, StationLoader, StationReplenisher:
		return kind, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStation, s)
}

// WorkerState is the verification state of a scanning worker
type WorkerState string

const (
	WorkerIdle      WorkerState = "idle"
	WorkerAssigned  WorkerState = "assigned"
	WorkerVerifying WorkerState = "verifying"
	WorkerVerified  WorkerState = "verified"
)

// Station is the capability every worker shares
type Station interface {
	Name() string
	Kind() StationKind
	Ready() error
}

// Scanner is a station that verifies jobs sku by sku
type Scanner interface {
	Station
	ScanSKU(sku string) error
	ResetScan()
	Complete() error
	Discard() error
	State() WorkerState
	Misscanned() bool
	Position() int
	Expected() []string
	CurrentJobID() int
}

// Facilities are the shared warehouse components workers act on
type Facilities struct {
	Stock       *StockRoom
	Orders      *OrderHandler
	Marshalling *Marshalling
	Events      *EventLog
	Capacity    int
}

func (f *Facilities) capacity() int {
	if f.Capacity > 0 {
		return f.Capacity
	}
	return DefaultWorkerCapacity
}

// scanner holds the verification state machine shared by pickers, sequencers
// and loaders.
type scanner struct {
	name       string
	kind       StationKind
	facilities *Facilities
	capacity   int

	busy       bool
	position   int
	expected   []string
	job        PickRequest
	misscanned bool
}

func newScanner(name string, kind StationKind, f *Facilities) scanner {
	return scanner{name: name, kind: kind, facilities: f, capacity: f.capacity()}
}

func (s *scanner) Name() string      { return s.name }
func (s *scanner) Kind() StationKind { return s.kind }
func (s *scanner) Misscanned() bool  { return s.misscanned }
func (s *scanner) Position() int     { return s.position }

func (s *scanner) Expected() []string {
	return slices.Clone(s.expected)
}

// CurrentJobID returns the id of the held job, or 0 when idle
func (s *scanner) CurrentJobID() int {
	if !s.busy {
		return 0
	}
	return s.job.ID()
}

func (s *scanner) State() WorkerState {
	switch {
	case !s.busy:
		return WorkerIdle
	case s.position == 0:
		return WorkerAssigned
	case s.position < s.capacity:
		return WorkerVerifying
	default:
		return WorkerVerified
	}
}

// assign loads job and the sku sequence the worker must scan
func (s *scanner) assign(job PickRequest, expected []string) error {
	if s.busy {
		return ErrWorkerBusy
	}
	if job.Size() != s.capacity || len(expected) != s.capacity {
		return fmt.Errorf("%w: job %d has %d skus, capacity is %d", ErrJobSizeMismatch, job.ID(), job.Size(), s.capacity)
	}
	s.busy = true
	s.job = job
	s.expected = expected
	s.position = 0
	s.misscanned = false
	return nil
}

// scan compares sku with the expected sku at the current position. check, if
// set, runs after a match and can veto the advance.
func (s *scanner) scan(sku string, check func(string) error) error {
	if s.misscanned {
		return ErrMisscanned
	}
	if !s.busy {
		return ErrNoJob
	}
	if s.position >= s.capacity {
		return ErrAlreadyVerified
	}

	want := s.expected[s.position]
	if sku != want {
		s.misscanned = true
		return &MisscanError{Position: s.position, Expected: want, Got: sku}
	}
	if check != nil {
		if err := check(sku); err != nil {
			return err
		}
	}
	s.position++
	return nil
}

// ScanSKU verifies one sku
func (s *scanner) ScanSKU(sku string) error {
	return s.scan(sku, nil)
}

// ResetScan clears a misscan and rewinds to the first sku, keeping the job
func (s *scanner) ResetScan() {
	s.position = 0
	s.misscanned = false
}

func (s *scanner) release() {
	s.busy = false
	s.job = PickRequest{}
	s.expected = nil
	s.position = 0
	s.misscanned = false
}

// finish guards a completion and records it. effect runs only when the job
// is verified.
func (s *scanner) finish(effect func(job PickRequest)) error {
	if s.State() != WorkerVerified {
		return fmt.Errorf("%w: %d of %d skus scanned", ErrNotVerified, s.position, s.capacity)
	}
	job := s.job
	effect(job)
	s.release()

	s.facilities.Events.record(&StationCompletedEvent{
		PickRequestID: job.ID(),
		Station:       s.kind,
		Worker:        s.name,
		CompletedAt:   s.facilities.Events.now(),
	})
	return nil
}

// Discard sends the held job back to both the order handler's priority slot
// and marshalling's redo slot, so it is re-picked and re-sequenced from
// scratch, then leaves the worker idle.
func (s *scanner) Discard() error {
	if !s.busy {
		return ErrNoJob
	}
	job := s.job.Clone()
	s.release()

	s.facilities.Orders.PriorityQueue(job)
	s.facilities.Marshalling.RedoPickRequest(job)

	s.facilities.Events.record(&PickRequestDiscardedEvent{
		PickRequestID: job.ID(),
		Station:       s.kind,
		Worker:        s.name,
		DiscardedAt:   s.facilities.Events.now(),
	})
	return nil
}

// StationConstructor builds a station for a worker name
type StationConstructor func(name string, f *Facilities) Station

// Stations maps each station tag to its constructor
var Stations = map[StationKind]StationConstructor{
	StationPicker:      func(name string, f *Facilities) Station { return NewPicker(name, f) },
	StationSequencer:   func(name string, f *Facilities) Station { return NewSequencer(name, f) },
	StationLoader:      func(name string, f *Facilities) Station { return NewLoader(name, f) },
	StationReplenisher: func(name string, f *Facilities) Station { return NewReplenisher(name, f) },
}

// NewStation builds a station of the given kind
func NewStation(kind StationKind, name string, f *Facilities) (Station, error) {
	build, ok := Stations[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStation, kind)
	}
	return build(name, f), nil
}
