package domain

import (
	"fmt"

	shared "github.com/wms-platform/fulfillment-simulator/pkg/domain"
)

// Picker takes jobs from the order handler and walks the travel route,
// taking one unit from the stock room per verified scan.
type Picker struct {
	scanner
}

func NewPicker(name string, f *Facilities) *Picker {
	return &Picker{scanner: newScanner(name, StationPicker, f)}
}

// Ready asks the order handler for the next job
func (p *Picker) Ready() error {
	if p.busy {
		return ErrWorkerBusy
	}
	_, err := p.facilities.Orders.SendPickRequest(p)
	return err
}

// AssignPickRequest loads job with the travel route as the scan sequence
func (p *Picker) AssignPickRequest(job PickRequest) error {
	return p.assign(job, job.RouteSKUs())
}

// ScanSKU verifies sku and takes it from the shelf. A failed take leaves the
// position where it was.
func (p *Picker) ScanSKU(sku string) error {
	return p.scan(sku, p.facilities.Stock.TakeProduct)
}

// Complete reports the job as dropped off at marshalling
func (p *Picker) Complete() error {
	return p.finish(func(job PickRequest) {
		p.facilities.Marshalling.ReceivePicker(job.ID())
	})
}

// Sequencer takes dropped-off jobs from marshalling and lines them up in
// loading order.
type Sequencer struct {
	scanner
}

func NewSequencer(name string, f *Facilities) *Sequencer {
	return &Sequencer{scanner: newScanner(name, StationSequencer, f)}
}

// Ready claims the head of the sequencing queue once it has been dropped off
func (s *Sequencer) Ready() error {
	if s.busy {
		return ErrWorkerBusy
	}
	job, err := s.facilities.Marshalling.ReceiveSequencer()
	if err != nil {
		return err
	}
	if err := s.assign(job, job.SKUPackage()); err != nil {
		// put the job and its drop-off back so nothing is lost
		s.facilities.Marshalling.RedoPickRequest(job)
		s.facilities.Marshalling.ReceivePicker(job.ID())
		return err
	}
	return nil
}

// Complete queues the sequenced job for loading
func (s *Sequencer) Complete() error {
	return s.finish(func(job PickRequest) {
		s.facilities.Marshalling.AddLoaderRequest(job)
	})
}

// Loader takes sequenced jobs and loads their orders onto trucks
type Loader struct {
	scanner
}

func NewLoader(name string, f *Facilities) *Loader {
	return &Loader{scanner: newScanner(name, StationLoader, f)}
}

// Ready claims the head of the loader queue
func (l *Loader) Ready() error {
	if l.busy {
		return ErrWorkerBusy
	}
	job, err := l.facilities.Marshalling.ReceiveLoader()
	if err != nil {
		return err
	}
	if err := l.assign(job, job.SKUPackage()); err != nil {
		l.facilities.Marshalling.returnLoaderRequest(job)
		return err
	}
	return nil
}

// Complete puts the job's orders on the first truck with room
func (l *Loader) Complete() error {
	return l.finish(func(job PickRequest) {
		truck, created := l.facilities.Marshalling.LoadTruck(job.Orders())
		l.facilities.Events.record(&TruckLoadedEvent{
			TruckID:       truck.ID(),
			PickRequestID: job.ID(),
			Load:          truck.Load(),
			Capacity:      truck.Capacity(),
			NewTruck:      created,
			LoadedAt:      l.facilities.Events.now(),
		})
	})
}

// Replenisher restocks shelves. It has no job queue and takes no part in scan
// verification.
type Replenisher struct {
	name       string
	facilities *Facilities
}

func NewReplenisher(name string, f *Facilities) *Replenisher {
	return &Replenisher{name: name, facilities: f}
}

func (r *Replenisher) Name() string      { return r.name }
func (r *Replenisher) Kind() StationKind { return StationReplenisher }

// Ready is a no-op; a replenisher is always available
func (r *Replenisher) Ready() error { return nil }

// Replenish restocks every product on the shelf at location
func (r *Replenisher) Replenish(location shared.Location) error {
	_, err := r.facilities.Stock.Replenish(location)
	return err
}

var (
	_ Scanner      = (*Picker)(nil)
	_ Scanner      = (*Sequencer)(nil)
	_ Scanner      = (*Loader)(nil)
	_ Station      = (*Replenisher)(nil)
	_ PickAssignee = (*Picker)(nil)
)

// asScanner returns st as a Scanner, refusing stations that do not scan
func asScanner(st Station) (Scanner, error) {
	sc, ok := st.(Scanner)
	if !ok {
		return nil, fmt.Errorf("%w: %s does not scan", ErrUnsupportedAction, st.Kind())
	}
	return sc, nil
}
