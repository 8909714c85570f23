package domain

import (
	"fmt"
	"slices"
	"sync"
)

// DefaultBatchSize is the number of orders combined into one pick request
const DefaultBatchSize = 4

// SKUDirectory is the part of the stock room the order handler consults
type SKUDirectory interface {
	LocationDirectory
	HasSKU(sku string) bool
}

// PickAssignee receives pick requests from the order handler
type PickAssignee interface {
	AssignPickRequest(job PickRequest) error
}

// OrderHandler batches translated orders into pick requests and hands them
// out to pickers.
type OrderHandler struct {
	mu          sync.Mutex
	table       TranslationTable
	stock       SKUDirectory
	marshalling *Marshalling
	events      *EventLog

	batchSize     int
	pendingOrders []Order
	pendingSKUs   []string
	jobs          []PickRequest
	nextID        int
}

// OrderHandlerOption configures an OrderHandler
type OrderHandlerOption func(*OrderHandler)

// WithBatchSize sets how many orders make up one pick request
func WithBatchSize(n int) OrderHandlerOption {
	return func(h *OrderHandler) {
		if n > 0 {
			h.batchSize = n
		}
	}
}

// WithOrderEvents sets where pick request events are recorded
func WithOrderEvents(log *EventLog) OrderHandlerOption {
	return func(h *OrderHandler) { h.events = log }
}

// NewOrderHandler creates an order handler. Pick request ids start at 1.
func NewOrderHandler(table TranslationTable, stock SKUDirectory, marshalling *Marshalling, opts ...OrderHandlerOption) *OrderHandler {
	h := &OrderHandler{
		table:       slices.Clone(table),
		stock:       stock,
		marshalling: marshalling,
		batchSize:   DefaultBatchSize,
		nextID:      1,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// AddOrder translates order into its front and rear skus and queues it. When
// the queued orders reach the batch size a pick request is formed.
func (h *OrderHandler) AddOrder(order Order) error {
	front, rear, ok := h.table.Translate(order)
	if !ok {
		return fmt.Errorf("%w: %s %s", ErrUnknownOrder, order.Colour, order.Model)
	}
	if !h.stock.HasSKU(front) || !h.stock.HasSKU(rear) {
		return fmt.Errorf("%w: %s %s", ErrSKUNotStocked, front, rear)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.pendingSKUs = append(h.pendingSKUs, front, rear)
	h.pendingOrders = append(h.pendingOrders, order)
	if len(h.pendingOrders) < h.batchSize {
		return nil
	}
	return h.queuePickRequest()
}

// queuePickRequest drains one batch into a new job. The pending queues are
// only drained once the job is built, so a failure leaves them intact.
func (h *OrderHandler) queuePickRequest() error {
	skus := h.pendingSKUs[:2*h.batchSize]
	orders := h.pendingOrders[:h.batchSize]

	route, err := Optimize(skus, h.stock)
	if err != nil {
		return err
	}
	job, err := NewPickRequest(h.nextID, OrganizeSKUs(skus), route, orders)
	if err != nil {
		return err
	}

	h.pendingSKUs = slices.Clone(h.pendingSKUs[2*h.batchSize:])
	h.pendingOrders = slices.Clone(h.pendingOrders[h.batchSize:])
	h.nextID++
	h.jobs = append(h.jobs, job)

	h.events.record(&PickRequestCreatedEvent{
		PickRequestID: job.ID(),
		SKUPackage:    job.SKUPackage(),
		RouteSKUs:     job.RouteSKUs(),
		OrderCount:    len(orders),
		CreatedAt:     h.events.now(),
	})
	return nil
}

// OrganizeSKUs reorders skus in arrival order (front, rear, front, rear, ...)
// into loading order: the front skus from last to first, then the rear skus
// from last to first. For a batch of four, [f1,r1,f2,r2,f3,r3,f4,r4] becomes
// [f4,f3,f2,f1,r4,r3,r2,r1].
func OrganizeSKUs(skus []string) []string {
	organized := make([]string, 0, len(skus))
	for i := len(skus) - 2; i >= 0; i -= 2 {
		organized = append(organized, skus[i])
	}
	for i := len(skus) - 1; i >= 1; i -= 2 {
		organized = append(organized, skus[i])
	}
	return organized
}

// SendPickRequest hands the oldest job to picker and queues it at marshalling
// for sequencing. If no job is ready it returns ErrNoPickRequest. If the
// picker refuses the job it goes back to the head of the queue.
func (h *OrderHandler) SendPickRequest(picker PickAssignee) (PickRequest, error) {
	h.mu.Lock()
	if len(h.jobs) == 0 {
		h.mu.Unlock()
		return PickRequest{}, ErrNoPickRequest
	}
	job := h.jobs[0]
	h.jobs = h.jobs[1:]
	h.mu.Unlock()

	if err := picker.AssignPickRequest(job.Clone()); err != nil {
		h.PriorityQueue(job)
		return PickRequest{}, err
	}

	h.marshalling.AddPickRequest(job)
	return job, nil
}

// PriorityQueue puts job at the head of the job queue
func (h *OrderHandler) PriorityQueue(job PickRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.jobs = slices.Insert(h.jobs, 0, job.Clone())
}

// QueuedJobs returns the ids of jobs waiting for a picker, head first
func (h *OrderHandler) QueuedJobs() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]int, len(h.jobs))
	for i, job := range h.jobs {
		ids[i] = job.ID()
	}
	return ids
}

// PeekJob returns the job at the head of the queue without removing it
func (h *OrderHandler) PeekJob() (PickRequest, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.jobs) == 0 {
		return PickRequest{}, false
	}
	return h.jobs[0].Clone(), true
}

// PendingOrders returns the number of orders waiting to fill a batch
func (h *OrderHandler) PendingOrders() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pendingOrders)
}
