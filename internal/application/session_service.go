package application

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/wms-platform/fulfillment-simulator/internal/domain"
	"github.com/wms-platform/fulfillment-simulator/pkg/errors"
	"github.com/wms-platform/fulfillment-simulator/pkg/logging"
	"github.com/wms-platform/fulfillment-simulator/pkg/metrics"
)

type session struct {
	mu  sync.Mutex
	id  string
	run *Run
}

// SessionService keeps live warehouses that are driven one event at a time
// over the API. Events for one session are applied in arrival order.
type SessionService struct {
	simulation *SimulationService
	metrics    *metrics.Metrics
	logger     *logging.Logger

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewSessionService creates a SessionService on top of simulation
func NewSessionService(simulation *SimulationService, m *metrics.Metrics, logger *logging.Logger) *SessionService {
	m.SetActiveSessions(0)
	return &SessionService{
		simulation: simulation,
		metrics:    m,
		logger:     logger.WithComponent("sessions"),
		sessions:   make(map[string]*session),
	}
}

// CreateSession opens a warehouse from inline tables
func (s *SessionService) CreateSession(ctx context.Context, cmd CreateSessionCommand) (*SessionDTO, error) {
	tables, err := cmd.Tables()
	if err != nil {
		return nil, err
	}

	run, err := s.simulation.StartRun(ctx, cmd.RunID, cmd.Warehouse, tables, cmd.Options()...)
	if err != nil {
		return nil, err
	}

	sess := &session{id: uuid.New().String(), run: run}
	s.mu.Lock()
	s.sessions[sess.id] = sess
	count := len(s.sessions)
	s.mu.Unlock()
	s.metrics.SetActiveSessions(count)

	s.logger.Info("Session created", "sessionId", sess.id, "runId", run.ID, "warehouse", cmd.Warehouse)
	return ToSessionDTO(sess.id, run), nil
}

func (s *SessionService) get(id string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, errors.ErrNotFoundWithID("session", id)
	}
	return sess, nil
}

// ListSessions returns every open session, oldest first
func (s *SessionService) ListSessions(_ context.Context) []*SessionDTO {
	s.mu.RLock()
	open := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		open = append(open, sess)
	}
	s.mu.RUnlock()

	out := make([]*SessionDTO, 0, len(open))
	for _, sess := range open {
		sess.mu.Lock()
		out = append(out, ToSessionDTO(sess.id, sess.run))
		sess.mu.Unlock()
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// GetSession returns the state of one session
func (s *SessionService) GetSession(_ context.Context, id string) (*SessionDTO, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return ToSessionDTO(sess.id, sess.run), nil
}

// ApplyEvent applies one raw or structured event to a session. A refused
// event returns both the outcome and the refusal.
func (s *SessionService) ApplyEvent(ctx context.Context, cmd ApplyEventCommand) (*EventResultDTO, error) {
	sess, err := s.get(cmd.SessionID)
	if err != nil {
		return nil, err
	}

	line := cmd.Line
	if line == "" {
		if line, err = cmd.Event.ScriptLine(); err != nil {
			return nil, err
		}
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	outcome, err := s.simulation.ApplyLine(ctx, sess.run, line)
	return outcome.DTO(), err
}

// GetInventory returns the stock room of a session
func (s *SessionService) GetInventory(_ context.Context, id string) (*InventoryDTO, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return ToInventoryDTO(sess.run.Warehouse), nil
}

// GetTrucks returns the trucks of a session
func (s *SessionService) GetTrucks(_ context.Context, id string) (*TrucksDTO, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return ToTrucksDTO(sess.run.Warehouse), nil
}

// CloseSession finishes the run of a session and forgets it. The result is
// returned even when archiving fails.
func (s *SessionService) CloseSession(ctx context.Context, id string) (*domain.RunResult, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	count := len(s.sessions)
	s.mu.Unlock()
	if !ok {
		return nil, errors.ErrNotFoundWithID("session", id)
	}
	s.metrics.SetActiveSessions(count)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	result, err := s.simulation.Finish(ctx, sess.run)
	s.logger.Info("Session closed", "sessionId", id, "runId", sess.run.ID)
	return result, err
}

// CloseAll finishes every open session, used on shutdown
func (s *SessionService) CloseAll(ctx context.Context) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	for _, id := range ids {
		if _, err := s.CloseSession(ctx, id); err != nil {
			s.logger.WithError(err).Warn("Failed to close session", "sessionId", id)
		}
	}
}
