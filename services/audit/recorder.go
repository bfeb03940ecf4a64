package main

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/events"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/logging"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/metrics"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/models"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/repository"
	"github.com/sirupsen/logrus"
)

// Stats summarises what the recorder has processed since start
type Stats struct {
	Recorded    int64      `json:"recorded"`
	Duplicates  int64      `json:"duplicates"`
	Skipped     int64      `json:"skipped"`
	Failed      int64      `json:"failed"`
	LastEventAt *time.Time `json:"last_event_at,omitempty"`
}

// Recorder persists lifecycle events as audit log rows. Redelivered events are stored once.
type Recorder struct {
	store repository.Store

	mu    sync.Mutex
	stats Stats
}

// NewRecorder creates a Recorder
func NewRecorder(store repository.Store) *Recorder {
	return &Recorder{store: store}
}

// Handle stores one event; it is the events.Handler of the audit consumer
func (r *Recorder) Handle(ctx context.Context, event events.WorkOrderEvent) error {
	entry := logging.FromContext(ctx).WithFields(logrus.Fields{
		"event_id":      event.ID,
		"tenant_id":     event.TenantID,
		"work_order_id": event.WorkOrderID,
	})

	if event.ID == uuid.Nil || event.TenantID == uuid.Nil || event.WorkOrderID == uuid.Nil {
		entry.Warn("Skipping incomplete event")
		r.count(func(s *Stats) { s.Skipped++ }, "skipped")
		return nil
	}

	row := &models.AuditLog{
		EventID:     event.ID,
		WorkOrderID: event.WorkOrderID,
		ActorID:     event.ActorID,
		Transition:  event.Transition,
		FromStatus:  event.FromStatus,
		ToStatus:    event.ToStatus,
		OccurredAt:  event.OccurredAt,
	}
	err := r.store.AuditLogs().Insert(ctx, event.TenantID, row)
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		entry.Debug("Event already recorded")
		r.count(func(s *Stats) { s.Duplicates++ }, "duplicate")
		return nil
	case err != nil:
		r.count(func(s *Stats) { s.Failed++ }, metrics.OutcomeError)
		return err
	}

	r.count(func(s *Stats) {
		s.Recorded++
		at := event.OccurredAt
		s.LastEventAt = &at
	}, metrics.OutcomeSuccess)
	return nil
}

// Stats returns a snapshot of the counters
func (r *Recorder) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func (r *Recorder) count(update func(*Stats), outcome string) {
	r.mu.Lock()
	update(&r.stats)
	r.mu.Unlock()
	metrics.EventsConsumed.WithLabelValues(outcome).Inc()
}
