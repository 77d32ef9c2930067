package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/lead-crm/internal/events"
	"github.com/spec-kit/lead-crm/internal/observability"
	"github.com/spec-kit/lead-crm/internal/repository"
)

const reminderSweepBatch = 100

// ReminderWorker periodically sweeps follow-ups whose due time has
// passed and emits a due event for each, exactly once.
type ReminderWorker struct {
	followUps  repository.FollowUpRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	interval   time.Duration
}

// NewReminderWorker constructs the worker.
func NewReminderWorker(followUps repository.FollowUpRepository, dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics, interval time.Duration) *ReminderWorker {
	return &ReminderWorker{
		followUps:  followUps,
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
		interval:   interval,
	}
}

// Start runs the sweep loop until ctx is cancelled.
func (w *ReminderWorker) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.Sweep(ctx)
			}
		}
	}()
}

// Sweep processes one batch of unsent due reminders. Each reminder is
// marked sent before its event is published, so a handler failure
// cannot cause a duplicate send on the next sweep.
func (w *ReminderWorker) Sweep(ctx context.Context) {
	due, err := w.followUps.ListUnsentDueBefore(ctx, time.Now(), reminderSweepBatch)
	if err != nil {
		w.logger.Error("reminder sweep failed", zap.Error(err))
		return
	}
	w.metrics.RecordReminderSweep()

	for _, reminder := range due {
		if err := w.followUps.MarkReminderSent(ctx, reminder.FollowUp.ID); err != nil {
			w.logger.Error("failed to mark reminder sent",
				zap.String("followup_id", reminder.FollowUp.ID),
				zap.Error(err))
			continue
		}
		event := events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventFollowUpDue,
			LeadID:    reminder.FollowUp.LeadID,
			ActorID:   reminder.FollowUp.CreatedBy,
			Timestamp: time.Now(),
			Payload: events.FollowUpDuePayload{
				FollowUpID:   reminder.FollowUp.ID,
				LeadName:     reminder.LeadName,
				AssignedUser: reminder.AssignedUser,
				Date:         reminder.FollowUp.Date,
				Time:         reminder.FollowUp.Time,
			},
		}
		if err := w.dispatcher.Publish(ctx, event); err != nil {
			w.logger.Warn("follow-up due event handler failed",
				zap.String("followup_id", reminder.FollowUp.ID),
				zap.Error(err))
		}
	}
}
