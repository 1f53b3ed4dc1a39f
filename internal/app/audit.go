package app

import (
	"context"
	"time"

	"chefplan/internal/eventbus"
	"chefplan/internal/storage"
	logx "chefplan/pkg/logx"
)

const (
	auditRecipeAdded      = "recipe_added"
	auditScheduleComputed = "schedule_computed"
)

// auditEntry maps a bus event to an audit record. ok is false for events
// that are not audited.
func auditEntry(e eventbus.Event) (storage.AuditEntry, bool) {
	switch d := e.Data.(type) {
	case eventbus.RecipeAdded:
		return storage.AuditEntry{
			At:          e.Time,
			Action:      auditRecipeAdded,
			RecipeIndex: d.Index,
			RecipeName:  d.Name,
			RequestID:   d.RequestID,
		}, true
	case eventbus.ScheduleComputed:
		return storage.AuditEntry{
			At:          e.Time,
			Action:      auditScheduleComputed,
			RecipeIndex: d.Index,
			RecipeName:  d.Name,
			RequestID:   d.RequestID,
			Optimal:     d.Optimal,
			Normal:      d.Normal,
			Error:       d.Err,
		}, true
	default:
		return storage.AuditEntry{}, false
	}
}

// runAudit persists audited events until ctx is done or the bus closes the
// subscription.
func runAudit(ctx context.Context, events <-chan eventbus.Event, store storage.Store, log logx.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			log.Debug("event", logx.String("type", e.Type), logx.Time("time", e.Time))
			entry, ok := auditEntry(e)
			if !ok {
				continue
			}
			wctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			err := store.AppendAudit(wctx, entry)
			cancel()
			if err != nil {
				log.Warn("audit write failed", logx.String("action", entry.Action), logx.Err(err))
			}
		}
	}
}
