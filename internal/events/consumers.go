package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"gorm.io/datatypes"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/utils"
)

type AuditSink interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

type IdentityInvalidator interface {
	InvalidateIdentity(ctx context.Context, employeeIDs ...string) error
}

// AuditConsumer persists audit events. Delivery order is not guaranteed; listings sort by timestamp.
func AuditConsumer(sink AuditSink, logger utils.Logger) func(msg *message.Message) error {
	return func(msg *message.Message) error {
		var ev Event
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			// Malformed payloads would be redelivered forever.
			logger.Error("Dropping malformed audit event", "message_id", msg.UUID, "error", err)
			return nil
		}

		entry := &models.AuditLog{
			Action:    ev.Action,
			Actor:     ev.Actor,
			Timestamp: ev.OccurredAt,
		}
		if ev.TargetID != "" {
			entry.TargetID = &ev.TargetID
		}
		if ev.RequestID != "" {
			entry.RequestID = &ev.RequestID
		}
		if len(ev.Metadata) > 0 {
			raw, err := json.Marshal(ev.Metadata)
			if err == nil {
				entry.Metadata = datatypes.JSON(raw)
			}
		}

		if err := sink.Create(msg.Context(), entry); err != nil {
			return fmt.Errorf("failed to persist audit event %s: %w", msg.UUID, err)
		}
		return nil
	}
}

// IdentityConsumer drops cached views for identities whose data changed.
func IdentityConsumer(invalidator IdentityInvalidator, logger utils.Logger) func(msg *message.Message) error {
	return func(msg *message.Message) error {
		var ev IdentityChanged
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			logger.Error("Dropping malformed identity event", "message_id", msg.UUID, "error", err)
			return nil
		}
		if err := invalidator.InvalidateIdentity(msg.Context(), ev.EmployeeIDs...); err != nil {
			return fmt.Errorf("failed to invalidate identity views: %w", err)
		}
		logger.Debug("Identity views invalidated", "reason", ev.Reason, "count", len(ev.EmployeeIDs))
		return nil
	}
}
