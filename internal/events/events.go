package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/utils"
)

const (
	TopicAudit    = "prodriver.audit"
	TopicIdentity = "prodriver.identity"
)

type Event struct {
	ID         string                 `json:"id"`
	Action     models.AuditAction     `json:"action"`
	Actor      string                 `json:"actor"`
	TargetID   string                 `json:"target_id,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	RequestID  string                 `json:"request_id,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// IdentityChanged asks every instance to drop cached views of the listed identities.
type IdentityChanged struct {
	EmployeeIDs []string  `json:"employee_ids"`
	Reason      string    `json:"reason"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type EventPublisher interface {
	PublishAudit(ctx context.Context, event Event) error
	PublishIdentityChanged(ctx context.Context, event IdentityChanged) error
	Close() error
}

type requestIDKey struct{}

// WithRequestID lets events carry the id of the request that caused them.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type watermillPublisher struct {
	publisher message.Publisher
	logger    utils.Logger
}

func NewWatermillPublisher(publisher message.Publisher, logger utils.Logger) EventPublisher {
	return &watermillPublisher{publisher: publisher, logger: logger}
}

func (p *watermillPublisher) PublishAudit(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = watermill.NewUUID()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if event.RequestID == "" {
		event.RequestID = RequestIDFrom(ctx)
	}
	return p.publish(ctx, TopicAudit, event.ID, event)
}

func (p *watermillPublisher) PublishIdentityChanged(ctx context.Context, event IdentityChanged) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	return p.publish(ctx, TopicIdentity, watermill.NewUUID(), event)
}

func (p *watermillPublisher) publish(ctx context.Context, topic, id string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event for %s: %w", topic, err)
	}
	msg := message.NewMessage(id, body)
	msg.SetContext(ctx)
	if rid := RequestIDFrom(ctx); rid != "" {
		msg.Metadata.Set("request_id", rid)
	}
	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

func (p *watermillPublisher) Close() error {
	return p.publisher.Close()
}

// Recorder is the fire-and-log front of the audit trail used by services.
type Recorder struct {
	publisher EventPublisher
	logger    utils.Logger
}

func NewRecorder(publisher EventPublisher, logger utils.Logger) *Recorder {
	return &Recorder{publisher: publisher, logger: logger}
}

// Record never fails the caller; a lost audit entry is logged instead.
func (r *Recorder) Record(ctx context.Context, action models.AuditAction, actor, targetID string, metadata map[string]interface{}) {
	if r == nil || r.publisher == nil {
		return
	}
	err := r.publisher.PublishAudit(ctx, Event{
		Action:   action,
		Actor:    actor,
		TargetID: targetID,
		Metadata: metadata,
	})
	if err != nil {
		r.logger.Error("Failed to publish audit event", "action", action, "actor", actor, "error", err)
	}
}

func (r *Recorder) IdentityChanged(ctx context.Context, reason string, employeeIDs ...string) {
	if r == nil || r.publisher == nil || len(employeeIDs) == 0 {
		return
	}
	err := r.publisher.PublishIdentityChanged(ctx, IdentityChanged{EmployeeIDs: employeeIDs, Reason: reason})
	if err != nil {
		r.logger.Error("Failed to publish identity change", "reason", reason, "error", err)
	}
}
