package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/horas-api/internal/hours"
)

// Progress event types.
const (
	ProgressEventUpdated   = "progress.updated"
	ProgressEventCompleted = "progress.completed"
)

// ProgressEvent is emitted after a student's cached totals are refreshed.
type ProgressEvent struct {
	Type               string       `json:"type"`
	StudentID          uint         `json:"student_id"`
	ListID             uint         `json:"list_id"`
	ValidTotalHours    float64      `json:"valid_total_hours"`
	TotalHoursRequired float64      `json:"total_hours_required"`
	Status             hours.Status `json:"status"`
	PreviousStatus     hours.Status `json:"previous_status"`
	Version            uint         `json:"version"`
	OccurredAt         time.Time    `json:"occurred_at"`
}

// ProgressPublisher fans progress events out to interested consumers.
type ProgressPublisher interface {
	Publish(ctx context.Context, event ProgressEvent) error
}

type natsProgressPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSProgressPublisher publishes events on "<subject>.updated" and "<subject>.completed".
func NewNATSProgressPublisher(conn *nats.Conn, subject string) ProgressPublisher {
	return &natsProgressPublisher{conn: conn, subject: strings.TrimSuffix(strings.TrimSpace(subject), ".")}
}

func (p *natsProgressPublisher) Publish(_ context.Context, event ProgressEvent) error {
	if p.conn == nil {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.conn.Publish(p.subjectFor(event.Type), payload)
}

func (p *natsProgressPublisher) subjectFor(eventType string) string {
	suffix := strings.TrimPrefix(eventType, "progress.")
	if p.subject == "" {
		return eventType
	}
	return p.subject + "." + suffix
}

type logProgressPublisher struct {
	logger zerolog.Logger
}

// NewLogProgressPublisher logs events instead of sending them anywhere.
func NewLogProgressPublisher(logger zerolog.Logger) ProgressPublisher {
	return &logProgressPublisher{logger: logger.With().Str("component", "progress_events").Logger()}
}

func (p *logProgressPublisher) Publish(_ context.Context, event ProgressEvent) error {
	p.logger.Info().
		Str("type", event.Type).
		Uint("student_id", event.StudentID).
		Float64("valid_total_hours", event.ValidTotalHours).
		Str("status", string(event.Status)).
		Msg("progress event")
	return nil
}
