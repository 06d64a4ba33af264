package webhook

import (
	"context"
	"errors"
	"time"
)

const AlertSchemaVersion = 1

type Alert struct {
	Level     string
	Source    string
	Message   string
	Metadata  map[string]any
	Timestamp time.Time
}

type AlertPayload struct {
	SchemaVersion int            `json:"schema_version"`
	Level         string         `json:"level"`
	Source        string         `json:"source"`
	Message       string         `json:"message"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	Timestamp     string         `json:"timestamp"`
}

type Sender interface {
	SendAlert(ctx context.Context, alert Alert) error
}

func BuildAlertPayload(alert Alert, loc *time.Location) AlertPayload {
	if loc == nil {
		loc = time.UTC
	}
	return AlertPayload{
		SchemaVersion: AlertSchemaVersion,
		Level:         alert.Level,
		Source:        alert.Source,
		Message:       alert.Message,
		Metadata:      alert.Metadata,
		Timestamp:     alert.Timestamp.In(loc).Format(time.RFC3339),
	}
}

// MultiSender delivers to every sender and joins their errors.
type MultiSender []Sender

func (m MultiSender) SendAlert(ctx context.Context, alert Alert) error {
	var errs []error
	for _, s := range m {
		if err := s.SendAlert(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
