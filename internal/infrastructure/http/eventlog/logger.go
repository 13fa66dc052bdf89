// Package eventlog delivers client audit events to the local logging
// endpoint. Delivery is best effort: failures are logged and dropped.
package eventlog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/alchemorsel/recipeclient/internal/domain/client"
	"github.com/alchemorsel/recipeclient/internal/infrastructure/config"
	"github.com/alchemorsel/recipeclient/internal/infrastructure/monitoring"
	"github.com/alchemorsel/recipeclient/internal/ports/outbound"
	"go.uber.org/zap"
)

// TimestampFormat matches JavaScript's Date.toISOString.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// Compile-time interface check.
var _ outbound.EventNotifier = (*Logger)(nil)

// Logger posts audit records to the configured endpoint.
type Logger struct {
	endpoint        string
	enabled         bool
	timeout         time.Duration
	serviceClientID int
	identity        outbound.InstanceIdentity
	httpClient      *http.Client
	metrics         *monitoring.MetricsCollector
	logger          *zap.Logger
	now             func() time.Time

	wg sync.WaitGroup
}

// NewLogger creates an event logger. metrics may be nil.
func NewLogger(cfg config.AuditConfig, serviceClientID int, identity outbound.InstanceIdentity, metrics *monitoring.MetricsCollector, logger *zap.Logger) *Logger {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Logger{
		endpoint:        cfg.Endpoint,
		enabled:         cfg.Enabled && cfg.Endpoint != "",
		timeout:         timeout,
		serviceClientID: serviceClientID,
		identity:        identity,
		httpClient:      &http.Client{Timeout: timeout},
		metrics:         metrics,
		logger:          logger.Named("event-log"),
		now:             time.Now,
	}
}

// Notify sends event in the background and returns immediately. It never
// fails the caller.
func (l *Logger) Notify(userID string, event client.Event) {
	if !l.enabled {
		return
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
		defer cancel()
		l.Send(ctx, userID, event)
	}()
}

// Send posts event and waits for the response. Every failure is caught and
// logged at warn level.
func (l *Logger) Send(ctx context.Context, userID string, event client.Event) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Warn("Failed to log event", zap.Any("panic", r))
			l.record(event, "failed")
		}
	}()

	if err := l.send(ctx, userID, event); err != nil {
		l.logger.Warn("Failed to log event", zap.Error(err), zap.Any("event", event["event"]))
		l.record(event, "failed")
		return
	}
	l.record(event, "delivered")
}

// Close waits for background notifications to finish or ctx to end.
func (l *Logger) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Build returns the record that would be posted for event. Caller fields are
// merged last and so replace base fields only when repeated explicitly.
func (l *Logger) Build(ctx context.Context, userID string, event client.Event) (map[string]any, error) {
	instanceID, err := l.identity.InstanceID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve instance id: %w", err)
	}

	record := map[string]any{
		"instanceId":      instanceID,
		"serviceClientId": l.serviceClientID,
		"userId":          nil,
		"timestamp":       l.now().UTC().Format(TimestampFormat),
	}
	if userID != "" {
		record["userId"] = userID
	}
	for k, v := range event {
		record[k] = v
	}
	return record, nil
}

func (l *Logger) send(ctx context.Context, userID string, event client.Event) error {
	record, err := l.Build(ctx, userID, event)
	if err != nil {
		return err
	}

	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("audit endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

func (l *Logger) record(event client.Event, outcome string) {
	if l.metrics == nil {
		return
	}
	eventType, _ := event["type"].(string)
	l.metrics.EventDelivered(eventType, outcome)
}
