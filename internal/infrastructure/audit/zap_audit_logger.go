package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/you/cookbookauth/domain"
)

// ZapAuditLogger implements domain.AuditLogger on top of zap
type ZapAuditLogger struct {
	log *zap.Logger
}

// NewZapAuditLogger creates an audit logger writing under the "audit" name
func NewZapAuditLogger(log *zap.Logger) domain.AuditLogger {
	return &ZapAuditLogger{log: log.Named("audit")}
}

// LogEvent implements domain.AuditLogger
func (a *ZapAuditLogger) LogEvent(ctx context.Context, event *domain.AuditEvent) {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.EventType)),
		zap.Time("timestamp", event.Timestamp),
		zap.Bool("success", event.Success),
	}
	if event.UserID != "" {
		fields = append(fields, zap.String("user_id", event.UserID))
	}
	if event.Email != "" {
		fields = append(fields, zap.String("email", event.Email))
	}
	if event.ErrorMsg != "" {
		fields = append(fields, zap.String("error", event.ErrorMsg))
	}
	if len(event.Metadata) > 0 {
		fields = append(fields, zap.Any("metadata", event.Metadata))
	}

	if event.Success {
		a.log.Info("audit event", fields...)
		return
	}
	a.log.Warn("audit event", fields...)
}
