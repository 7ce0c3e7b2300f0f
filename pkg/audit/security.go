// Package audit provides security audit logging for SIEM consumption.
// It logs security-relevant events in structured JSON format for easy parsing
// and integration with security information and event management systems.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-nlsql/pkg/logging"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventSuspiciousQuestion is logged when libinjection matches a question.
	// The question is still processed.
	EventSuspiciousQuestion SecurityEventType = "suspicious_question"
	// EventQueryExecution is logged for every ad-hoc query sent to Metabase.
	EventQueryExecution SecurityEventType = "query_execution"
	// EventQuerySaved is logged for every card creation attempt.
	EventQuerySaved SecurityEventType = "query_saved"
)

// Outcomes recorded on execution and save events.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// SecurityEvent represents an auditable security event with all relevant context
// for SIEM ingestion and analysis.
type SecurityEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType SecurityEventType `json:"event_type"`
	RequestID string            `json:"request_id,omitempty"`
	ClientIP  string            `json:"client_ip,omitempty"`
	Details   any               `json:"details"`
	Severity  string            `json:"severity"` // info, warning, critical
}

// SuspiciousQuestionDetails contains specifics of a libinjection hit on a question.
type SuspiciousQuestionDetails struct {
	Question    string `json:"question"`
	Fingerprint string `json:"fingerprint"` // libinjection fingerprint for pattern analysis
}

// QueryDetails describes a query sent to Metabase.
type QueryDetails struct {
	SQL        string `json:"sql"`
	Name       string `json:"name,omitempty"`
	CardID     int64  `json:"card_id,omitempty"`
	Outcome    string `json:"outcome"`
	StatusCode int    `json:"status_code,omitempty"`
}

// SecurityAuditor logs security events for SIEM consumption.
type SecurityAuditor struct {
	logger *zap.Logger
}

// NewSecurityAuditor creates a new security auditor with a dedicated
// "security_audit" logger namespace.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SecurityAuditor{logger: logger.Named("security_audit")}
}

// LogSuspiciousQuestion records a question that matched a SQL injection
// pattern. Logged at WARN: the question only reaches the model, never the
// database directly.
func (a *SecurityAuditor) LogSuspiciousQuestion(ctx context.Context, details SuspiciousQuestionDetails, clientIP string) {
	details.Question = logging.TruncateString(details.Question, logging.MaxQueryLogLength)
	event := a.newEvent(ctx, EventSuspiciousQuestion, details, clientIP, "warning")

	a.logger.Warn("Suspicious question received",
		zap.String("event_json", eventJSON(event)),
		zap.String("request_id", event.RequestID),
		zap.String("fingerprint", details.Fingerprint),
		zap.String("client_ip", clientIP),
		zap.String("severity", event.Severity),
	)
}

// LogQueryExecution records an ad-hoc query sent to Metabase.
func (a *SecurityAuditor) LogQueryExecution(ctx context.Context, details QueryDetails, clientIP string) {
	a.logQuery(ctx, EventQueryExecution, "Query executed", details, clientIP)
}

// LogQuerySaved records a card creation attempt.
func (a *SecurityAuditor) LogQuerySaved(ctx context.Context, details QueryDetails, clientIP string) {
	a.logQuery(ctx, EventQuerySaved, "Query saved", details, clientIP)
}

func (a *SecurityAuditor) logQuery(ctx context.Context, eventType SecurityEventType, msg string, details QueryDetails, clientIP string) {
	details.SQL = logging.SanitizeQuery(details.SQL)

	severity := "info"
	if details.Outcome != OutcomeSuccess {
		severity = "warning"
	}
	event := a.newEvent(ctx, eventType, details, clientIP, severity)

	fields := []zap.Field{
		zap.String("event_json", eventJSON(event)),
		zap.String("request_id", event.RequestID),
		zap.String("outcome", details.Outcome),
		zap.String("client_ip", clientIP),
		zap.String("severity", severity),
	}
	if severity == "info" {
		a.logger.Info(msg, fields...)
		return
	}
	a.logger.Warn(msg, fields...)
}

func (a *SecurityAuditor) newEvent(ctx context.Context, eventType SecurityEventType, details any, clientIP, severity string) SecurityEvent {
	return SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		RequestID: logging.RequestIDFromContext(ctx),
		ClientIP:  clientIP,
		Details:   details,
		Severity:  severity,
	}
}

// eventJSON serializes event for SIEM ingestion. Marshaling these known
// types cannot fail.
func eventJSON(event SecurityEvent) string {
	b, _ := json.Marshal(event)
	return string(b)
}
