package notify

import (
	"freightchat/internal/logger"
)

// Severity of an operator notification
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notifier delivers fire-and-forget notifications. Notify must not block.
type Notifier interface {
	Notify(title, body string, severity Severity)
}

// LogNotifier writes notifications to the structured log
type LogNotifier struct {
	log logger.Logger
}

// NewLogNotifier creates a notifier backed by the logger
func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Notify logs at a level matching the severity
func (n *LogNotifier) Notify(title, body string, severity Severity) {
	fields := map[string]interface{}{
		"title":    title,
		"body":     body,
		"severity": string(severity),
	}
	switch severity {
	case SeverityError:
		n.log.Error("notification", fields)
	case SeverityWarning:
		n.log.Warn("notification", fields)
	default:
		n.log.Info("notification", fields)
	}
}

// Nop discards notifications
type Nop struct{}

// Notify does nothing
func (Nop) Notify(string, string, Severity) {}
