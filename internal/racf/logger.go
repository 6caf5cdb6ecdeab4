package racf

import (
	"context"
	"maps"
	"strings"
	"time"

	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// Logging subsystems used by this package.
const (
	SubsystemRACF    = "racf"
	SubsystemSession = "session"
	SubsystemPool    = "pool"
)

// LogOperation is a helper function to log an operation with timing.
func LogOperation(ctx context.Context, subsystem, operation string, fields map[string]any, fn func() error) error {
	start := time.Now()

	if fields == nil {
		fields = make(map[string]any)
	}
	fields["operation"] = operation

	tflog.SubsystemDebug(ctx, subsystem, "Starting operation", fields)

	err := fn()

	fields["duration_ms"] = time.Since(start).Milliseconds()

	if err != nil {
		fields["error"] = err.Error()
		fields["error_category"] = string(GetErrorCategory(err))
		tflog.SubsystemError(ctx, subsystem, "Operation failed", fields)
	} else {
		tflog.SubsystemDebug(ctx, subsystem, "Operation completed successfully", fields)
	}

	return err
}

// LogPerformance logs performance metrics for an operation.
func LogPerformance(ctx context.Context, subsystem, operation string, duration time.Duration, fields map[string]any) {
	if fields == nil {
		fields = make(map[string]any)
	}

	fields["operation"] = operation
	fields["duration_ms"] = duration.Milliseconds()

	// Warn only past 20s; a paginated listing routinely takes several seconds.
	if duration > 20*time.Second {
		tflog.SubsystemWarn(ctx, subsystem, "Slow operation detected", fields)
	} else if duration > 5*time.Second {
		tflog.SubsystemInfo(ctx, subsystem, "Operation performance", fields)
	} else {
		tflog.SubsystemDebug(ctx, subsystem, "Operation performance", fields)
	}
}

// LogSessionEvent logs terminal session events.
func LogSessionEvent(ctx context.Context, event string, fields map[string]any) {
	if fields == nil {
		fields = make(map[string]any)
	}

	fields["event"] = event

	switch event {
	case "session_connected", "logon_complete":
		tflog.SubsystemInfo(ctx, SubsystemSession, "Session event", fields)
	case "command_timed_out", "logon_failed", "connect_failed":
		tflog.SubsystemError(ctx, SubsystemSession, "Session event", fields)
	case "embedded_error", "marker_collision", "completion_not_trailing":
		tflog.SubsystemWarn(ctx, SubsystemSession, "Session event", fields)
	case "command_sent", "command_complete", "continuation":
		tflog.SubsystemDebug(ctx, SubsystemSession, "Session event", fields)
	default:
		tflog.SubsystemTrace(ctx, SubsystemSession, "Session event", fields)
	}
}

// LogPoolEvent logs session pool events.
func LogPoolEvent(ctx context.Context, event string, fields map[string]any) {
	if fields == nil {
		fields = make(map[string]any)
	}

	fields["event"] = event

	switch event {
	case "pool_initialized", "session_acquired", "session_released":
		tflog.SubsystemDebug(ctx, SubsystemPool, "Pool event", fields)
	case "pool_exhausted", "session_evicted", "health_check_failed":
		tflog.SubsystemWarn(ctx, SubsystemPool, "Pool event", fields)
	case "session_creation_failed":
		tflog.SubsystemError(ctx, SubsystemPool, "Pool event", fields)
	default:
		tflog.SubsystemTrace(ctx, SubsystemPool, "Pool event", fields)
	}
}

// SanitizeFields removes sensitive information from log fields.
func SanitizeFields(fields map[string]any) map[string]any {
	sanitized := make(map[string]any)

	sensitiveKeys := map[string]bool{
		"password":   true,
		"passwd":     true,
		"phrase":     true,
		"passphrase": true,
		"secret":     true,
		"command":    true,
		"credential": true,
	}

	for k, v := range fields {
		if sensitiveKeys[k] {
			sanitized[k] = "[REDACTED]"
		} else if str, ok := v.(string); ok && containsSensitivePattern(str) {
			sanitized[k] = "[REDACTED]"
		} else {
			sanitized[k] = v
		}
	}

	return sanitized
}

// containsSensitivePattern checks for RACF keywords that carry secrets.
func containsSensitivePattern(s string) bool {
	patterns := []string{
		"password(",
		"phrase(",
		"pwd(",
	}

	lower := strings.ToLower(s)
	for _, pattern := range patterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}

	return false
}

// CommandVerb returns the first token of a command, the only part of a
// command that is safe to log.
func CommandVerb(command []byte) string {
	s := strings.TrimSpace(string(firstToken(command)))
	return strings.ToUpper(s)
}

func firstToken(command []byte) []byte {
	for i, b := range command {
		if b == ' ' {
			return command[:i]
		}
	}
	return command
}

// LogResourceOperation provides standardized entry/exit logging for Terraform resource operations.
func LogResourceOperation(ctx context.Context, resource, operation string, fields map[string]any) func(error) {
	start := time.Now()

	if fields == nil {
		fields = make(map[string]any)
	}

	entryFields := make(map[string]any)
	maps.Copy(entryFields, fields)
	entryFields["resource"] = resource
	entryFields["operation"] = operation

	tflog.SubsystemDebug(ctx, "provider", "Starting resource operation", entryFields)

	return func(err error) {
		exitFields := make(map[string]any)
		maps.Copy(exitFields, fields)
		exitFields["resource"] = resource
		exitFields["operation"] = operation
		exitFields["duration_ms"] = time.Since(start).Milliseconds()
		exitFields["has_error"] = err != nil

		if err != nil {
			exitFields["error"] = err.Error()
			tflog.SubsystemError(ctx, "provider", "Resource operation failed", exitFields)
		} else {
			tflog.SubsystemDebug(ctx, "provider", "Resource operation completed", exitFields)
		}
	}
}
