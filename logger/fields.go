package logger

import "time"

// Standard field keys.
const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldTraceID   = "trace_id"
	FieldBinding   = "binding"
	FieldStage     = "stage"
	FieldPhase     = "phase"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
)

// Fields builds a field map from alternating key-value pairs.
//
//	logger.Info("bound", logger.Fields("key", k, "scope", s))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i+1 < len(kvs); i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields creates fields for a failed phase or operation.
func ErrorFields(phase string, err error) map[string]interface{} {
	return map[string]interface{}{
		FieldPhase: phase,
		FieldError: err.Error(),
	}
}

// DurationFields creates fields for a timed phase.
func DurationFields(phase string, d time.Duration) map[string]interface{} {
	return map[string]interface{}{
		FieldPhase:    phase,
		FieldDuration: d.Milliseconds(),
	}
}
