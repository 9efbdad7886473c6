package middleware

import (
	"encoding/json"
	"os"
	"time"

	"github.com/gin-gonic/gin"
)

// LoggerMiddleware writes JSON-structured access logs for each HTTP request.
// Message bodies are never logged.
func LoggerMiddleware() gin.HandlerFunc {
	hostname, _ := os.Hostname()
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		latencyMs := float64(param.Latency) / float64(time.Millisecond)
		level := "info"
		switch {
		case param.StatusCode >= 500:
			level = "error"
		case param.StatusCode >= 400:
			level = "warn"
		}
		entry := struct {
			Timestamp string  `json:"ts"`
			Level     string  `json:"level"`
			Hostname  string  `json:"host"`
			RequestID string  `json:"requestId,omitempty"`
			ClientIP  string  `json:"ip"`
			Method    string  `json:"method"`
			Path      string  `json:"path"`
			Status    int     `json:"status"`
			LatencyMs float64 `json:"latencyMs"`
			BodySize  int     `json:"size"`
			Error     string  `json:"error,omitempty"`
		}{
			Timestamp: param.TimeStamp.UTC().Format(time.RFC3339Nano),
			Level:     level,
			Hostname:  hostname,
			RequestID: param.Request.Header.Get(RequestIDHeader),
			ClientIP:  param.ClientIP,
			Method:    param.Method,
			Path:      param.Path,
			Status:    param.StatusCode,
			LatencyMs: latencyMs,
			BodySize:  param.BodySize,
			Error:     param.ErrorMessage,
		}
		if id, ok := param.Keys[RequestIDKey].(string); ok {
			entry.RequestID = id
		}
		b, _ := json.Marshal(entry)
		return string(b) + "\n"
	})
}
