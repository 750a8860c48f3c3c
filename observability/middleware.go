package observability

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/stampworks/stampcard/idgen"
	"github.com/stampworks/stampcard/kit"
)

// LogHTTP records each request into http_request_logs. Like LogEvent, a
// write failure is logged and swallowed: observability never breaks serving.
// The trace ID is taken from the request context, so this middleware belongs
// inside the trace middleware.
func (l *EventLogger) LogHTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		_, err = l.db.Exec(
			`INSERT INTO http_request_logs (log_id, method, path, trace_id, status_code, duration_ms, ip_address, user_agent, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			"hrl_"+idgen.New(),
			r.Method,
			r.URL.Path,
			kit.GetTraceID(r.Context()),
			rec.status,
			time.Since(start).Milliseconds(),
			ip,
			r.UserAgent(),
			start.Unix(),
		)
		if err != nil {
			slog.Error("observability http log failed", "error", err, "path", r.URL.Path)
		}
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
