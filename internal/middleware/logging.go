package middleware

import (
	"net/http"
	"net/url"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// redactedQueryParams hold credentials and are never logged verbatim
var redactedQueryParams = []string{"token"}

// RequestLogger logs one line per request. 5xx responses log at error level,
// 4xx at warn, everything else at info.
func RequestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				// A successful upgrade hijacks the connection before any status is recorded
				if websocket.IsWebSocketUpgrade(r) {
					status = http.StatusSwitchingProtocols
				} else {
					status = http.StatusOK
				}
			}

			var event *zerolog.Event
			switch {
			case status >= http.StatusInternalServerError:
				event = logger.Error()
			case status >= http.StatusBadRequest:
				event = logger.Warn()
			default:
				event = logger.Info()
			}

			event = event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("remote", GetClientIP(r))
			if r.URL.RawQuery != "" {
				event = event.Str("query", redactQuery(r.URL))
			}
			if reqID := chimw.GetReqID(r.Context()); reqID != "" {
				event = event.Str("request_id", reqID)
			}
			event.Msg("HTTP request")
		})
	}
}

func redactQuery(u *url.URL) string {
	values := u.Query()
	redacted := false
	for _, key := range redactedQueryParams {
		if _, ok := values[key]; ok {
			values.Set(key, "REDACTED")
			redacted = true
		}
	}
	if !redacted {
		return u.RawQuery
	}
	return values.Encode()
}
