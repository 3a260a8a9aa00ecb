package httptransport

import (
	"net/http"

	"github.com/google/uuid"

	"pointsd/pkg/requestcontext"
)

// PluginHeader carries the calling plugin's self-reported name.
const PluginHeader = "X-Plugin-Name"

// RequestIDHeader echoes the correlation id assigned to the request.
const RequestIDHeader = "X-Request-ID"

// withRequestContext assigns a correlation id and captures plugin
// attribution before handlers run.
func withRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = requestcontext.WithRequestID(ctx, requestID)
		w.Header().Set(RequestIDHeader, requestID)

		if plugin := r.Header.Get(PluginHeader); plugin != "" {
			ctx = requestcontext.WithPluginName(ctx, plugin)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
