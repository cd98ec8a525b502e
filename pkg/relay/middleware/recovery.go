package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"relay-hq/gemini/pkg/relay/types"
)

// RecoveryMiddleware turns a handler panic into the generic 500 envelope
// {"ok":false,"error":"Internal server error"}. The panic value and stack
// go to the log only. http.ErrAbortHandler is re-raised so net/http can
// drop the connection.
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if err, ok := v.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(v)
			}

			slog.Default().LogAttrs(r.Context(), slog.LevelError, "panic in handler",
				slog.Any("panic", v),
				slog.String("request_id", w.Header().Get(RequestIDHeader)),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("stack", string(debug.Stack())),
			)
			_ = types.WriteEnvelope(w, http.StatusInternalServerError, types.Failure(types.MsgInternalError))
		}()

		next.ServeHTTP(w, r)
	})
}
