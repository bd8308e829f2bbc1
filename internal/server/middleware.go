package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	derrors "git.home.luguber.info/inful/youmu/internal/errors"
	"git.home.luguber.info/inful/youmu/internal/logfields"
)

// requestLogger logs method, path, status and duration of every request.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)
			logger.Info("HTTP request",
				logfields.RequestID(middleware.GetReqID(r.Context())),
				logfields.Method(r.Method),
				logfields.Path(r.URL.Path),
				logfields.Status(wrapped.statusCode),
				logfields.Duration(time.Since(start)),
				logfields.RemoteAddr(r.RemoteAddr))
		})
	}
}

// recoverer turns handler panics into a 500 response.
func recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("HTTP handler panic",
					slog.Any("panic", rec),
					logfields.RequestID(middleware.GetReqID(r.Context())),
					logfields.Method(r.Method),
					logfields.Path(r.URL.Path))
				writeError(w, derrors.InternalError("internal server error", nil))
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// responseWriter captures status codes for logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// writeError answers with the error's gateway status and its message as plain text.
func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), derrors.HTTPStatus(err))
}
