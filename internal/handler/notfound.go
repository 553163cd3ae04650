package handler

import (
	_ "embed"
	"net/http"

	"go.uber.org/zap"
)

//go:embed static/error404.html
var notFoundPage []byte

// NotFoundPage answers every unmatched request with the static 404 page.
func NotFoundPage(logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("route not found",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		if _, err := w.Write(notFoundPage); err != nil {
			logger.Debug("failed to write not found page", zap.Error(err))
		}
	})
}
