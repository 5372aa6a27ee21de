package server

import (
	"net/http"

	"codesight/internal/gateway/handler"
	"codesight/internal/gateway/middleware"
)

// NewMux builds the gateway's routing table with CORS applied outermost.
func NewMux(h *handler.Handler) http.Handler {
	mux := http.NewServeMux()
	h.Register(mux)
	return middleware.CORS(mux)
}
