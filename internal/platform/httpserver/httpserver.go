package httpserver

import (
	"net/http"
	"time"
)

const (
	defaultWriteTimeout = 90 * time.Second
	writeSlack          = 10 * time.Second
)

// New builds an HTTP server with sane defaults for this project. The write
// timeout always outlasts requestTimeout so a full retry and fallback cycle
// can still answer.
func New(addr string, handler http.Handler, requestTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      max(defaultWriteTimeout, requestTimeout+writeSlack),
		IdleTimeout:       120 * time.Second,
	}
}
