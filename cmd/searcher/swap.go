package main

import (
	"net/http"
	"sync/atomic"
)

// swappable serves through whichever handler was set last.
type swappable struct {
	current atomic.Pointer[http.Handler]
}

func (s *swappable) set(h http.Handler) {
	s.current.Store(&h)
}

func (s *swappable) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h := s.current.Load()
	if h == nil {
		http.Error(w, "service starting", http.StatusServiceUnavailable)
		return
	}
	(*h).ServeHTTP(w, r)
}
