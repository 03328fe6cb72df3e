package main

import (
	"sync"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
)

var remoteFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "todo_remote_failures_total",
	Help: "Remote document-store calls that failed after the local mutation already applied.",
}, []string{"op"})

// taskGroup runs the remote half of each intent on its own goroutine. The
// caller never waits on an individual task; Wait drains everything still
// in flight. A failed task is counted, logged and reported, then dropped;
// the local store is not rolled back.
type taskGroup struct {
	wg sync.WaitGroup
}

func (t *taskGroup) Go(op string, fn func() error) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		if err := fn(); err != nil {
			remoteFailures.WithLabelValues(op).Inc()
			sentry.CaptureException(err)
			log.Errorf("%s failed: %v", op, err)
		}
	}()
}

func (t *taskGroup) Wait() {
	t.wg.Wait()
}
