package health

import (
	"context"
	"fmt"
)

// Pinger is satisfied by the Redis and Postgres clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck reports down when p does not answer. With optional set, a failed
// ping only degrades the service.
func PingCheck(p Pinger, optional bool) Check {
	return func(ctx context.Context) ComponentHealth {
		if err := p.Ping(ctx); err != nil {
			status := StatusDown
			if optional {
				status = StatusDegraded
			}
			return ComponentHealth{Status: status, Message: err.Error()}
		}
		return ComponentHealth{Status: StatusUp}
	}
}

// IndexCheck reports down until the index has been finalized. documents is
// reported in the message.
func IndexCheck(ready func() bool, documents func() int) Check {
	return func(ctx context.Context) ComponentHealth {
		if !ready() {
			return ComponentHealth{Status: StatusDown, Message: "index not finalized"}
		}
		return ComponentHealth{Status: StatusUp, Message: fmt.Sprintf("%d documents", documents())}
	}
}

// BreakerCheck degrades the service while the named breaker is open, since
// image queries fail fast then but text queries are unaffected.
func BreakerCheck(state func() string) Check {
	return func(ctx context.Context) ComponentHealth {
		s := state()
		if s == "open" {
			return ComponentHealth{Status: StatusDegraded, Message: "circuit open"}
		}
		return ComponentHealth{Status: StatusUp, Message: s}
	}
}
