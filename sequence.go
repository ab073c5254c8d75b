package fixture

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
)

// lineage is the state shared by a factory and every factory derived from
// it: the sequence counter, the registry binding and the configuration.
type lineage struct {
	issued   atomic.Int64
	registry atomic.Pointer[registry]
	config   config
}

func newLineage(cfg config) *lineage {
	return &lineage{config: cfg}
}

// next issues the next sequence number. The first number is 1.
func (l *lineage) next() int {
	return int(l.issued.Add(1))
}

// rewind makes the next issued number 1 again.
func (l *lineage) rewind() {
	l.issued.Store(0)
}

// factories returns the registered view injected into generators.
func (l *lineage) factories() Factories {
	return Factories{owner: l.config.name, reg: l.registry.Load()}
}

// uuid returns a deterministic UUID for sequence n.
func (l *lineage) uuid(n int) uuid.UUID {
	return uuid.NewSHA1(l.config.namespace, fmt.Appendf(nil, "%s/%d", l.config.name, n))
}

func (l *lineage) logger() *slog.Logger {
	return l.config.logger
}
