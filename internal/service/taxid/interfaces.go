package taxid

import (
	"github.com/davidleathers/taxid-validator/internal/domain/values"
)

// Recorder receives one observation per validated identifier.
// metrics.Collector satisfies it.
type Recorder interface {
	Observe(kind values.Kind, valid bool)
}

// BatchRecorder is optionally implemented by recorders that also track batch sizes
type BatchRecorder interface {
	ObserveBatch(n int)
}

type nopRecorder struct{}

func (nopRecorder) Observe(values.Kind, bool) {}
