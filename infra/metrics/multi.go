package metrics

import coremetrics "github.com/fieldcrew/dispatch/core/metrics"

// MultiSink fans assignment records out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordAssignment forwards the records to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordAssignment(recs []coremetrics.AssignmentRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordAssignment(recs); err != nil {
			return err
		}
	}
	return nil
}
