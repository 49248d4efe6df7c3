package a2c

// Recorder receives training metrics. The trainer emits the standard
// keys after every update:
//
//	train/policy_loss
//	train/value_loss
//	train/entropy_loss
//	train/explained_variance
//	train/n_updates
//	train/learning_rate
//
// plus train/std for Gaussian policies and train/hero_loss under the
// HERO strategy.
type Recorder interface {
	Record(key string, value float64)
}

// NopRecorder discards all metrics.
type NopRecorder struct{}

// Record does nothing.
func (NopRecorder) Record(string, float64) {}

// MemoryRecorder keeps every recorded value in order, keyed by metric
// name. Useful for tests and offline inspection.
type MemoryRecorder struct {
	history map[string][]float64
}

// NewMemoryRecorder creates an empty in-memory recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{history: make(map[string][]float64)}
}

// Record appends the value to the metric's history.
func (m *MemoryRecorder) Record(key string, value float64) {
	m.history[key] = append(m.history[key], value)
}

// History returns all recorded values for a metric.
func (m *MemoryRecorder) History(key string) []float64 {
	return m.history[key]
}

// Last returns the most recent value for a metric.
func (m *MemoryRecorder) Last(key string) (float64, bool) {
	h := m.history[key]
	if len(h) == 0 {
		return 0, false
	}
	return h[len(h)-1], true
}
