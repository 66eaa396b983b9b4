package models

// Top-K bounds used when no configuration overrides them.
const (
	DefaultTopK = 6
	MaxTopK     = 100
)

// NormalizeTopK returns topK with defaults applied: non-positive values use
// def and values above max are clamped to max.
func NormalizeTopK(topK, def, max int) int {
	if def <= 0 {
		def = DefaultTopK
	}
	if max <= 0 {
		max = MaxTopK
	}
	if topK <= 0 {
		topK = def
	}
	if topK > max {
		topK = max
	}
	return topK
}
