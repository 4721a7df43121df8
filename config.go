package gcheap

import "fmt"

// Default Config values, in bytes unless noted.
const (
	DefaultMaxHeapSize = 512 << 20 // 512 MiB total budget
	DefaultYoungSize   = 16 << 20  // 16 MiB young generation
	DefaultOldSize     = 256 << 20 // 256 MiB old generation

	DefaultMinorGCThreshold = 0.8
	DefaultMajorGCThreshold = 0.9

	DefaultPromotionThreshold = 2
)

// Allowed range for Config.MaxHeapSize.
const (
	minHeapSize = 16 << 20 // 16 MiB
	maxHeapSize = 16 << 30 // 16 GiB
)

// Config holds the sizing and tuning parameters of a Heap.
// Both generation arenas are allocated at full capacity up front,
// so YoungSize+OldSize bytes are committed as soon as the heap exists.
type Config struct {
	// MaxHeapSize is the total heap budget in bytes. Checked allocations
	// refuse to grow the heap past it.
	MaxHeapSize int

	// YoungSize is the capacity of the young generation arena in bytes.
	YoungSize int

	// OldSize is the capacity of the old generation arena in bytes.
	OldSize int

	// MinorGCThreshold is the young-generation utilization (0, 1] above
	// which ShouldMinorGC reports true.
	MinorGCThreshold float64

	// MajorGCThreshold is the old-generation utilization (0, 1] above
	// which ShouldMajorGC reports true.
	MajorGCThreshold float64

	// PromotionThreshold is the number of collections an object would
	// survive before being promoted to the old generation. It is
	// validated and reported but never consulted: no collection promotes
	// objects between generations.
	PromotionThreshold int
}

// DefaultConfig returns the standard heap configuration:
// 512 MiB budget split into a 16 MiB young and a 256 MiB old generation.
func DefaultConfig() Config {
	return Config{
		MaxHeapSize:        DefaultMaxHeapSize,
		YoungSize:          DefaultYoungSize,
		OldSize:            DefaultOldSize,
		MinorGCThreshold:   DefaultMinorGCThreshold,
		MajorGCThreshold:   DefaultMajorGCThreshold,
		PromotionThreshold: DefaultPromotionThreshold,
	}
}

// ConfigWithMaxHeapMB returns a configuration sized for a total budget of
// mb mebibytes. The young generation gets 1/16 of the budget and the old
// generation the rest; thresholds keep their default values.
func ConfigWithMaxHeapMB(mb int) Config {
	max := mb << 20
	young := max / 16
	c := DefaultConfig()
	c.MaxHeapSize = max
	c.YoungSize = young
	c.OldSize = max - young
	return c
}

// Validate reports whether the configuration describes a heap this package
// can construct. The first violation found is returned.
func (c Config) Validate() error {
	if c.MaxHeapSize < minHeapSize {
		return fmt.Errorf("gcheap: max heap size %d bytes is below the %d byte minimum", c.MaxHeapSize, minHeapSize)
	}
	if c.MaxHeapSize > maxHeapSize {
		return fmt.Errorf("gcheap: max heap size %d bytes is above the %d byte maximum", c.MaxHeapSize, maxHeapSize)
	}
	if c.YoungSize < 0 {
		return fmt.Errorf("gcheap: young generation size %d bytes is negative", c.YoungSize)
	}
	if c.OldSize < 0 {
		return fmt.Errorf("gcheap: old generation size %d bytes is negative", c.OldSize)
	}
	if c.YoungSize+c.OldSize > c.MaxHeapSize {
		return fmt.Errorf("gcheap: generation sizes %d+%d bytes exceed the max heap size %d", c.YoungSize, c.OldSize, c.MaxHeapSize)
	}
	if !(c.MinorGCThreshold > 0 && c.MinorGCThreshold <= 1) {
		return fmt.Errorf("gcheap: minor gc threshold %v is outside (0, 1]", c.MinorGCThreshold)
	}
	if !(c.MajorGCThreshold > 0 && c.MajorGCThreshold <= 1) {
		return fmt.Errorf("gcheap: major gc threshold %v is outside (0, 1]", c.MajorGCThreshold)
	}
	return nil
}
