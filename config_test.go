package gcheap

import (
	"math"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v, want nil", err)
	}
	if cfg.MaxHeapSize != 512<<20 {
		t.Errorf("MaxHeapSize = %d, want %d", cfg.MaxHeapSize, 512<<20)
	}
	if cfg.YoungSize != 16<<20 {
		t.Errorf("YoungSize = %d, want %d", cfg.YoungSize, 16<<20)
	}
	if cfg.OldSize != 256<<20 {
		t.Errorf("OldSize = %d, want %d", cfg.OldSize, 256<<20)
	}
	if cfg.MinorGCThreshold != 0.8 {
		t.Errorf("MinorGCThreshold = %v, want 0.8", cfg.MinorGCThreshold)
	}
	if cfg.MajorGCThreshold != 0.9 {
		t.Errorf("MajorGCThreshold = %v, want 0.9", cfg.MajorGCThreshold)
	}
	if cfg.PromotionThreshold != 2 {
		t.Errorf("PromotionThreshold = %d, want 2", cfg.PromotionThreshold)
	}
}

func TestConfigWithMaxHeapMB(t *testing.T) {
	tests := []struct {
		mb        int
		wantMax   int
		wantYoung int
		wantOld   int
	}{
		{64, 64 << 20, 4 << 20, 60 << 20},
		{16, 16 << 20, 1 << 20, 15 << 20},
		{512, 512 << 20, 32 << 20, 480 << 20},
	}

	for _, tt := range tests {
		cfg := ConfigWithMaxHeapMB(tt.mb)
		if err := cfg.Validate(); err != nil {
			t.Errorf("ConfigWithMaxHeapMB(%d).Validate() = %v, want nil", tt.mb, err)
		}
		if cfg.MaxHeapSize != tt.wantMax {
			t.Errorf("ConfigWithMaxHeapMB(%d) MaxHeapSize = %d, want %d", tt.mb, cfg.MaxHeapSize, tt.wantMax)
		}
		if cfg.YoungSize != tt.wantYoung {
			t.Errorf("ConfigWithMaxHeapMB(%d) YoungSize = %d, want %d", tt.mb, cfg.YoungSize, tt.wantYoung)
		}
		if cfg.OldSize != tt.wantOld {
			t.Errorf("ConfigWithMaxHeapMB(%d) OldSize = %d, want %d", tt.mb, cfg.OldSize, tt.wantOld)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() Config { return DefaultConfig() }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"default", func(c *Config) {}, ""},
		{"heap at minimum", func(c *Config) {
			c.MaxHeapSize = 16 << 20
			c.YoungSize = 1 << 20
			c.OldSize = 15 << 20
		}, ""},
		{"heap at maximum", func(c *Config) { c.MaxHeapSize = 16 << 30 }, ""},
		{"threshold at one", func(c *Config) { c.MinorGCThreshold = 1.0 }, ""},
		{"heap too small", func(c *Config) { c.MaxHeapSize = 16<<20 - 1 }, "below the"},
		{"heap zero", func(c *Config) { c.MaxHeapSize = 0 }, "below the"},
		{"heap too large", func(c *Config) { c.MaxHeapSize = 16<<30 + 1 }, "above the"},
		{"negative young", func(c *Config) { c.YoungSize = -1 }, "is negative"},
		{"negative old", func(c *Config) { c.OldSize = -1 }, "is negative"},
		{"generations exceed heap", func(c *Config) {
			c.YoungSize = 256 << 20
			c.OldSize = 257 << 20
		}, "exceed the max heap size"},
		{"minor threshold zero", func(c *Config) { c.MinorGCThreshold = 0 }, "minor gc threshold"},
		{"minor threshold negative", func(c *Config) { c.MinorGCThreshold = -0.5 }, "minor gc threshold"},
		{"minor threshold above one", func(c *Config) { c.MinorGCThreshold = 1.5 }, "minor gc threshold"},
		{"major threshold zero", func(c *Config) { c.MajorGCThreshold = 0 }, "major gc threshold"},
		{"major threshold above one", func(c *Config) { c.MajorGCThreshold = 2 }, "major gc threshold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %q, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigValidateNaNThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinorGCThreshold = math.NaN()
	if cfg.Validate() == nil {
		t.Error("Validate() accepted a NaN minor threshold")
	}
	cfg = DefaultConfig()
	cfg.MajorGCThreshold = math.NaN()
	if cfg.Validate() == nil {
		t.Error("Validate() accepted a NaN major threshold")
	}
}
