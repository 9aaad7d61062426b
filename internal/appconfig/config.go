// Package appconfig holds the daemon-level settings distinct from the
// bindings/plugin-state persistence of internal/bindingstore: listen
// address, HID device filter, poll intervals, and plugin connection
// defaults. Grounded on the teacher's server/config/config.go YAML
// defaults+override merge idiom (Load/SaveOverrides/diffMaps), re-targeted
// from car-dashboard UI settings to daemon settings.
package appconfig

import (
	"encoding/json"
	"os"
	"reflect"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vincent99/deckmanagerd/internal/logging"
)

var log = logging.For("appconfig")

// HIDConfig selects which USB device the HID engine connects to.
type HIDConfig struct {
	VendorID  uint16 `yaml:"vendorId"  json:"vendorId"`
	ProductID uint16 `yaml:"productId" json:"productId"` // 0 means "any product from VendorID"
}

// IntervalsConfig holds every poll/tick interval in the daemon, as
// parseable duration strings (e.g. "100ms", "2s") the way the teacher's
// config.yaml expresses intervals.
type IntervalsConfig struct {
	StateManagerTick   string `yaml:"stateManagerTick"   json:"stateManagerTick"`
	StateManagerPoll   string `yaml:"stateManagerPoll"   json:"stateManagerPoll"`
	HotplugPoll        string `yaml:"hotplugPoll"        json:"hotplugPoll"`
	HIDReadTimeout     string `yaml:"hidReadTimeout"     json:"hidReadTimeout"`
	DebounceWindow     string `yaml:"debounceWindow"     json:"debounceWindow"`
	RateLimitWindow    string `yaml:"rateLimitWindow"    json:"rateLimitWindow"`
}

// ImageCacheConfig tunes internal/imagecache.
type ImageCacheConfig struct {
	Capacity int    `yaml:"capacity" json:"capacity"`
	URLTTL   string `yaml:"urlTtl"   json:"urlTtl"`
}

// RenderConfig holds per-key image geometry and font path.
type RenderConfig struct {
	KeyWidth  int    `yaml:"keyWidth"  json:"keyWidth"`
	KeyHeight int    `yaml:"keyHeight" json:"keyHeight"`
	FontPath  string `yaml:"fontPath"  json:"fontPath"`
}

// SwipeConfig tunes inputdecoder's gesture threshold: the minimum signed
// horizontal travel (in raw touch-strip units) that counts as a swipe.
type SwipeConfig struct {
	MinDistance int `yaml:"minDistance" json:"minDistance"`
}

// Config holds every daemon-level setting.
type Config struct {
	Addr       string           `yaml:"addr"       json:"addr"`
	HID        HIDConfig        `yaml:"hid"        json:"hid"`
	Intervals  IntervalsConfig  `yaml:"intervals"  json:"intervals"`
	ImageCache ImageCacheConfig `yaml:"imageCache" json:"imageCache"`
	Render     RenderConfig     `yaml:"render"     json:"render"`
	Swipe      SwipeConfig      `yaml:"swipe"      json:"swipe"`
	Hidden     bool             `yaml:"hidden"     json:"hidden"`

	// Parsed values, not serialized — populated by Load().
	StateManagerTickDur time.Duration `yaml:"-" json:"-"`
	StateManagerPollDur time.Duration `yaml:"-" json:"-"`
	HotplugPollDur      time.Duration `yaml:"-" json:"-"`
	HIDReadTimeoutDur   time.Duration `yaml:"-" json:"-"`
	DebounceWindowDur   time.Duration `yaml:"-" json:"-"`
	RateLimitWindowDur  time.Duration `yaml:"-" json:"-"`
	ImageCacheURLTTLDur time.Duration `yaml:"-" json:"-"`
}

// LoadResult holds both the effective merged config and the raw defaults.
type LoadResult struct {
	Config   *Config
	Defaults *Config
}

// Load reads config.default.yaml as the baseline, then applies any
// overrides from config.yaml (if present and valid). A missing or
// malformed defaults file is fatal — the daemon has no sane baseline
// without it, matching the teacher's log.Fatal on config read errors.
func Load(defaultsPath, overridePath string) *LoadResult {
	var defaults Config
	data, err := os.ReadFile(defaultsPath)
	if err != nil {
		log.WithError(err).Fatal("appconfig: read defaults")
	}
	if err := yaml.Unmarshal(data, &defaults); err != nil {
		log.WithError(err).Fatal("appconfig: parse defaults")
	}

	cfg := defaults
	if ovData, err := os.ReadFile(overridePath); err == nil {
		if err := yaml.Unmarshal(ovData, &cfg); err != nil {
			log.WithError(err).Warn("appconfig: ignoring malformed override file")
		}
	}

	parseDurations(&cfg)
	parseDurations(&defaults)
	return &LoadResult{Config: &cfg, Defaults: &defaults}
}

func parseDurations(cfg *Config) {
	cfg.StateManagerTickDur = mustParseDuration(cfg.Intervals.StateManagerTick, "intervals.stateManagerTick", 100*time.Millisecond)
	cfg.StateManagerPollDur = mustParseDuration(cfg.Intervals.StateManagerPoll, "intervals.stateManagerPoll", 2*time.Second)
	cfg.HotplugPollDur = mustParseDuration(cfg.Intervals.HotplugPoll, "intervals.hotplugPoll", 100*time.Millisecond)
	cfg.HIDReadTimeoutDur = mustParseDuration(cfg.Intervals.HIDReadTimeout, "intervals.hidReadTimeout", 50*time.Millisecond)
	cfg.DebounceWindowDur = mustParseDuration(cfg.Intervals.DebounceWindow, "intervals.debounceWindow", 80*time.Millisecond)
	cfg.RateLimitWindowDur = mustParseDuration(cfg.Intervals.RateLimitWindow, "intervals.rateLimitWindow", 200*time.Millisecond)
	cfg.ImageCacheURLTTLDur = mustParseDuration(cfg.ImageCache.URLTTL, "imageCache.urlTtl", 5*time.Minute)
}

func mustParseDuration(s, field string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		log.WithField("field", field).WithError(err).Fatal("appconfig: invalid duration")
	}
	return d
}

// SaveOverrides writes only the fields that differ from defaults to
// overridePath, matching the teacher's SaveOverrides diff-against-defaults
// behavior exactly.
func SaveOverrides(overridePath string, updated, defaults Config) error {
	uMap := toMap(updated)
	dMap := toMap(defaults)
	diff := diffMaps(uMap, dMap)
	data, err := yaml.Marshal(diff)
	if err != nil {
		return err
	}
	return os.WriteFile(overridePath, data, 0644)
}

func toMap(v any) map[string]any {
	b, _ := json.Marshal(v)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

func diffMaps(override, defaults map[string]any) map[string]any {
	result := map[string]any{}
	for k, ov := range override {
		dv, ok := defaults[k]
		if !ok {
			result[k] = ov
			continue
		}
		if om, ok2 := ov.(map[string]any); ok2 {
			if dm, ok3 := dv.(map[string]any); ok3 {
				sub := diffMaps(om, dm)
				if len(sub) > 0 {
					result[k] = sub
				}
				continue
			}
		}
		if !reflect.DeepEqual(ov, dv) {
			result[k] = ov
		}
	}
	return result
}
