// Package validate checks a Config before the application starts any
// hardware or network work.
package validate

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/mikeyg42/luxcam/internal/config"
)

// -----------------------------------------------------------------------------
// Top-level full-config validation
// -----------------------------------------------------------------------------

type Validator struct{ errors []string }

func (v *Validator) AddError(format string, args ...interface{}) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}
func (v *Validator) HasErrors() bool  { return len(v.errors) > 0 }
func (v *Validator) Errors() []string { return v.errors }

// ValidateConfig delegates to per-section validators.
func ValidateConfig(cfg *config.Config) error {
	v := &Validator{}

	validateEndpoint(v, cfg)
	validateScanConfig(v, cfg)
	validateTimingConfig(v, cfg)
	validateClipConfig(v, cfg)

	if v.HasErrors() {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(v.Errors(), "\n"))
	}
	return nil
}

func validateEndpoint(v *Validator, cfg *config.Config) {
	ep := strings.TrimSpace(cfg.Endpoint)
	if ep == "" {
		v.AddError("endpoint cannot be empty")
		return
	}

	if strings.HasPrefix(ep, "ws://") || strings.HasPrefix(ep, "wss://") {
		u, err := url.Parse(ep)
		if err != nil {
			v.AddError("invalid websocket endpoint %q: %v", ep, err)
			return
		}
		if u.Host == "" {
			v.AddError("websocket endpoint %q has no host", ep)
		}
		return
	}

	host, portStr, err := net.SplitHostPort(ep)
	if err != nil {
		v.AddError("endpoint must be host:port or a ws:// URL: %v", err)
		return
	}
	if host == "" {
		v.AddError("endpoint %q has no host", ep)
	}
	if port, err := strconv.Atoi(portStr); err != nil || port < 1 || port > 65535 {
		v.AddError("endpoint %q has an invalid port %q", ep, portStr)
	}
}

func validateScanConfig(v *Validator, cfg *config.Config) {
	if cfg.MaxIndex < 0 {
		v.AddError("max device index must be >= 0, got %d", cfg.MaxIndex)
	}
	if cfg.StartIndex < 0 {
		v.AddError("start device index must be >= 0, got %d", cfg.StartIndex)
	}
}

func validateTimingConfig(v *Validator, cfg *config.Config) {
	if cfg.Interval <= 0 {
		v.AddError("send interval must be positive, got %v", cfg.Interval)
	}
	if cfg.ProbeTimeout <= 0 {
		v.AddError("probe timeout must be positive, got %v", cfg.ProbeTimeout)
	}
	if cfg.PollTimeout <= 0 {
		v.AddError("poll timeout must be positive, got %v", cfg.PollTimeout)
	}
}

func validateClipConfig(v *Validator, cfg *config.Config) {
	if cfg.ClipDuration < 0 {
		v.AddError("clip duration must be >= 0, got %v", cfg.ClipDuration)
	}
	if cfg.ClipDuration == 0 {
		return
	}

	// Clip dir must exist and be writable. Keep this simple and
	// reliable: mkdir -p; create a temp file; delete it.
	dir := strings.TrimSpace(cfg.ClipDir)
	if dir == "" {
		v.AddError("clip dir cannot be empty when clip recording is enabled")
		return
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		v.AddError("cannot create clip dir %q: %v", dir, err)
		return
	}
	f, err := os.CreateTemp(dir, ".clip-permcheck-*")
	if err != nil {
		v.AddError("clip dir %q is not writable: %v", dir, err)
		return
	}
	path := f.Name()
	_ = f.Close()
	_ = os.Remove(path)
}
