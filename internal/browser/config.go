package browser

import (
	"net/url"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/devices"
)

// Config holds everything needed to launch or attach to a browser. All fields
// are validated together up front; nothing is checked lazily mid-session.
type Config struct {
	Headless    bool   `json:"headless" yaml:"headless"`
	Stealth     bool   `json:"stealth" yaml:"stealth"`
	NoSandbox   bool   `json:"noSandbox" yaml:"noSandbox"`
	CDPEndpoint string `json:"cdpEndpoint" yaml:"cdpEndpoint"` // attach instead of launch
	ExecPath    string `json:"execPath" yaml:"execPath"`       // browser binary for launch mode
	UserDataDir string `json:"userDataDir" yaml:"userDataDir"` // persistent profile, empty = throwaway
	OutputDir   string `json:"outputDir" yaml:"outputDir"`     // on-disk artifact spill, empty = memory only

	ViewportWidth  int    `json:"viewportWidth" yaml:"viewportWidth"`
	ViewportHeight int    `json:"viewportHeight" yaml:"viewportHeight"`
	UserAgent      string `json:"userAgent" yaml:"userAgent"`
	Device         string `json:"device" yaml:"device"`
	ProxyServer    string `json:"proxyServer" yaml:"proxyServer"`

	Timeout string `json:"timeout" yaml:"timeout"` // per-action timeout, e.g. "30s"

	ConsoleCap       int   `json:"consoleCap" yaml:"consoleCap"`
	ScreenshotBudget int64 `json:"screenshotBudget" yaml:"screenshotBudget"`
}

func DefaultConfig() Config {
	return Config{
		Headless:       true,
		Stealth:        true,
		ViewportWidth:  1280,
		ViewportHeight: 720,
		Device:         "clear",
		Timeout:        "30s",
	}
}

// Validate checks the whole configuration before any browser process or
// connection exists. Conflicting launch/attach options fail here, not later.
func (c *Config) Validate() error {
	const op = "config"

	if c.CDPEndpoint != "" {
		u, err := url.Parse(c.CDPEndpoint)
		if err != nil || (u.Scheme != "ws" && u.Scheme != "wss" && u.Scheme != "http" && u.Scheme != "https") {
			return newErr(KindConfig, op, "cdp endpoint %q is not a ws:// or http:// URL", c.CDPEndpoint)
		}
		// Attach mode drives someone else's process; launch-only options
		// cannot apply to it.
		if c.ExecPath != "" {
			return newErr(KindConfig, op, "cdp endpoint and executable path are mutually exclusive")
		}
		if c.UserDataDir != "" {
			return newErr(KindConfig, op, "cdp endpoint and user data dir are mutually exclusive")
		}
		if c.ProxyServer != "" {
			return newErr(KindConfig, op, "proxy cannot be set when attaching to a running browser")
		}
	}

	if c.ViewportWidth < 0 || c.ViewportHeight < 0 {
		return newErr(KindConfig, op, "viewport %dx%d is invalid", c.ViewportWidth, c.ViewportHeight)
	}
	if (c.ViewportWidth == 0) != (c.ViewportHeight == 0) {
		return newErr(KindConfig, op, "viewport width and height must be set together")
	}

	if c.ProxyServer != "" {
		if _, err := url.Parse(c.ProxyServer); err != nil {
			return newErr(KindConfig, op, "proxy server %q: %v", c.ProxyServer, err)
		}
	}

	if c.Timeout != "" {
		if _, err := time.ParseDuration(c.Timeout); err != nil {
			return newErr(KindConfig, op, "timeout %q: %v", c.Timeout, err)
		}
	}

	if c.ConsoleCap < 0 {
		return newErr(KindConfig, op, "console cap %d is negative", c.ConsoleCap)
	}
	if c.ScreenshotBudget < 0 {
		return newErr(KindConfig, op, "screenshot budget %d is negative", c.ScreenshotBudget)
	}

	return nil
}

// Attach reports whether the session connects to an already-running browser
// instead of launching its own.
func (c *Config) Attach() bool { return c.CDPEndpoint != "" }

// ResolveTimeout returns the per-action timeout as a duration.
func (c *Config) ResolveTimeout() time.Duration {
	if c.Timeout == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// ResolveDevice maps the friendly device name to rod's emulation profile.
// Unknown names fall back to no emulation.
func (c *Config) ResolveDevice() devices.Device {
	switch strings.ToLower(c.Device) {
	case "", "clear":
		return devices.Clear
	case "laptop", "laptop-mdpi":
		return devices.LaptopWithMDPIScreen
	case "laptop-hidpi":
		return devices.LaptopWithHiDPIScreen
	case "laptop-touch":
		return devices.LaptopWithTouch
	case "iphone-x":
		return devices.IPhoneX
	case "iphone-8":
		return devices.IPhone6or7or8
	case "ipad":
		return devices.IPad
	case "pixel-2":
		return devices.Pixel2
	case "galaxy-s5":
		return devices.GalaxyS5
	case "nexus-7":
		return devices.Nexus7
	default:
		return devices.Clear
	}
}
