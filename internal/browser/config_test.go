package browser

import "testing"

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"attach mode", func(c *Config) { c.CDPEndpoint = "ws://localhost:9222" }, false},
		{"attach http endpoint", func(c *Config) { c.CDPEndpoint = "http://localhost:9222" }, false},
		{"attach bad scheme", func(c *Config) { c.CDPEndpoint = "ftp://host" }, true},
		{"attach plus exec path", func(c *Config) {
			c.CDPEndpoint = "ws://localhost:9222"
			c.ExecPath = "/usr/bin/chromium"
		}, true},
		{"attach plus user data dir", func(c *Config) {
			c.CDPEndpoint = "ws://localhost:9222"
			c.UserDataDir = "/tmp/profile"
		}, true},
		{"attach plus proxy", func(c *Config) {
			c.CDPEndpoint = "ws://localhost:9222"
			c.ProxyServer = "http://proxy:8080"
		}, true},
		{"negative viewport", func(c *Config) { c.ViewportWidth = -1 }, true},
		{"half viewport", func(c *Config) { c.ViewportWidth = 0; c.ViewportHeight = 720 }, true},
		{"no viewport", func(c *Config) { c.ViewportWidth = 0; c.ViewportHeight = 0 }, false},
		{"bad timeout", func(c *Config) { c.Timeout = "banana" }, true},
		{"negative console cap", func(c *Config) { c.ConsoleCap = -1 }, true},
		{"negative screenshot budget", func(c *Config) { c.ScreenshotBudget = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && KindOf(err) != KindConfig {
				t.Errorf("kind = %s, want %s", KindOf(err), KindConfig)
			}
		})
	}
}

func TestConfigResolveTimeout(t *testing.T) {
	cfg := Config{Timeout: "5s"}
	if got := cfg.ResolveTimeout().Seconds(); got != 5 {
		t.Errorf("ResolveTimeout() = %vs", got)
	}
	cfg.Timeout = ""
	if got := cfg.ResolveTimeout().Seconds(); got != 30 {
		t.Errorf("default ResolveTimeout() = %vs", got)
	}
}
