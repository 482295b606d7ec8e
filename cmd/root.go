package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mj1618/browser-cli/internal/browser"
	"github.com/mj1618/browser-cli/internal/logging"
	"github.com/mj1618/browser-cli/internal/output"
	"github.com/mj1618/browser-cli/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "browser-cli",
	Short: "Drive a real browser from the command line or over MCP",
	Long:  "A CLI tool that lets AI agents browse the web: navigate, click elements by numeric label, extract page content, and capture screenshots through a real Chromium instance.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)

	rootCmd.PersistentFlags().String("format", "yaml", "Output format: yaml, json, text")
	rootCmd.PersistentFlags().Bool("pretty", false, "Pretty-print JSON output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Only log warnings and errors")

	// Browser flags shared by every command that opens a session.
	rootCmd.PersistentFlags().Bool("headed", false, "Run the browser with a visible window")
	rootCmd.PersistentFlags().String("cdp-endpoint", "", "Attach to a running browser at this CDP URL instead of launching")
	rootCmd.PersistentFlags().String("executable-path", "", "Browser binary to launch")
	rootCmd.PersistentFlags().String("user-data-dir", "", "Persistent profile directory")
	rootCmd.PersistentFlags().String("output-dir", "", "Directory for downloaded files (default: temp dir)")
	rootCmd.PersistentFlags().String("user-agent", "", "Override the browser user agent")
	rootCmd.PersistentFlags().String("proxy", "", "Proxy server, e.g. http://host:port")
	rootCmd.PersistentFlags().Int("viewport-width", 1280, "Viewport width in pixels")
	rootCmd.PersistentFlags().Int("viewport-height", 720, "Viewport height in pixels")
	rootCmd.PersistentFlags().String("timeout", "30s", "Per-action timeout")
	rootCmd.PersistentFlags().Bool("no-sandbox", false, "Disable the browser sandbox (Docker/root)")
	rootCmd.PersistentFlags().Bool("no-stealth", false, "Disable automation-detection evasions")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		quiet, _ := cmd.Flags().GetBool("quiet")
		logging.Setup(verbose, quiet)

		format, _ := rootCmd.PersistentFlags().GetString("format")
		switch format {
		case "yaml":
			output.OutputFormat = output.FormatYAML
		case "json":
			output.OutputFormat = output.FormatJSON
		case "text":
			output.OutputFormat = output.FormatText
		default:
			return fmt.Errorf("unsupported format: %s (use yaml, json, or text)", format)
		}
		pretty, _ := cmd.Flags().GetBool("pretty")
		output.PrettyOutput = pretty
		return nil
	}
}

// browserConfig builds a browser configuration from the persistent flags.
func browserConfig(cmd *cobra.Command) browser.Config {
	cfg := browser.DefaultConfig()

	headed, _ := cmd.Flags().GetBool("headed")
	cfg.Headless = !headed
	cfg.CDPEndpoint, _ = cmd.Flags().GetString("cdp-endpoint")
	cfg.ExecPath, _ = cmd.Flags().GetString("executable-path")
	cfg.UserDataDir, _ = cmd.Flags().GetString("user-data-dir")
	cfg.OutputDir, _ = cmd.Flags().GetString("output-dir")
	cfg.UserAgent, _ = cmd.Flags().GetString("user-agent")
	cfg.ProxyServer, _ = cmd.Flags().GetString("proxy")
	cfg.ViewportWidth, _ = cmd.Flags().GetInt("viewport-width")
	cfg.ViewportHeight, _ = cmd.Flags().GetInt("viewport-height")
	cfg.Timeout, _ = cmd.Flags().GetString("timeout")
	cfg.NoSandbox, _ = cmd.Flags().GetBool("no-sandbox")
	noStealth, _ := cmd.Flags().GetBool("no-stealth")
	cfg.Stealth = !noStealth

	// Attach mode drives someone else's browser; launch-only options are
	// rejected by validation, so drop flag defaults that would conflict.
	if cfg.CDPEndpoint != "" {
		cfg.ExecPath = ""
		cfg.UserDataDir = ""
		cfg.ProxyServer = ""
	}
	return cfg
}
