package cmd

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mj1618/browser-cli/internal/browser"
)

var screenshotCmd = &cobra.Command{
	Use:   "screenshot <url>",
	Short: "Capture a screenshot of a page",
	Long:  "Open a page and capture a screenshot for vision model fallback.",
	Args:  cobra.ExactArgs(1),
	RunE:  runScreenshot,
}

func init() {
	rootCmd.AddCommand(screenshotCmd)
	screenshotCmd.Flags().String("output", "", "Output file path (default: stdout as base64)")
	screenshotCmd.Flags().Bool("full-page", false, "Capture the full scrollable page")
	screenshotCmd.Flags().Float64("scale", 0, "Downscale factor 0.1-1.0 (for token efficiency)")
}

func runScreenshot(cmd *cobra.Command, args []string) error {
	session, err := browser.Launch(browserConfig(cmd))
	if err != nil {
		return err
	}
	defer session.Close()

	ctx := context.Background()
	if err := session.Navigate(ctx, args[0]); err != nil && browser.KindOf(err) != browser.KindNavigationTimeout {
		return err
	}

	fullPage, _ := cmd.Flags().GetBool("full-page")
	scale, _ := cmd.Flags().GetFloat64("scale")

	data, _, err := session.Screenshot(ctx, "cli", fullPage, nil, scale)
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output != "" {
		return os.WriteFile(output, data, 0644)
	}

	// Default: write to stdout as base64 for easy agent consumption
	encoder := base64.NewEncoder(base64.StdEncoding, os.Stdout)
	if _, err := encoder.Write(data); err != nil {
		return err
	}
	if err := encoder.Close(); err != nil {
		return err
	}
	fmt.Println() // newline after base64
	return nil
}
