package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mj1618/browser-cli/internal/browser"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <url>",
	Short: "Print a labeled outline of a page",
	Long: `Open a page and print its element outline with numeric labels, the same
view the MCP browser_snapshot tool produces.`,
	Args: cobra.ExactArgs(1),
	RunE: runSnapshot,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.Flags().Bool("include-hidden", false, "Include hidden and zero-size elements")
	snapshotCmd.Flags().Bool("clickable", false, "Only list interactive elements")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	session, err := browser.Launch(browserConfig(cmd))
	if err != nil {
		return err
	}
	defer session.Close()

	ctx := context.Background()
	if err := session.Navigate(ctx, args[0]); err != nil && browser.KindOf(err) != browser.KindNavigationTimeout {
		return err
	}

	clickable, _ := cmd.Flags().GetBool("clickable")
	if clickable {
		nodes, err := session.ClickableElements(ctx)
		if err != nil {
			return err
		}
		for _, n := range nodes {
			fmt.Printf("[%d]<%s>%s\n", n.Label, n.Tag, n.Text)
		}
		return nil
	}

	hidden, _ := cmd.Flags().GetBool("include-hidden")
	text, err := session.Snapshot(ctx, hidden)
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}
