package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mj1618/browser-cli/internal/browser"
	"github.com/mj1618/browser-cli/internal/output"
)

var extractCmd = &cobra.Command{
	Use:   "extract <url>",
	Short: "Extract the readable content of a page",
	Long: `Open a page, run readability extraction, and print the article content
without navigation or boilerplate. Output honors the --format flag.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().Bool("text-only", false, "Print only the article text")
}

func runExtract(cmd *cobra.Command, args []string) error {
	session, err := browser.Launch(browserConfig(cmd))
	if err != nil {
		return err
	}
	defer session.Close()

	ctx := context.Background()
	if err := session.Navigate(ctx, args[0]); err != nil && browser.KindOf(err) != browser.KindNavigationTimeout {
		return err
	}

	content, err := session.ExtractContent(ctx)
	if err != nil {
		return err
	}

	if textOnly, _ := cmd.Flags().GetBool("text-only"); textOnly {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), content.Text)
		return err
	}
	return output.Print(content)
}
