package main

import (
	"fmt"
	"strings"

	"github.com/harunnryd/deskflow/cmd/deskflow/runtime"
	"github.com/harunnryd/deskflow/internal/catalog"
	"github.com/harunnryd/deskflow/internal/formatter"

	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the service catalog",
}

var catalogLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List catalog services",
	RunE: func(cmd *cobra.Command, args []string) error {
		loadedCfg, err := loadConfigForCommand(cmd)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		cat, err := catalog.Load(loadedCfg.Catalog.Path, catalog.DefaultScorer())
		if err != nil {
			return err
		}

		f, err := outputFormatter(cmd)
		if err != nil {
			return err
		}
		out, err := f.FormatServices(cat.Services())
		if err != nil {
			return fmt.Errorf("failed to format services: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

var catalogMatchCmd = &cobra.Command{
	Use:   "match [text]",
	Short: "Show how a request text is classified",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		return executeWithRuntime(cmd, func(r *runtime.RuntimeComponents) error {
			res, err := r.Matcher.Match(r.Ctx, text)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Kind: %s\n", res.Kind)
			switch {
			case res.Service != nil:
				fmt.Fprintf(w, "Service: %s (%s)\nScore: %.2f\n", res.Service.ID, res.Service.DisplayName(), res.Score)
			case len(res.Candidates) > 0:
				fmt.Fprintln(w, "Candidates:")
				for _, c := range res.Candidates {
					fmt.Fprintf(w, "- %s (%s)\n", c.ID, c.DisplayName())
				}
			default:
				fmt.Fprintf(w, "Reason: %s\n", res.Reason)
			}
			return nil
		})
	},
}

func outputFormatter(cmd *cobra.Command) (formatter.Formatter, error) {
	format, err := formatter.ParseOutputFormat(outputFlag(cmd))
	if err != nil {
		return nil, err
	}
	return formatter.NewFormatterFactory().Create(format)
}

func init() {
	catalogCmd.AddCommand(catalogLsCmd)
	catalogCmd.AddCommand(catalogMatchCmd)
	rootCmd.AddCommand(catalogCmd)
}
