package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/lightnote/internal/digest"
	"github.com/TobiSchelling/lightnote/internal/tui"
	"github.com/TobiSchelling/lightnote/internal/week"
)

var browseWeek string

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse weekly digests in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := resolveWeek(browseWeek)
		if err != nil {
			return err
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		load := func(ctx context.Context, k week.Key, refresh bool) (*digest.Digest, error) {
			if !refresh {
				return a.gen.Latest(ctx, k)
			}
			result, err := a.gen.Generate(ctx, k)
			if err != nil {
				return nil, err
			}
			return &result.Digest, nil
		}
		return tui.Run(cmd.Context(), load, key)
	},
}

func init() {
	browseCmd.Flags().StringVarP(&browseWeek, "week", "w", "", "Week to open first (default this week)")
}
