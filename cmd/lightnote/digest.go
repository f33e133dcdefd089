package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/lightnote/internal/digest"
	"github.com/TobiSchelling/lightnote/internal/render"
	"github.com/TobiSchelling/lightnote/internal/week"
)

var (
	digestWeek   string
	digestCached bool
	digestFormat string
	digestSteps  bool
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Generate and print the weekly digest",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := resolveWeek(digestWeek)
		if err != nil {
			return err
		}
		format, err := formatter(digestFormat)
		if err != nil {
			return err
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		var d *digest.Digest
		if digestCached {
			d, err = a.gen.Cached(ctx, key)
			if err != nil {
				return err
			}
			if d == nil {
				return fmt.Errorf("no stored digest for %s; run without --cached", key)
			}
		} else {
			result, err := a.gen.Generate(ctx, key)
			if err != nil {
				return err
			}
			if digestSteps {
				for i, step := range result.Steps {
					fmt.Printf("Step %d/%d: %s\n", i+1, len(result.Steps), step.Name)
					if step.Err != nil {
						fmt.Printf("  Error: %v\n", step.Err)
					} else {
						fmt.Printf("  %s\n", step.Summary)
					}
				}
				fmt.Println()
			}
			d = &result.Digest
		}

		out, err := format(*d)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	},
}

func init() {
	digestCmd.Flags().StringVarP(&digestWeek, "week", "w", "", "Week key like 2026-W07, or 'last' (default this week)")
	digestCmd.Flags().BoolVar(&digestCached, "cached", false, "Print the last stored digest instead of generating")
	digestCmd.Flags().StringVarP(&digestFormat, "format", "f", "terminal", "Output format: text, markdown, terminal or json")
	digestCmd.Flags().BoolVar(&digestSteps, "steps", false, "Print a summary of each generation step")
}

// resolveWeek maps a --week value to a key. Empty means this week.
func resolveWeek(raw string) (week.Key, error) {
	current := week.Current(time.Now())
	switch raw {
	case "", "this", "current":
		return current, nil
	case "last", "prev", "previous":
		return week.Prev(current)
	default:
		return week.ParseKey(raw)
	}
}

func formatter(name string) (func(digest.Digest) (string, error), error) {
	switch name {
	case "text":
		return func(d digest.Digest) (string, error) { return render.Text(d), nil }, nil
	case "markdown", "md":
		return func(d digest.Digest) (string, error) { return render.Markdown(d), nil }, nil
	case "terminal", "":
		return func(d digest.Digest) (string, error) { return render.Terminal(d), nil }, nil
	case "json":
		return func(d digest.Digest) (string, error) {
			data, err := json.MarshalIndent(d, "", "  ")
			return string(data), err
		}, nil
	default:
		return nil, fmt.Errorf("unknown format %q (want text, markdown, terminal or json)", name)
	}
}
