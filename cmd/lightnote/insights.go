package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/lightnote/internal/insights"
	"github.com/TobiSchelling/lightnote/internal/render"
)

var insightsWeek string

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Manage saved insights",
}

var insightsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved insights, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		items, err := a.insights.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println("No insights saved. Save one with: lightnote insights save")
			return nil
		}

		fmt.Printf("%d saved\n\n", len(items))
		for _, in := range items {
			fmt.Printf("[%s] %s (%s) week:%s\n", in.ID[:8], in.CreatedAt.Format("Mon Jan 02 2006 15:04"), insights.Label(in), in.Week)
			for _, line := range strings.Split(in.Text, "\n") {
				fmt.Printf("    %s\n", line)
			}
			fmt.Println()
		}
		return nil
	},
}

var insightsSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save the week's digest as an insight",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := resolveWeek(insightsWeek)
		if err != nil {
			return err
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		d, err := a.gen.Latest(cmd.Context(), key)
		if err != nil {
			return err
		}
		in, err := a.insights.Save(cmd.Context(), string(key), render.Text(*d))
		if err != nil {
			return err
		}
		fmt.Printf("Insight saved (%s).\n", in.ID)
		return nil
	},
}

var insightsAskCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask the completion service to reflect on the week's digest",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := resolveWeek(insightsWeek)
		if err != nil {
			return err
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		if a.providerErr != nil {
			return a.providerErr
		}

		d, err := a.gen.Latest(cmd.Context(), key)
		if err != nil {
			return err
		}
		in, err := a.insights.Reflect(cmd.Context(), a.reflector(), string(key), render.Text(*d))
		if err != nil {
			return fmt.Errorf("AI request failed: %w", err)
		}
		fmt.Println(in.Text)
		fmt.Println("\nAI response saved.")
		return nil
	},
}

var insightsDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a saved insight",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := resolveInsightID(cmd, a, args[0])
		if err != nil {
			return err
		}
		ok, err := a.insights.Delete(cmd.Context(), id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("insight %s not found", args[0])
		}
		fmt.Println("Insight deleted.")
		return nil
	},
}

var insightsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every saved insight",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.insights.Clear(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Cleared %d insights.\n", n)
		return nil
	},
}

// resolveInsightID expands the short ID prefix printed by list.
func resolveInsightID(cmd *cobra.Command, a *app, prefix string) (string, error) {
	items, err := a.insights.List(cmd.Context())
	if err != nil {
		return "", err
	}
	var match string
	for _, in := range items {
		if in.ID == prefix {
			return in.ID, nil
		}
		if strings.HasPrefix(in.ID, prefix) {
			if match != "" {
				return "", fmt.Errorf("id prefix %q is ambiguous", prefix)
			}
			match = in.ID
		}
	}
	if match == "" {
		return prefix, nil
	}
	return match, nil
}

func init() {
	for _, c := range []*cobra.Command{insightsSaveCmd, insightsAskCmd} {
		c.Flags().StringVarP(&insightsWeek, "week", "w", "", "Week key like 2026-W07, or 'last' (default this week)")
	}
	insightsCmd.AddCommand(insightsListCmd, insightsSaveCmd, insightsAskCmd, insightsDeleteCmd, insightsClearCmd)
}
