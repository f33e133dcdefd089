package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/lightnote/internal/ingest"
)

var addCmd = &cobra.Command{
	Use:   "add [text...]",
	Short: "Write a journal entry (reads stdin when no text is given)",
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		if text == "" {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			text = string(data)
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		e, err := a.importer().Add(cmd.Context(), text)
		if err != nil {
			return err
		}
		fmt.Printf("Saved entry %s", e.ID)
		if e.Sentiment != nil {
			fmt.Printf(" (mood %.2f)", e.Sentiment.Compound)
		}
		fmt.Println()
		return nil
	},
}

// --- import command ---

var (
	importFeed string
	importClip string
)

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import entries from a JSON export, a feed or a web page",
	Long: `Import entries from a JSON export ("-" reads stdin), from an RSS/Atom
feed with --feed, or clip a single web page with --clip.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sources := len(args)
		if importFeed != "" {
			sources++
		}
		if importClip != "" {
			sources++
		}
		if sources != 1 {
			return fmt.Errorf("give exactly one of: a file, --feed or --clip")
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		im := a.importer()

		if importClip != "" {
			e, err := ingest.NewClipper(im, 0).Clip(ctx, importClip)
			if err != nil {
				return err
			}
			fmt.Printf("Clipped %d words as %s\n", e.WordCount(), e.ID)
			return nil
		}

		var res *ingest.Result
		if importFeed != "" {
			res, err = im.ImportFeed(ctx, importFeed)
		} else {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, ferr := os.Open(args[0])
				if ferr != nil {
					return ferr
				}
				defer f.Close()
				r = f
			}
			res, err = im.ImportJSON(ctx, r)
		}
		if err != nil {
			return err
		}

		fmt.Println("\nImport complete:")
		fmt.Printf("  Entries found: %d\n", res.Found)
		fmt.Printf("  New entries: %d\n", res.New)
		fmt.Printf("  Scored on import: %d\n", res.Scored)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importFeed, "feed", "", "RSS/Atom feed URL to import")
	importCmd.Flags().StringVar(&importClip, "clip", "", "Web page URL to clip as one entry")
}

// --- score command ---

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score the sentiment of entries that have none yet",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		pending, err := a.db.UnscoredEntries(ctx)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			fmt.Println("All entries are scored.")
			return nil
		}

		scored, err := a.dispatcher.ScoreAll(ctx, pending)
		if err != nil {
			return err
		}
		for _, e := range scored {
			if err := a.db.SetSentiment(ctx, e.ID, *e.Sentiment); err != nil {
				return fmt.Errorf("saving sentiment for %s: %w", e.ID, err)
			}
		}
		fmt.Printf("Scored %d entries.\n", len(scored))
		return nil
	},
}
