package render

import (
	"fmt"
	"strings"

	"github.com/TobiSchelling/lightnote/internal/digest"
)

// Markdown renders the digest as a Markdown document.
func Markdown(d digest.Digest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", Title(d))
	fmt.Fprintf(&b, "_%s_\n\n", d.Range.Label())

	if d.Empty {
		b.WriteString(d.Message + "\n")
		return b.String()
	}

	for _, l := range []string{EntriesLine(d), MoodLine(d), d.WhenSentence} {
		if l != "" {
			fmt.Fprintf(&b, "- **%s**\n", escape(l))
		}
	}
	b.WriteString("\n")

	if pills := d.Themes.Pills(); len(pills) > 0 {
		b.WriteString("### Themes\n\n")
		codes := make([]string, len(pills))
		for i, p := range pills {
			codes[i] = "`" + strings.ReplaceAll(p, "`", "'") + "`"
		}
		b.WriteString(strings.Join(codes, " ") + "\n\n")
		for _, ev := range EvidenceLines(d) {
			fmt.Fprintf(&b, "> %s\n>\n", escape(ev))
		}
		b.WriteString("\n")
	}

	if d.NotableNegative != nil || d.NotablePositive != nil {
		b.WriteString("### Notable entries\n\n")
		for _, l := range []string{
			NotableLine(labelNotLow, d.NotableNegative),
			NotableLine(labelNotHigh, d.NotablePositive),
		} {
			if l != "" {
				fmt.Fprintf(&b, "- %s\n", escape(l))
			}
		}
		b.WriteString("\n")
	}

	if len(d.EntityImpacts) > 0 {
		b.WriteString("### People and topics\n\n")
		for _, e := range d.EntityImpacts {
			fmt.Fprintf(&b, "- %s\n", escape(EntityChip(e)))
		}
		b.WriteString("\n")
	}

	if len(d.RisingThemes) > 0 || len(d.FallingThemes) > 0 {
		b.WriteString("### Week over week\n\n")
		if len(d.RisingThemes) > 0 {
			fmt.Fprintf(&b, "- Up: %s\n", escape(DeltaList(d.RisingThemes)))
		}
		if len(d.FallingThemes) > 0 {
			fmt.Fprintf(&b, "- Down: %s\n", escape(DeltaList(d.FallingThemes)))
		}
		b.WriteString("\n")
	}

	if len(d.LowMoodWords) > 0 {
		fmt.Fprintf(&b, "When mood dipped you wrote about: %s\n\n", escape(strings.Join(d.LowMoodWords, ", ")))
	}

	if len(d.Questions) > 0 {
		b.WriteString("### Questions\n\n")
		for _, q := range d.Questions {
			fmt.Fprintf(&b, "- %s\n", escape(q))
		}
		b.WriteString("\n")
	}
	if d.NextStep != "" {
		fmt.Fprintf(&b, "**Next tiny step:** %s\n", escape(d.NextStep))
	}
	return b.String()
}

var mdEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"<", "&lt;",
	">", "&gt;",
	"#", `\#`,
)

// escape keeps journal text from being read as Markdown markup.
func escape(s string) string {
	return mdEscaper.Replace(s)
}
