package digest

import (
	"fmt"
	"time"

	"github.com/TobiSchelling/lightnote/internal/journal"
)

const (
	moodDropThreshold = -0.3
	maxQuestions      = 2
)

const (
	bedtimeStep = "Set a gentle bedtime reminder for 10:30pm; just notice if you follow it."
	walkStep    = "Take a 10-minute walk after dinner on Wed/Fri; write one line about energy after."
	genericStep = "Notice what you reach for when you sit down to write; note what preceded it."
)

func questions(d Digest) []string {
	var qs []string
	if len(d.RisingThemes) > 0 {
		qs = append(qs, fmt.Sprintf("What did %q actually mean to you this week?", d.RisingThemes[0].Term))
	}
	if d.MoodDropped() {
		qs = append(qs, "What would help you feel more grounded right now?")
	}
	for _, e := range d.EntityImpacts {
		if e.Significant {
			qs = append(qs, fmt.Sprintf("What's one thing about %s you want to remember?", e.Name))
			break
		}
	}
	if len(qs) > maxQuestions {
		qs = qs[:maxQuestions]
	}
	if qs == nil {
		qs = []string{}
	}
	return qs
}

func nextStep(d Digest) string {
	for _, f := range d.FallingThemes {
		if f.Term == "sleep" {
			return bedtimeStep
		}
	}
	if d.MoodDropped() {
		return walkStep
	}

	theme := ""
	switch {
	case len(d.RisingThemes) > 0:
		theme = d.RisingThemes[0].Term
	case len(d.Themes.Words) > 0:
		theme = d.Themes.Words[0]
	}
	if theme == "" {
		return genericStep
	}
	return fmt.Sprintf("Notice when %q comes up next; write what preceded it.", theme)
}

var weekdays = [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// whenSentence names the weekday and part of day most entries were written
// in. Ties go to the earlier weekday and hour.
func whenSentence(entries []journal.Entry) string {
	if len(entries) == 0 {
		return ""
	}
	var hours [24]int
	var days [7]int
	for _, e := range entries {
		t := e.CreatedAt.In(time.Local)
		hours[t.Hour()]++
		days[t.Weekday()]++
	}
	day := argmax(days[:])
	hour := argmax(hours[:])

	bucket := "evening"
	switch {
	case hour < 12:
		bucket = "morning"
	case hour < 18:
		bucket = "afternoon"
	}
	return fmt.Sprintf("You wrote mostly on %s %s.", weekdays[day], bucket)
}

func argmax(counts []int) int {
	best := 0
	for i, c := range counts {
		if c > counts[best] {
			best = i
		}
	}
	return best
}
