package terms

import "strings"

// stopWords suppresses high-frequency, low-information words so rankings
// surface what was distinctive. Forms are post-normalisation (no apostrophes).
var stopWords = buildSet(`
	i im id ill ive you your yours u we our ours he she they them their theirs
	me my mine him his her hers ourselves yourself yourselves himself herself
	themselves someone something anything everything everyone anyone

	a an the this that these those same and or but so if than then because as
	while when where which who whom whose

	of in on at for from by with about into over out up down to through between
	during before after under above below within without onto off

	is am are was were be been being do does did doing have has had having can
	could may might must shall should will would ought need needs needed let lets

	get gets got getting gotten make makes made making know knows knew known
	knowing think thinks thought thinking feel feels felt feeling want wants
	wanted wanting try tries tried trying seem seems seemed seeming go goes went
	gone going come comes came coming take takes took taken taking give gives
	gave given giving put puts putting keep keeps kept keeping start starts
	started starting say says said saying tell tells told telling see sees saw
	seen seeing look looks looked looking ask asks asked asking use uses used
	using work works worked working needing

	just really like kind sort maybe perhaps actually basically literally
	honestly probably possibly kinda sorta gonna wanna yeah ok okay uh um hmm

	no not never dont doesnt didnt cant couldnt shouldnt wouldnt wont isnt arent
	wasnt werent

	today yesterday tomorrow now again already still time times day days week
	weeks month months year years it its what whats how there here

	thing things stuff way lot bit
`)

func buildSet(words string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(words) {
		set[w] = struct{}{}
	}
	return set
}

// IsStopWord reports whether w is filtered out of rankings.
func IsStopWord(w string) bool {
	_, ok := stopWords[w]
	return ok
}
