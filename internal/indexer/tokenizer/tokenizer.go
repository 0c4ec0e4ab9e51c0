// Package tokenizer normalises recipe text for indexing and querying. It
// strips HTML entity escapes, extracts maximal runs of ASCII letters
// (digits and punctuation never form terms), lower-cases, and drops
// stop-words and single-character tokens. Tokenize is pure and deterministic;
// the index builder and the query path must agree on its output.
package tokenizer

import (
	"regexp"
	"strings"
)

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(stopWordList) {
		stopWords[w] = struct{}{}
	}
}

// stopWordList covers function words plus the common verbs that dominate
// recipe instructions ("add", "serve", "cut", ...).
const stopWordList = `
the a an and or but in on at to for of with by
is are was were be been being have has had having
do does did doing will would could should may might must
can this that these those i you he she it we they
me him her us them my your his its our their
am shall ought need dare used get got getting go went
gone going come came coming see saw seen seeing know knew
known knowing think thought thinking take took taken taking
give gave given giving make made making find found finding
tell told telling ask asked asking work worked working
seem seemed seeming feel felt feeling try tried trying
leave left leaving call called calling move moved moving
turn turned turning start started starting show showed showing
hear heard hearing play played playing run ran running
open opened opening close closed closing help helped helping
keep kept keeping let letting put putting set setting
bring brought bringing begin began begun beginning sit sat
sitting stand stood standing lose lost losing pay paid paying
meet met meeting include included including continue continued
continuing follow followed following stop stopped stopping
create created creating speak spoke spoken speaking
read reading allow allowed allowing add added adding spend
spent spending grow grew grown growing walk walked walking
win won winning offer offered offering remember remembered
remembering love loved loving consider considered considering
appear appeared appearing buy bought buying wait waited waiting
serve served serving die died dying send sent sending
expect expected expecting build built building stay stayed
staying fall fell fallen falling cut cutting reach reached
reaching kill killed killing remain remained remaining
suggest suggested suggesting raise raised raising pass passed
passing sell sold selling require required requiring
report reported reporting decide decided deciding pull pulled
pulling break broke broken breaking rise rose risen rising
throw threw thrown throwing drop dropped dropping catch caught
catching choose chose chosen choosing deal dealt dealing
prove proved proving hold held holding write wrote written
writing provide provided providing
`

var htmlEntityPattern = regexp.MustCompile(`&[a-zA-Z0-9#]+;`)

// Tokenize breaks text into a slice of lowercased terms with HTML entities,
// stop-words, digits, punctuation, and single-character tokens removed.
// Empty or non-text input yields an empty slice, never an error.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	if strings.ContainsRune(text, '&') {
		text = htmlEntityPattern.ReplaceAllString(text, " ")
	}

	tokens := make([]string, 0, len(text)/8)
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		word := strings.ToLower(text[start:end])
		start = -1
		if len(word) < 2 {
			return
		}
		if _, isStop := stopWords[word]; isStop {
			return
		}
		tokens = append(tokens, word)
	}
	for i := 0; i < len(text); i++ {
		c := text[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(text))
	return tokens
}
