package keyword

import "strings"

// Tag is a part-of-speech tag in the Sejong tag set.
type Tag string

// Tags produced by the rule analyzer. Only a subset is ranked.
const (
	TagNNG Tag = "NNG" // common noun
	TagNNP Tag = "NNP" // proper noun
	TagNNB Tag = "NNB" // bound noun
	TagNR  Tag = "NR"  // numeral
	TagNP  Tag = "NP"  // pronoun
	TagVV  Tag = "VV"  // verb
	TagVA  Tag = "VA"  // adjective
	TagVX  Tag = "VX"  // auxiliary predicate
	TagVCN Tag = "VCN" // negative copula
	TagMAG Tag = "MAG" // general adverb
	TagMAJ Tag = "MAJ" // conjunctive adverb
	TagMM  Tag = "MM"  // determiner
	TagIC  Tag = "IC"  // interjection
	TagXSV Tag = "XSV" // verb-deriving suffix
	TagSL  Tag = "SL"  // foreign word
	TagSN  Tag = "SN"  // number
	TagFB  Tag = "FB"  // fallback token, never produced by an analyzer
)

var allowedTags = map[Tag]struct{}{
	TagNNG: {}, TagNNP: {}, TagNNB: {}, TagNR: {}, TagNP: {},
	TagVV: {}, TagVA: {}, TagVX: {}, TagVCN: {},
	TagMAG: {}, TagMAJ: {},
}

// Allowed reports whether morphemes with this tag become candidates.
func (t Tag) Allowed() bool {
	_, ok := allowedTags[t]
	return ok
}

// Predicate reports whether the tag is a V* class.
func (t Tag) Predicate() bool {
	return strings.HasPrefix(string(t), "V")
}

// Noun reports whether the tag is an NN* class.
func (t Tag) Noun() bool {
	return strings.HasPrefix(string(t), "NN")
}

// Morpheme is one analysed unit of an utterance.
type Morpheme struct {
	Form  string
	Lemma string
	Tag   Tag
	// Start is the byte offset of the morpheme in the analysed text.
	Start int
}

// Analyzer splits text into morphemes.
type Analyzer interface {
	Analyze(text string) ([]Morpheme, error)
}

// AnalyzerFunc adapts a function to the Analyzer interface.
type AnalyzerFunc func(text string) ([]Morpheme, error)

// Analyze calls f(text).
func (f AnalyzerFunc) Analyze(text string) ([]Morpheme, error) {
	return f(text)
}
