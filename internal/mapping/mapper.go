// Package mapping proposes which spreadsheet column feeds which schema field.
//
// Headers and field names are compared after normalization (Unicode case
// folding, "#" read as "number", punctuation and spaces removed) so that
// "Part #", "PartNumber" and "part_number" all look alike. Remaining
// differences are scored with Levenshtein distance. Word-level checks keep
// names that share a word but mean different things ("Customer Phone",
// "Customer Name") apart.
package mapping

import (
	"math"
	"slices"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"

	"github.com/JonMunkholm/returnsdesk/internal/coerce"
	"github.com/JonMunkholm/returnsdesk/internal/core"
	"github.com/JonMunkholm/returnsdesk/internal/schema"
)

// DefaultThreshold is the largest distance (0 identical, 1 unrelated)
// accepted as a match.
const DefaultThreshold = 0.4

// DefaultSampleValues is how many example values are kept per column.
const DefaultSampleValues = 3

// minContainedLen is the shortest name allowed to score through containment.
// Shorter names ("po", "eta") only match exactly or by edit distance.
const minContainedLen = 4

// Mapper proposes column mappings.
type Mapper struct {
	Threshold    float64 // Zero means DefaultThreshold
	SampleValues int     // Zero means DefaultSampleValues
}

// ProposeMappings uses the default Mapper.
func ProposeMappings(headers []string, sampleRows []core.RawRow, fields []schema.FieldSpec) []core.ColumnMapping {
	return Mapper{}.Propose(headers, sampleRows, fields)
}

type candidate struct {
	header     int
	field      int
	confidence float64
}

// Propose returns one mapping per header, sorted by descending confidence.
//
// Every header and every field is used at most once. Candidates are assigned
// greedily from the highest confidence down; ties go to the earlier header,
// then the earlier field. Headers left without a field are returned with an
// empty MappedTo and zero confidence.
func (m Mapper) Propose(headers []string, sampleRows []core.RawRow, fields []schema.FieldSpec) []core.ColumnMapping {
	threshold := m.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	fold := cases.Fold()
	fieldNames := make([][]name, len(fields))
	for i, f := range fields {
		fieldNames[i] = fieldAliases(fold, f)
	}

	var cands []candidate
	for hi, h := range headers {
		nh := parse(fold, h)
		if nh.joined == "" {
			continue
		}
		for fi := range fields {
			d := bestDistance(nh, fieldNames[fi])
			if d <= threshold {
				cands = append(cands, candidate{header: hi, field: fi, confidence: confidence(d)})
			}
		}
	}

	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].confidence != cands[j].confidence {
			return cands[i].confidence > cands[j].confidence
		}
		if cands[i].header != cands[j].header {
			return cands[i].header < cands[j].header
		}
		return cands[i].field < cands[j].field
	})

	result := make([]core.ColumnMapping, len(headers))
	for i, h := range headers {
		result[i] = core.ColumnMapping{
			OriginalName: h,
			SampleValues: m.samples(h, sampleRows),
		}
	}

	usedField := make([]bool, len(fields))
	for _, c := range cands {
		if result[c.header].MappedTo != "" || usedField[c.field] {
			continue
		}
		result[c.header].MappedTo = fields[c.field].Name
		result[c.header].Confidence = c.confidence
		usedField[c.field] = true
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Confidence > result[j].Confidence
	})

	return result
}

func (m Mapper) samples(header string, rows []core.RawRow) []string {
	limit := m.SampleValues
	if limit <= 0 {
		limit = DefaultSampleValues
	}

	out := []string{}
	for _, row := range rows {
		if len(out) == limit {
			break
		}
		v := strings.TrimSpace(coerce.Stringify(row[header]))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// name is a header or alias split into folded words.
type name struct {
	words  []string
	joined string
}

// fieldAliases returns the distinct names a field answers to.
func fieldAliases(fold cases.Caser, f schema.FieldSpec) []name {
	seen := make(map[string]bool)
	var out []name
	for _, s := range append([]string{f.Name, f.Label}, f.Synonyms...) {
		n := parse(fold, s)
		if n.joined != "" && !seen[n.joined] {
			seen[n.joined] = true
			out = append(out, n)
		}
	}
	return out
}

// Normalize returns the form headers are compared in, for callers that
// match user-typed header names against a sheet.
func Normalize(s string) string {
	return parse(cases.Fold(), s).joined
}

// parse splits s into words at punctuation, spaces and camelCase humps,
// reading "#" as "number".
func parse(fold cases.Caser, s string) name {
	var b strings.Builder
	b.Grow(len(s))
	prev := rune(0)
	for _, r := range s {
		if unicode.IsUpper(r) && unicode.IsLower(prev) {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
		prev = r
	}
	folded := strings.ReplaceAll(fold.String(b.String()), "#", " number ")

	words := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return name{words: words, joined: strings.Join(words, "")}
}

func bestDistance(header name, aliases []name) float64 {
	best := 1.0
	for _, a := range aliases {
		if d := distance(header, a); d < best {
			best = d
			if best == 0 {
				break
			}
		}
	}
	return best
}

// Distance scores two names from 0 (identical) to 1 (unrelated).
func Distance(a, b string) float64 {
	fold := cases.Fold()
	return distance(parse(fold, a), parse(fold, b))
}

// distance is the normalized edit distance of the joined names, tightened
// by word-level checks:
//   - names with the same number of words need a close counterpart for every
//     word, so "Customer Phone" stays away from "Customer Name";
//   - when one name's words all appear in a longer name, the extra words must
//     be identifier words ("Tracking" in "Tracking Numbers") and the pair then
//     scores by containment; any other extra word makes the names unrelated
//     ("Customer" in "Customer Phone").
func distance(a, b name) float64 {
	if a.joined == b.joined {
		return 0
	}
	la, lb := utf8.RuneCountInString(a.joined), utf8.RuneCountInString(b.joined)
	longest := max(la, lb)
	if longest == 0 {
		return 0
	}

	d := float64(levenshtein.ComputeDistance(a.joined, b.joined)) / float64(longest)

	if len(a.words) == len(b.words) {
		if len(a.words) > 1 {
			d = max(d, wordDistance(a.words, b.words))
		}
		return d
	}

	few, many, lf := a, b, la
	if len(a.words) > len(b.words) {
		few, many, lf = b, a, lb
	}
	extra, contained := extraWords(few.words, many.words)
	switch {
	case !contained:
		if len(few.words) > 1 {
			d = max(d, wordDistance(few.words, many.words))
		}
	case !allIdentifiers(extra):
		return 1
	case lf >= minContainedLen:
		d = min(d, 0.5*(1-float64(lf)/float64(longest)))
	}
	return d
}

// wordDistance is the share of words on either side with no close
// counterpart on the other.
func wordDistance(a, b []string) float64 {
	unmatched := 0
	for _, w := range a {
		if !slices.ContainsFunc(b, func(o string) bool { return closeWords(w, o) }) {
			unmatched++
		}
	}
	for _, w := range b {
		if !slices.ContainsFunc(a, func(o string) bool { return closeWords(w, o) }) {
			unmatched++
		}
	}
	return float64(unmatched) / float64(len(a)+len(b))
}

// extraWords pairs every word of few with a distinct close word of many and
// returns the words of many left over. ok is false when some word of few has
// no partner.
func extraWords(few, many []string) (extra []string, ok bool) {
	used := make([]bool, len(many))
	for _, w := range few {
		found := false
		for i, o := range many {
			if !used[i] && closeWords(w, o) {
				used[i], found = true, true
				break
			}
		}
		if !found {
			return nil, false
		}
	}
	for i, o := range many {
		if !used[i] {
			extra = append(extra, o)
		}
	}
	return extra, true
}

// closeWords allows one edit in three for words of three or more runes.
func closeWords(a, b string) bool {
	if a == b {
		return true
	}
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if min(la, lb) < 3 {
		return false
	}
	return float64(levenshtein.ComputeDistance(a, b))/float64(max(la, lb)) <= 1.0/3
}

// identifierWords may follow a name without changing what it refers to.
var identifierWords = map[string]bool{
	"number": true, "numbers": true, "no": true, "num": true, "nr": true,
	"id": true, "ids": true, "code": true, "ref": true, "reference": true,
}

func allIdentifiers(words []string) bool {
	for _, w := range words {
		if !identifierWords[w] {
			return false
		}
	}
	return true
}

// confidence converts a distance into a score rounded to two decimals.
func confidence(d float64) float64 {
	return math.Round((1-d)*100) / 100
}
