package query

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
	"github.com/syssam/rowbase/typecode"
)

// ErrBadMethodName is returned when a repository method name does not fit
// the derived-method grammar (a setup-time BadInput error).
type ErrBadMethodName struct {
	Name   string
	Reason string
}

func (e *ErrBadMethodName) Error() string {
	return fmt.Sprintf("query: method %q: %s", e.Name, e.Reason)
}

var prefixes = []struct {
	word   string
	prefix Prefix
}{
	{"find", FindBy}, {"read", FindBy}, {"query", FindBy}, {"get", FindBy},
	{"count", CountBy}, {"exists", ExistsBy}, {"delete", DeleteBy}, {"remove", DeleteBy},
}

// operatorKeywords maps a camelCase operator suffix to its typecode.Operator,
// ordered longest-first so ParseMethodName's suffix match never stops at a
// shorter keyword that is itself a prefix of a longer one (e.g. "Not" vs.
// "NotIn"/"NotLike").
var operatorKeywords = []struct {
	words []string
	op    typecode.Operator
}{
	{[]string{"Greater", "Than", "Equal"}, typecode.GE},
	{[]string{"Less", "Than", "Equal"}, typecode.LE},
	{[]string{"Greater", "Than"}, typecode.GT},
	{[]string{"Less", "Than"}, typecode.LT},
	{[]string{"Is", "Not", "Null"}, typecode.IsNotNull},
	{[]string{"Is", "Null"}, typecode.IsNull},
	{[]string{"Not", "In"}, typecode.NotIn},
	{[]string{"Not", "Like"}, typecode.NotLike},
	{[]string{"Starting", "With"}, typecode.StartingWith},
	{[]string{"Ending", "With"}, typecode.EndingWith},
	{[]string{"Containing"}, typecode.Containing},
	{[]string{"Between"}, typecode.Between},
	{[]string{"Before"}, typecode.LT},
	{[]string{"After"}, typecode.GT},
	{[]string{"Like"}, typecode.Like},
	{[]string{"In"}, typecode.In},
	{[]string{"Not"}, typecode.NE},
	{[]string{"True"}, typecode.IsTrue},
	{[]string{"False"}, typecode.IsFalse},
	{[]string{"Equals"}, typecode.EQ},
}

// splitCamel splits a CamelCase identifier into its constituent words,
// keeping runs of digits or uppercase letters (acronyms) together.
func splitCamel(s string) []string {
	var words []string
	var cur []rune
	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevLower := unicode.IsLower(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || (nextLower && len(cur) > 0) {
				words = append(words, string(cur))
				cur = nil
			}
		}
		cur = append(cur, r)
	}
	if len(cur) > 0 {
		words = append(words, string(cur))
	}
	return words
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// ParseMethodName tokenizes a repository method name
// into a LogicalQuery. Built-in CRUD methods (save, findById, existsById,
// ...) are matched by the repository layer's own signature inspection
// before reaching here; this function only handles the derived-query
// grammar.
func ParseMethodName(name string) (*LogicalQuery, error) {
	rest := name
	var prefix Prefix
	matched := false
	for _, p := range prefixes {
		if strings.HasPrefix(rest, p.word) {
			candidate := rest[len(p.word):]
			if candidate == "" || unicode.IsUpper([]rune(candidate)[0]) {
				prefix, rest, matched = p.prefix, candidate, true
				break
			}
		}
	}
	if !matched {
		return nil, &ErrBadMethodName{Name: name, Reason: "unrecognized prefix"}
	}

	lq := &LogicalQuery{Prefix: prefix}
	if prefix == DeleteBy {
		lq.Modifying = true
	}

	if n, ok, remainder := stripCount(rest, "Top"); ok {
		lq.Limit = n
		rest = remainder
	} else if n, ok, remainder := stripCount(rest, "First"); ok {
		lq.Limit = n
		rest = remainder
	}

	if strings.HasPrefix(rest, "Distinct") {
		lq.Distinct = true
		rest = rest[len("Distinct"):]
	}

	byIdx := strings.Index(rest, "By")
	if byIdx < 0 {
		if rest != "" {
			return nil, &ErrBadMethodName{Name: name, Reason: "expected 'By' before predicate clause"}
		}
		return lq, nil // e.g. a bare "find" or "count" with no predicate
	}
	before, after := rest[:byIdx], rest[byIdx+len("By"):]
	if before != "" {
		// findDistinctByAge has before=="" after stripping Distinct; a
		// non-empty remainder here (e.g. a stray word) is malformed.
		return nil, &ErrBadMethodName{Name: name, Reason: "unexpected tokens before 'By'"}
	}

	clause, orderBy, hasOrderBy := splitOrderBy(after)
	conditions, err := parsePredicateClause(name, clause)
	if err != nil {
		return nil, err
	}
	lq.Conditions = conditions

	if hasOrderBy {
		terms, err := parseOrderByTerms(name, orderBy)
		if err != nil {
			return nil, err
		}
		lq.OrderBy = terms
	}
	return lq, nil
}

func stripCount(s, keyword string) (n int, ok bool, rest string) {
	if !strings.HasPrefix(s, keyword) {
		return 0, false, s
	}
	i := len(keyword)
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == start {
		return 0, false, s
	}
	n, _ = strconv.Atoi(s[start:i])
	return n, true, s[i:]
}

func splitOrderBy(s string) (clause, orderBy string, ok bool) {
	idx := strings.Index(s, "OrderBy")
	if idx < 0 {
		return s, "", false
	}
	return s[:idx], s[idx+len("OrderBy"):], true
}

func parsePredicateClause(methodName, clause string) ([]Condition, error) {
	if clause == "" {
		return nil, nil
	}
	words := splitCamel(clause)
	var segments [][]string
	var combinators []Combinator
	cur := []string{}
	for _, w := range words {
		if w == "And" {
			segments = append(segments, cur)
			combinators = append(combinators, And)
			cur = nil
			continue
		}
		if w == "Or" {
			segments = append(segments, cur)
			combinators = append(combinators, Or)
			cur = nil
			continue
		}
		cur = append(cur, w)
	}
	segments = append(segments, cur)

	conditions := make([]Condition, 0, len(segments))
	for i, seg := range segments {
		cond, err := parsePredicateSegment(seg)
		if err != nil {
			return nil, &ErrBadMethodName{Name: methodName, Reason: err.Error()}
		}
		if i == 0 {
			cond.Combinator = CombinatorNone
		} else {
			cond.Combinator = combinators[i-1]
		}
		conditions = append(conditions, cond)
	}
	return conditions, nil
}

func parsePredicateSegment(words []string) (Condition, error) {
	if len(words) == 0 {
		return Condition{}, fmt.Errorf("empty predicate segment")
	}
	ignoreCase := false
	if len(words) >= 2 && words[len(words)-2] == "Ignore" && words[len(words)-1] == "Case" {
		ignoreCase = true
		words = words[:len(words)-2]
	}
	op := typecode.EQ
	propWords := words
	for _, kw := range operatorKeywords {
		if matchSuffix(words, kw.words) {
			op = kw.op
			propWords = words[:len(words)-len(kw.words)]
			break
		}
	}
	if len(propWords) == 0 {
		return Condition{}, fmt.Errorf("predicate has no property path")
	}
	path := propertyPathFromWords(propWords)
	return Condition{PropertyPath: path, Operator: op, IgnoreCase: ignoreCase}, nil
}

func matchSuffix(words, suffix []string) bool {
	if len(suffix) > len(words) {
		return false
	}
	offset := len(words) - len(suffix)
	for i, w := range suffix {
		if words[offset+i] != w {
			return false
		}
	}
	// never consume every word: a predicate must keep at least one
	// property-path word (a bare operator keyword is not a valid segment).
	return offset > 0
}

// propertyPathFromWords joins a run of capitalized words into a single
// lower-camel property token. Derived method names carry no path
// separators, so the result is always a single segment; the compiler
// looks it up as one exact field name and does not split it into a
// relationship path, so a derived name cannot reach a related entity's
// field.
func propertyPathFromWords(words []string) []string {
	joined := strings.Join(words, "")
	return []string{lowerFirst(joined)}
}

func parseOrderByTerms(methodName, s string) ([]OrderByTerm, error) {
	if s == "" {
		return nil, &ErrBadMethodName{Name: methodName, Reason: "OrderBy with no property"}
	}
	words := splitCamel(s)
	var terms []OrderByTerm
	cur := []string{}
	flush := func(desc bool) error {
		if len(cur) == 0 {
			return fmt.Errorf("OrderBy segment with no property")
		}
		terms = append(terms, OrderByTerm{PropertyPath: propertyPathFromWords(cur), Descending: desc})
		cur = nil
		return nil
	}
	for i := 0; i < len(words); i++ {
		w := words[i]
		switch w {
		case "Asc":
			if err := flush(false); err != nil {
				return nil, &ErrBadMethodName{Name: methodName, Reason: err.Error()}
			}
		case "Desc":
			if err := flush(true); err != nil {
				return nil, &ErrBadMethodName{Name: methodName, Reason: err.Error()}
			}
		case "And":
			if len(cur) > 0 {
				if err := flush(false); err != nil {
					return nil, &ErrBadMethodName{Name: methodName, Reason: err.Error()}
				}
			}
		default:
			cur = append(cur, w)
		}
	}
	if len(cur) > 0 {
		if err := flush(false); err != nil {
			return nil, &ErrBadMethodName{Name: methodName, Reason: err.Error()}
		}
	}
	return terms, nil
}

// Singularize/Pluralize return go-openapi/inflect's English singular and
// plural forms of word. No other package in this module calls them;
// property resolution in compile matches field names exactly.
func Singularize(word string) string { return inflect.Singularize(word) }
func Pluralize(word string) string   { return inflect.Pluralize(word) }
