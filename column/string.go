package column

import (
	"strings"

	"regexp"

	"github.com/kelindar/bitmap"
	"github.com/syssam/rowbase/typecode"
	"golang.org/x/text/cases"
)

var foldCaser = cases.Fold()

// StringColumn stores UTF-8 strings in side storage (a plain Go string
// header per slot, the reference-array approach for variable-length
// values). Equality is code-point exact; fold variants use
// golang.org/x/text/cases for locale-correct case folding rather than a
// hand-rolled strings.ToLower.
type StringColumn struct {
	typ      typecode.Code // String or Decimal: same storage, different operator set
	values   []string
	presence bitmap.Bitmap
}

func NewStringColumn(typ typecode.Code, pageSize int) *StringColumn {
	return &StringColumn{
		typ:      typ,
		values:   make([]string, pageSize),
		presence: make(bitmap.Bitmap, 0, uint32(pageSize)/64+1),
	}
}

func (c *StringColumn) TypeCode() typecode.Code { return c.typ }
func (c *StringColumn) Cap() int                { return len(c.values) }
func (c *StringColumn) Presence() Selection     { return c.presence }

func (c *StringColumn) Get(slot int) string {
	checkSlot(slot, len(c.values))
	return c.values[slot]
}

func (c *StringColumn) Set(slot int, v string) {
	checkSlot(slot, len(c.values))
	c.values[slot] = v
	c.presence.Set(uint32(slot))
}

func (c *StringColumn) Clear(slot int) {
	checkSlot(slot, len(c.values))
	c.values[slot] = ""
	c.presence.Remove(uint32(slot))
}

func (c *StringColumn) ScanNull() Selection {
	out := make(bitmap.Bitmap, len(c.presence))
	for i := 0; i < len(c.values); i++ {
		if !c.presence.Contains(uint32(i)) {
			out.Set(uint32(i))
		}
	}
	return out
}

func (c *StringColumn) scan(pred func(string) bool) Selection {
	out := make(bitmap.Bitmap, len(c.presence))
	c.presence.Range(func(x uint32) {
		if pred(c.values[x]) {
			out.Set(x)
		}
	})
	return out
}

func (c *StringColumn) ScanEquals(v string) Selection {
	return c.scan(func(x string) bool { return x == v })
}

func (c *StringColumn) ScanNotEquals(v string) Selection {
	return c.scan(func(x string) bool { return x != v })
}

func (c *StringColumn) ScanEqualFold(v string) Selection {
	folded := foldCaser.String(v)
	return c.scan(func(x string) bool { return foldCaser.String(x) == folded })
}

func (c *StringColumn) ScanIn(set map[string]struct{}) Selection {
	return c.scan(func(x string) bool { _, ok := set[x]; return ok })
}

func (c *StringColumn) ScanNotIn(set map[string]struct{}) Selection {
	return c.scan(func(x string) bool { _, ok := set[x]; return !ok })
}

func (c *StringColumn) ScanStartsWith(prefix string) Selection {
	return c.scan(func(x string) bool { return strings.HasPrefix(x, prefix) })
}

func (c *StringColumn) ScanEndsWith(suffix string) Selection {
	return c.scan(func(x string) bool { return strings.HasSuffix(x, suffix) })
}

func (c *StringColumn) ScanStartsWithFold(prefix string) Selection {
	folded := foldCaser.String(prefix)
	return c.scan(func(x string) bool { return strings.HasPrefix(foldCaser.String(x), folded) })
}

func (c *StringColumn) ScanEndsWithFold(suffix string) Selection {
	folded := foldCaser.String(suffix)
	return c.scan(func(x string) bool { return strings.HasSuffix(foldCaser.String(x), folded) })
}

func (c *StringColumn) ScanContains(sub string) Selection {
	return c.scan(func(x string) bool { return strings.Contains(x, sub) })
}

func (c *StringColumn) ScanContainsFold(sub string) Selection {
	folded := foldCaser.String(sub)
	return c.scan(func(x string) bool { return strings.Contains(foldCaser.String(x), folded) })
}

// ScanLike evaluates a SQL-style LIKE pattern ('%' = any run, '_' = any
// single rune). ignoreCase selects the case-insensitive (ILIKE) variant.
func (c *StringColumn) ScanLike(pattern string, ignoreCase bool) Selection {
	matcher := compileLike(pattern, ignoreCase)
	return c.scan(matcher)
}

// ScanNotLike returns the present slots whose value does NOT match pattern,
// the negation of ScanLike rather than a literal string compare against the
// pattern text.
func (c *StringColumn) ScanNotLike(pattern string, ignoreCase bool) Selection {
	matcher := compileLike(pattern, ignoreCase)
	return c.scan(func(x string) bool { return !matcher(x) })
}

func compileLike(pattern string, ignoreCase bool) func(string) bool {
	re := likeToRegexp(pattern, ignoreCase)
	return func(s string) bool { return re.MatchString(s) }
}

// likeToRegexp translates a SQL LIKE pattern ('%' any run, '_' any single
// rune) into an anchored regexp, escaping every other regexp metacharacter.
func likeToRegexp(pattern string, ignoreCase bool) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	if ignoreCase {
		b.WriteString("(?i)")
	}
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}
