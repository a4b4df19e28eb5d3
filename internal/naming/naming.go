package naming

import (
	"path"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldMarks decomposes text and drops combining marks, turning "Café" into "Cafe".
func foldMarks(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Slugify produces a lowercase hyphenated identifier. Letters and digits are
// kept, every other run of characters becomes a single hyphen, and hyphens
// are trimmed from both ends.
func Slugify(s string) string {
	s = strings.ToLower(foldMarks(s))
	var b strings.Builder
	b.Grow(len(s))
	pendingHyphen := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// NormalizePath converts separators to forward slashes, resolves dot segments
// and strips leading and trailing slashes. The root normalizes to "".
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	p = path.Clean("/" + p)
	return strings.Trim(p, "/")
}

// StripExt removes the final extension from name. Dot files keep their name.
func StripExt(name string) string {
	ext := path.Ext(name)
	if ext == "" || ext == name {
		return name
	}
	return strings.TrimSuffix(name, ext)
}

// DocID joins a destination directory and a slug-with-extension into the
// canonical document id used by the site generator.
func DocID(destDir, destSlug string) string {
	dir := NormalizePath(destDir)
	base := StripExt(destSlug)
	if dir == "" {
		return base
	}
	return dir + "/" + base
}

var (
	headingDecorations = strings.NewReplacer("`", "", "*", "", "_", "", "~", "")
	whitespaceRun      = regexp.MustCompile(`\s+`)
	hyphenRun          = regexp.MustCompile(`-+`)
)

// HeadingSlug produces the anchor id for a heading's text.
func HeadingSlug(text string) string {
	s := headingDecorations.Replace(foldMarks(text))
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '-' {
			return r
		}
		return -1
	}, s)
	s = whitespaceRun.ReplaceAllString(strings.TrimSpace(s), "-")
	s = hyphenRun.ReplaceAllString(s, "-")
	return strings.ToLower(s)
}

var leadingNumber = regexp.MustCompile(`^(\d+)[\s._-]`)

// LeadingNumber parses a numeric ordering prefix such as "02-setup" or "10 Intro".
func LeadingNumber(name string) (int, bool) {
	m := leadingNumber.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
