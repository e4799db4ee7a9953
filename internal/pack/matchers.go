package pack

import "regexp"

// referenceMatcher recognizes one kind of in-page reference. Each pattern
// captures exactly one group: the web-rooted pathname of the referenced
// file. The matcher list is fixed and ordered; adding a new reference kind
// means adding an entry, not touching control flow.
type referenceMatcher struct {
	kind string
	re   *regexp.Regexp
}

var referenceMatchers = []referenceMatcher{
	{
		kind: "img",
		re:   regexp.MustCompile(`(?i)<img\b[^>]*\bsrc="(/[^"]+\.(?:ico|jpeg|png|svg))"[^>]*>`),
	},
	{
		kind: "stylesheet",
		re:   regexp.MustCompile(`(?i)<link\b[^>]*\brel="stylesheet"[^>]*\bhref="(/[^"]+\.css)"[^>]*>`),
	},
	{
		kind: "script",
		re:   regexp.MustCompile(`(?i)<script\b[^>]*\bsrc="(/[^"]+\.m?js)"[^>]*>\s*</script>`),
	},
	{
		kind: "import",
		re:   regexp.MustCompile(`import\s+(?:[^'"]*?\bfrom\s+)?["'](/[^'"]+\.mjs)["']`),
	},
	{
		kind: "include",
		re:   regexp.MustCompile(`<!--#include\s+virtual="([^"]+)"\s*-->`),
	},
	{
		kind: "og:image",
		re:   regexp.MustCompile(`(?i)<meta\b[^>]*\bproperty="og:image"[^>]*\bcontent="https?://[^"]*?(/[^"]+\.(?:ico|jpeg|png|svg))"[^>]*>`),
	},
}

// ExtractReferences scans page markup for every recognized reference
// occurrence. Entries are ordered by matcher, then by position in the
// document, and are not deduplicated: a pathname may repeat under different
// surrounding markup.
func ExtractReferences(code string) []Reference {
	var refs []Reference

	for _, m := range referenceMatchers {
		for _, match := range m.re.FindAllStringSubmatch(code, -1) {
			refs = append(refs, Reference{
				Pathname: NormalizePathname(match[1]),
				Match:    match[0],
			})
		}
	}

	return refs
}
