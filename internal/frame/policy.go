package frame

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// hrefs are repository paths; anything that parses with a scheme is
// dropped. A colon only starts a scheme before the first '/', '?' or '#'.
var pathHref = regexp.MustCompile(`^([^:/?#]*[/?#]|[^:]*$)`)

// SnapshotPolicy returns the sanitizer applied to body snapshots before
// they leave the frame. It admits exactly what the facade renders.
func SnapshotPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("a", "ul", "li", "pre", "div", "p")
	p.AllowAttrs("href").Matching(pathHref).OnElements("a")
	p.AllowAttrs("class").Globally()
	p.AllowAttrs("role").OnElements("div")
	p.AllowDataAttributes()
	p.AllowStyles("border", "padding").OnElements("pre")
	return p
}
