package facade

import "strings"

// Path is a slash-delimited location in the repository tree. Root is "".
// Paths double as link hrefs and, with a leading '#', as URL hashes.
type Path string

// Root is the repository root.
const Root Path = ""

// PathFromHash strips one leading '#' from a URL hash.
func PathFromHash(hash string) Path {
	return Path(strings.TrimPrefix(hash, "#"))
}

// Hash returns the URL hash form of p.
func (p Path) Hash() string {
	return "#" + string(p)
}

// IsRoot reports whether p is the repository root.
func (p Path) IsRoot() bool {
	return p == Root
}

// Parent truncates p at its last '/'. The parent of a top-level entry, and
// of the root itself, is the root.
func (p Path) Parent() Path {
	i := strings.LastIndexByte(string(p), '/')
	if i < 0 {
		return Root
	}
	return p[:i]
}

// Child joins name onto p. Children of the root carry no leading slash so
// that Child(x).Parent() == Root and hrefs stay valid Paths.
func (p Path) Child(name string) Path {
	if p.IsRoot() {
		return Path(name)
	}
	return p + "/" + Path(name)
}

func (p Path) String() string {
	return string(p)
}
