/*
Package facade is the embedded file browser: it owns the current Path,
fetches the entry at that path from the repository API and renders it into
the frame document.

Every hash change starts a navigation with a fresh generation number. The
previous navigation's fetch is cancelled, and any result that still arrives
for an old generation is discarded (ErrNavigationRace) instead of rendered.
Each navigation moves through Loading to either Loaded or Failed, and the
body is rebuilt from the state by the pure Render function.

Rendered links carry Paths in their href attribute. A click on one is
default-prevented and reported to the host through Parent.SetHash; the host
then calls OnHashChange with the new hash.
*/
package facade
