/*
Package sandbox models the document a facade renders into.

A Document owns one body element built from golang.org/x/net/html nodes.
Its content is replaced wholesale on every render. Mutation observers mirror
the browser's MutationObserver (attributes, child list, character data,
subtree) and are how a host learns it must re-measure the frame. Click
listeners receive synthetic click events that can be default-prevented.

Heights come from a Layout. BlockLayout approximates block flow: line boxes
for inline runs, list margins, and padding plus border for the bordered
blob block.

	doc := sandbox.NewDocument(nil)
	stop := doc.Observe(sandbox.AllMutations, func([]sandbox.MutationRecord) {
		resize(doc.ScrollHeight())
	})
	defer stop()
*/
package sandbox
