/*
Package bridge is the message channel between a host page and the frame it
embeds. The two sides share no objects; everything crosses as a Message.

Frame to host: ready, navigate, resize, render, error.
Host to frame: init, hashchange, load, click.

A session runs:

	frame -> ready{facade}
	host  -> init{owner, basket}
	host  -> hashchange{hash}
	host  -> load
	frame -> resize{height} / render{html}   (after every document mutation)
	frame -> navigate{path}                  (a link was clicked)
	host  -> hashchange{"#" + path}

Pipe connects two ends in one process. WebSocketConn carries the same
messages as JSON text frames.
*/
package bridge
