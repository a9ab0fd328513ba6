// Package host is the page side of the facade: a Location with hash
// history, the frame element, and the Controller that connects them to the
// frame over a bridge.Conn.
//
// The controller forwards every user-driven hash change to the frame, turns
// navigate requests from the frame into address bar updates, and sets the
// frame element height from each resize report.
package host
