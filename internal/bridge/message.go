package bridge

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

// Kind enumerates bridge messages.
type Kind string

const (
	// Frame to host.
	KindReady    Kind = "ready"
	KindNavigate Kind = "navigate"
	KindResize   Kind = "resize"
	KindRender   Kind = "render"
	KindError    Kind = "error"

	// Host to frame.
	KindInit       Kind = "init"
	KindHashChange Kind = "hashchange"
	KindLoad       Kind = "load"
	KindClick      Kind = "click"
)

// ErrMalformed wraps decode and validation failures of a single message.
// The connection stays usable.
var ErrMalformed = errors.New("bridge: malformed message")

// Message is the single wire type. Which fields are meaningful depends on
// Kind.
type Message struct {
	Kind Kind   `json:"kind"`
	Seq  uint64 `json:"seq,omitempty"`

	// ready
	Facade string `json:"facade,omitempty"`
	// init
	Owner  string `json:"owner,omitempty"`
	Basket string `json:"basket,omitempty"`
	// hashchange
	Hash string `json:"hash,omitempty"`
	// navigate, click
	Path string `json:"path,omitempty"`
	// resize
	Height int `json:"height,omitempty"`
	// render
	HTML       string `json:"html,omitempty"`
	Generation uint64 `json:"generation,omitempty"`
	// error
	Error string `json:"error,omitempty"`
}

func Ready(facade string) Message       { return Message{Kind: KindReady, Facade: facade} }
func Init(owner, basket string) Message { return Message{Kind: KindInit, Owner: owner, Basket: basket} }
func HashChange(hash string) Message    { return Message{Kind: KindHashChange, Hash: hash} }
func Load() Message                     { return Message{Kind: KindLoad} }
func Navigate(path string) Message      { return Message{Kind: KindNavigate, Path: path} }
func Resize(height int) Message         { return Message{Kind: KindResize, Height: height} }
func Click(href string) Message         { return Message{Kind: KindClick, Path: href} }
func Failure(err error) Message         { return Message{Kind: KindError, Error: err.Error()} }

// Render carries a body snapshot.
func Render(html string, generation uint64) Message {
	return Message{Kind: KindRender, HTML: html, Generation: generation}
}

// FromFrame reports whether the kind is sent by the frame side.
func (k Kind) FromFrame() bool {
	switch k {
	case KindReady, KindNavigate, KindResize, KindRender, KindError:
		return true
	}
	return false
}

// FromHost reports whether the kind is sent by the host side.
func (k Kind) FromHost() bool {
	switch k {
	case KindInit, KindHashChange, KindLoad, KindClick:
		return true
	}
	return false
}

// Validate checks that the kind is known and required fields are set.
func (m Message) Validate() error {
	switch m.Kind {
	case KindInit:
		if m.Owner == "" || m.Basket == "" {
			return fmt.Errorf("%w: init requires owner and basket", ErrMalformed)
		}
	case KindResize:
		if m.Height < 0 {
			return fmt.Errorf("%w: negative height %d", ErrMalformed, m.Height)
		}
	case KindReady, KindNavigate, KindRender, KindError, KindHashChange, KindLoad, KindClick:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrMalformed, m.Kind)
	}
	return nil
}

// Encode marshals m for the wire.
func Encode(m Message) ([]byte, error) {
	return sonic.Marshal(m)
}

// Decode unmarshals and validates a wire message.
func Decode(data []byte) (Message, error) {
	var m Message
	if err := sonic.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := m.Validate(); err != nil {
		return Message{}, err
	}
	return m, nil
}
