package repository

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// TreeEntry is one child of a directory listing.
type TreeEntry struct {
	ID       string `json:"id,omitempty"`
	Filename string `json:"filename"`
}

// Tree is a directory listing in API order.
type Tree struct {
	Entries []TreeEntry `json:"entries"`
}

// Blob carries base64 encoded file content.
type Blob struct {
	Content string `json:"content"`
}

// Bytes decodes the blob content. ASCII whitespace, such as the line
// wrapping some encoders emit, is ignored.
func (b *Blob) Bytes() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(stripSpace(b.Content))
	if err != nil {
		return nil, &DecodeError{Op: "blob content", Err: err}
	}
	return data, nil
}

// Text decodes the blob content as text. Bytes are passed through
// unchanged; non-UTF-8 content is not repaired.
func (b *Blob) Text() (string, error) {
	data, err := b.Bytes()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Entry is the tree_entry response: exactly one of Tree or Blob is set.
type Entry struct {
	Tree *Tree `json:"tree,omitempty"`
	Blob *Blob `json:"blob,omitempty"`
}

// IsTree reports whether the entry is a directory listing.
func (e *Entry) IsTree() bool { return e.Tree != nil }

// IsBlob reports whether the entry is file content.
func (e *Entry) IsBlob() bool { return e.Blob != nil }

func (e *Entry) validate() error {
	switch {
	case e.Tree != nil && e.Blob != nil:
		return fmt.Errorf("entry has both tree and blob")
	case e.Tree == nil && e.Blob == nil:
		return fmt.Errorf("entry has neither tree nor blob")
	}
	return nil
}

// Commit is the commit endpoint response.
type Commit struct {
	ID      string  `json:"id"`
	TreeID  string  `json:"tree_id"`
	Message *string `json:"message,omitempty"`
}

// apiMessage is the body of BadRequest and Unauthorized responses.
type apiMessage struct {
	Msg string `json:"msg"`
}

func stripSpace(s string) string {
	if !strings.ContainsAny(s, " \t\n\r\f") {
		return s
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			return -1
		}
		return r
	}, s)
}
