package repository

import (
	"context"
	"sync"
)

// Pinned resolves the client's reference to a commit id on first use and
// reads every later entry at that commit. A facade navigating a pinned
// reader never mixes listings from two different HEADs.
type Pinned struct {
	client *Client
	owner  string
	basket string

	mu     sync.Mutex
	commit *Commit
}

// NewPinned creates a Pinned reader for one owner/basket pair.
func NewPinned(client *Client, owner, basket string) *Pinned {
	return &Pinned{client: client, owner: owner, basket: basket}
}

// TreeEntry reads path at the pinned commit. A failed resolution is not
// cached, so the next navigation tries again.
func (p *Pinned) TreeEntry(ctx context.Context, owner, basket, path string) (*Entry, error) {
	if owner != p.owner || basket != p.basket {
		return p.client.TreeEntry(ctx, owner, basket, path)
	}
	commit, err := p.resolve(ctx)
	if err != nil {
		return nil, err
	}
	return p.client.TreeEntryAt(ctx, owner, basket, commit.ID, path)
}

// Commit returns the pinned commit, resolving it if needed.
func (p *Pinned) Commit(ctx context.Context) (*Commit, error) {
	return p.resolve(ctx)
}

func (p *Pinned) resolve(ctx context.Context) (*Commit, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.commit != nil {
		return p.commit, nil
	}
	commit, err := p.client.Commit(ctx, p.owner, p.basket, p.client.Ref())
	if err != nil {
		return nil, err
	}
	p.commit = commit
	return commit, nil
}
