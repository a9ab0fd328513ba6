package facade

import (
	"errors"

	"github.com/GriffinCanCode/basket-facade/internal/providers/repository"
)

// FactoryName is the name a frame advertises when it hosts this module.
const FactoryName = "FacadeModule"

// ErrNavigationRace marks a fetch result that resolved after a newer
// navigation started. Such results are discarded, never rendered.
var ErrNavigationRace = errors.New("facade: navigation superseded")

// Phase is the per-navigation state machine position.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseLoaded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is everything Render needs. A Loaded state has Entry set and, for
// blobs, the decoded Content. A Failed state has Err set.
type State struct {
	Generation uint64
	Path       Path
	Phase      Phase
	Entry      *repository.Entry
	Content    string
	Err        error
}

// FailureKind classifies a Failed state's error for display and metrics.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case repository.IsDecode(err):
		return "decode"
	case repository.IsNetwork(err):
		return "network"
	default:
		return "unknown"
	}
}

// settle turns a fetch outcome into the next state.
func settle(gen uint64, path Path, entry *repository.Entry, err error) State {
	s := State{Generation: gen, Path: path}
	if err != nil {
		s.Phase, s.Err = PhaseFailed, err
		return s
	}
	if entry.IsBlob() {
		text, err := entry.Blob.Text()
		if err != nil {
			s.Phase, s.Err = PhaseFailed, err
			return s
		}
		s.Content = text
	}
	s.Phase, s.Entry = PhaseLoaded, entry
	return s
}
