// Package lobby implements the pure reducer for the pre-game lobby view.
//
// State is never mutated in place: Apply returns a fresh value and the old
// one is discarded, so consumers holding a snapshot can never observe a
// half-applied reduction.
package lobby

import (
	"errors"

	"github.com/aralila/playground-client/internal/protocol"
)

var (
	// ErrInvalidTransition rejects an event that makes no sense in the
	// lobby's current phase. State is left unchanged.
	ErrInvalidTransition = errors.New("invalid lobby transition")
)

// Phase is the lobby lifecycle state.
type Phase int

const (
	// PhaseWaiting means players are still gathering.
	PhaseWaiting Phase = iota
	// PhaseStarting means the coordinator announced game start; the lobby
	// view is done and TurnOrder seeds the game session.
	PhaseStarting
)

// String returns the string representation of a Phase.
func (p Phase) String() string {
	switch p {
	case PhaseWaiting:
		return "waiting"
	case PhaseStarting:
		return "starting"
	default:
		return "unknown"
	}
}

// State is the reduced lobby view. The roster order is the coordinator's
// order, which becomes turn order once the game starts.
type State struct {
	LocalPlayer string
	Phase       Phase
	Players     []string
	Departed    []string // players seen leaving, kept for display history
	IsHost      bool
	TurnOrder   []string // set on game start
}

// NewState returns the initial lobby state for the given local player.
func NewState(localPlayer string) State {
	return State{
		LocalPlayer: localPlayer,
		Phase:       PhaseWaiting,
	}
}

// Apply reduces one coordinator message into a new state. Lobby events
// arriving after the start announcement are rejected with
// ErrInvalidTransition; messages that belong to other session kinds or carry
// unknown type tags are ignored.
func Apply(s State, msg protocol.Message) (State, error) {
	switch m := msg.(type) {
	case protocol.PlayerList:
		if s.Phase != PhaseWaiting {
			return s, ErrInvalidTransition
		}
		// Full snapshot: replace, never merge.
		return s.withPlayers(m.Players), nil

	case protocol.PlayerJoined:
		if s.Phase != PhaseWaiting {
			return s, ErrInvalidTransition
		}
		// The coordinator attaches its roster to join deltas; when present
		// it is authoritative.
		if m.Players != nil {
			return s.withPlayers(m.Players), nil
		}
		if contains(s.Players, m.Player) {
			return s, nil
		}
		next := s.withPlayers(append(copyStrings(s.Players), m.Player))
		return next, nil

	case protocol.PlayerLeft:
		if s.Phase != PhaseWaiting {
			return s, ErrInvalidTransition
		}
		next := s
		if m.Players != nil {
			next = s.withPlayers(m.Players)
		} else if contains(s.Players, m.Player) {
			next = s.withPlayers(remove(s.Players, m.Player))
		}
		if m.Player != "" && !contains(next.Departed, m.Player) {
			departed := copyStrings(next.Departed)
			next.Departed = append(departed, m.Player)
		}
		return next, nil

	case protocol.GameStart:
		if s.Phase != PhaseWaiting {
			return s, ErrInvalidTransition
		}
		next := s
		next.Phase = PhaseStarting
		next.TurnOrder = copyStrings(m.TurnOrder)
		return next, nil

	case protocol.ServerError:
		// Surfaced as a diagnostic by the caller; no state to change.
		return s, nil

	case protocol.Unknown:
		return s, nil

	default:
		// Game-session traffic has no business on a lobby connection.
		return s, ErrInvalidTransition
	}
}

// withPlayers replaces the roster and recomputes derived fields. A player
// present again after departing is un-departed.
func (s State) withPlayers(players []string) State {
	next := s
	next.Players = copyStrings(players)
	next.IsHost = len(next.Players) > 0 && next.Players[0] == s.LocalPlayer

	if len(s.Departed) > 0 {
		departed := make([]string, 0, len(s.Departed))
		for _, p := range s.Departed {
			if !contains(next.Players, p) {
				departed = append(departed, p)
			}
		}
		next.Departed = departed
	}
	return next
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func copyStrings(list []string) []string {
	if list == nil {
		return nil
	}
	out := make([]string, len(list))
	copy(out, list)
	return out
}

func remove(list []string, s string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
