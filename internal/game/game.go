// Package game implements the pure reducer for the story-chain game view.
//
// The state is an authoritative shadow: it only changes when the coordinator
// says so. The story sequence is append-only, the scores map always carries
// an entry for every rostered player, and once the terminal event lands the
// state is frozen for good.
package game

import (
	"errors"

	"github.com/aralila/playground-client/internal/protocol"
)

var (
	// ErrUnknownPlayer rejects an event naming a player who is not on the
	// roster. This guards against stale messages from a superseded game
	// instance; state is left unchanged.
	ErrUnknownPlayer = errors.New("unknown player")

	// ErrInvalidTransition rejects an event that cannot apply to the
	// current state. State is left unchanged.
	ErrInvalidTransition = errors.New("invalid game transition")
)

// Entry is one contribution in the shared story.
type Entry struct {
	Player string
	Text   string
}

// EvalResult is the coordinator's verdict on the last completed sentence.
type EvalResult struct {
	Sentence string
	Score    int
}

// State is the reduced game view.
type State struct {
	LocalPlayer string

	Players     []string
	Story       []Entry
	CurrentTurn string
	Scores      map[string]int

	ImageIndex       int
	TotalImages      int
	ImageURL         string
	ImageDescription string

	TimeLeft int // seconds remaining for the active turn, reset by turn updates

	LastEvaluation *EvalResult

	Over         bool
	FinalMessage string
}

// NewState builds the initial game state from the lobby's turn order. The
// first player in the order holds the opening turn and every player starts
// at zero.
func NewState(localPlayer string, turnOrder []string) State {
	players := copyStrings(turnOrder)
	scores := make(map[string]int, len(players))
	for _, p := range players {
		scores[p] = 0
	}

	current := ""
	if len(players) > 0 {
		current = players[0]
	}

	return State{
		LocalPlayer: localPlayer,
		Players:     players,
		Story:       nil,
		CurrentTurn: current,
		Scores:      scores,
	}
}

// IsLocalTurn reports whether the local player holds the current turn.
func (s State) IsLocalTurn() bool {
	return s.CurrentTurn != "" && s.CurrentTurn == s.LocalPlayer
}

// Apply reduces one coordinator message into a new state. After the terminal
// event every message is a no-op: the returned state is the input unchanged.
func Apply(s State, msg protocol.Message) (State, error) {
	if s.Over {
		return s, nil
	}

	switch m := msg.(type) {
	case protocol.PlayersUpdate:
		return s.withPlayers(m.Players), nil

	case protocol.StoryUpdate:
		if !contains(s.Players, m.Player) {
			return s, ErrUnknownPlayer
		}
		next := s
		story := make([]Entry, len(s.Story), len(s.Story)+1)
		copy(story, s.Story)
		next.Story = append(story, Entry{Player: m.Player, Text: m.Text})
		if m.Score != nil {
			scores := copyScores(s.Scores)
			scores[m.Player] += *m.Score
			next.Scores = scores
		}
		return next, nil

	case protocol.TurnUpdate:
		if !contains(s.Players, m.NextPlayer) {
			return s, ErrUnknownPlayer
		}
		next := s
		next.CurrentTurn = m.NextPlayer
		next.TimeLeft = m.TimeLimit
		return next, nil

	case protocol.TimeoutEvent:
		if !contains(s.Players, m.Player) {
			return s, ErrUnknownPlayer
		}
		// Penalty only touches the score; nothing is appended to the story.
		next := s
		scores := copyScores(s.Scores)
		scores[m.Player] -= m.Penalty
		next.Scores = scores
		return next, nil

	case protocol.NewImage:
		next := s
		next.ImageIndex = m.ImageIndex
		next.TotalImages = m.TotalImages
		next.ImageURL = m.ImageURL
		next.ImageDescription = m.ImageDescription
		return next, nil

	case protocol.Evaluation:
		next := s
		next.LastEvaluation = &EvalResult{Sentence: m.Sentence, Score: m.Score}
		return next, nil

	case protocol.GameComplete:
		next := s
		next.Over = true
		next.FinalMessage = m.Message
		if m.Scores != nil {
			scores := make(map[string]int, len(s.Players))
			for _, p := range s.Players {
				scores[p] = m.Scores[p]
			}
			// Carry any extra entries the coordinator reports.
			for p, v := range m.Scores {
				scores[p] = v
			}
			next.Scores = scores
		}
		return next, nil

	case protocol.ServerError:
		// Coordinator-side rejection of our own action. The session store
		// surfaces it as a diagnostic; the reduced view is untouched.
		return s, nil

	case protocol.Unknown:
		// Forward compatibility: unknown kinds never crash the reducer.
		return s, nil

	default:
		// Lobby traffic on a game connection means a stale session.
		return s, ErrInvalidTransition
	}
}

// withPlayers replaces the roster, keeping existing scores and seeding
// zeroes for newcomers so the scores map stays total over the roster. A
// roster change that drops the turn holder leaves no active turn until the
// coordinator hands it to someone else.
func (s State) withPlayers(players []string) State {
	next := s
	next.Players = copyStrings(players)

	scores := make(map[string]int, len(next.Players))
	for _, p := range next.Players {
		scores[p] = s.Scores[p]
	}
	next.Scores = scores

	if next.CurrentTurn != "" && !contains(next.Players, next.CurrentTurn) {
		next.CurrentTurn = ""
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

func copyScores(scores map[string]int) map[string]int {
	out := make(map[string]int, len(scores))
	for k, v := range scores {
		out[k] = v
	}
	return out
}
