package protocol

import "encoding/json"

// Outbound message type tags.
const (
	TypePlayerJoin     = "player_join"
	TypeSubmitSentence = "submit_sentence"
	TypePlayerLeave    = "player_leave"
)

// Outbound is a client → coordinator message.
type Outbound interface{ isOutbound() }

// PlayerJoin requests entry into a game room under a display name.
type PlayerJoin struct {
	Type   string `json:"type"`
	Player string `json:"player"`
}

// SubmitSentence submits the local player's contribution for the current
// turn. The coordinator echoes it back as a StoryUpdate; the local view only
// changes on that echo.
type SubmitSentence struct {
	Type   string `json:"type"`
	Player string `json:"player"`
	Text   string `json:"text"`
}

// PlayerLeave tells the coordinator the player is leaving the room.
type PlayerLeave struct {
	Type   string `json:"type"`
	Player string `json:"player"`
}

func (PlayerJoin) isOutbound()     {}
func (SubmitSentence) isOutbound() {}
func (PlayerLeave) isOutbound()    {}

// NewPlayerJoin builds a join request for the given display name.
func NewPlayerJoin(player string) PlayerJoin {
	return PlayerJoin{Type: TypePlayerJoin, Player: player}
}

// NewSubmitSentence builds a move submission.
func NewSubmitSentence(player, text string) SubmitSentence {
	return SubmitSentence{Type: TypeSubmitSentence, Player: player, Text: text}
}

// NewPlayerLeave builds a leave notification.
func NewPlayerLeave(player string) PlayerLeave {
	return PlayerLeave{Type: TypePlayerLeave, Player: player}
}

// Encode serializes an outbound message to its wire form.
func Encode(msg Outbound) ([]byte, error) {
	return json.Marshal(msg)
}
