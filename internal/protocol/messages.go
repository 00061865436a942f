package protocol

// Message type tags used by the coordinator.
const (
	TypePlayerList   = "player_list"
	TypePlayerJoined = "player_joined"
	TypePlayerLeft   = "player_left"
	TypeGameStart    = "game_start"

	TypePlayersUpdate = "players_update"
	TypeStoryUpdate   = "story_update"
	TypeTurnUpdate    = "turn_update"
	TypeTimeoutEvent  = "timeout_event"
	TypeEvaluation    = "sentence_evaluation"
	TypeNewImage      = "new_image"
	TypeGameComplete  = "game_complete"
	TypeServerError   = "error"
)

// Message is an inbound coordinator message. Concrete variants are the
// structs below; unrecognized frames decode to Unknown.
type Message interface{ isMessage() }

// PlayerList is the coordinator's full roster snapshot for a lobby.
// It always replaces the local roster, never merges into it.
type PlayerList struct {
	Players []string `json:"players"`
}

// PlayerJoined announces a single player joining the lobby. The coordinator
// also attaches its current roster, which takes precedence when present.
type PlayerJoined struct {
	Player  string   `json:"player"`
	Players []string `json:"players,omitempty"`
}

// PlayerLeft announces a single player leaving the lobby.
type PlayerLeft struct {
	Player  string   `json:"player"`
	Players []string `json:"players,omitempty"`
}

// GameStart ends the lobby phase. TurnOrder is the coordinator-declared
// player order for the game that follows.
type GameStart struct {
	TurnOrder []string `json:"turn_order"`
}

// PlayersUpdate is the in-game roster snapshot.
type PlayersUpdate struct {
	Players []string `json:"players"`
}

// StoryUpdate appends one contribution to the shared story. Score, when
// present, is a delta applied to the contributing player.
type StoryUpdate struct {
	Player string `json:"player"`
	Text   string `json:"text"`
	Score  *int   `json:"score,omitempty"`
}

// TurnUpdate hands the turn to NextPlayer and resets the turn clock.
type TurnUpdate struct {
	NextPlayer string `json:"next_player"`
	TimeLimit  int    `json:"time_limit"`
}

// TimeoutEvent reports that a player missed their turn and was penalized.
type TimeoutEvent struct {
	Player  string `json:"player"`
	Penalty int    `json:"penalty"`
}

// Evaluation carries the coordinator's verdict on a completed sentence.
type Evaluation struct {
	Sentence string `json:"sentence"`
	Score    int    `json:"score"`
}

// NewImage advances the prompt image.
type NewImage struct {
	ImageIndex       int    `json:"image_index"`
	TotalImages      int    `json:"total_images"`
	ImageURL         string `json:"image_url"`
	ImageDescription string `json:"image_description"`
}

// GameComplete is terminal: final scores, no further state changes.
type GameComplete struct {
	Scores  map[string]int `json:"scores"`
	Message string         `json:"message,omitempty"`
}

// ServerError is a coordinator-reported error for this client.
type ServerError struct {
	Message string `json:"message"`
}

// Unknown preserves frames whose type tag the client does not recognize.
type Unknown struct {
	Type string
	Raw  []byte
}

func (PlayerList) isMessage()    {}
func (PlayerJoined) isMessage()  {}
func (PlayerLeft) isMessage()    {}
func (GameStart) isMessage()     {}
func (PlayersUpdate) isMessage() {}
func (StoryUpdate) isMessage()   {}
func (TurnUpdate) isMessage()    {}
func (TimeoutEvent) isMessage()  {}
func (Evaluation) isMessage()    {}
func (NewImage) isMessage()      {}
func (GameComplete) isMessage()  {}
func (ServerError) isMessage()   {}
func (Unknown) isMessage()       {}
