package protocol

import (
	"encoding/json"
	"fmt"
)

// MalformedMessageError reports a frame that could not be decoded. The
// connection that delivered it stays alive; one bad frame must not kill a
// session.
type MalformedMessageError struct {
	Cause error
}

func (e *MalformedMessageError) Error() string {
	return fmt.Sprintf("malformed message: %v", e.Cause)
}

func (e *MalformedMessageError) Unwrap() error { return e.Cause }

// envelope is the minimal shape every coordinator frame shares.
type envelope struct {
	Type string `json:"type"`
}

// Decode parses a raw coordinator frame into its typed variant. Frames with
// an unrecognized type tag decode to Unknown; frames that are not valid JSON
// or that fail field-level decoding return *MalformedMessageError.
func Decode(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &MalformedMessageError{Cause: err}
	}
	if env.Type == "" {
		return nil, &MalformedMessageError{Cause: fmt.Errorf("missing type field")}
	}

	switch env.Type {
	case TypePlayerList:
		var m PlayerList
		return decodeInto(env.Type, data, &m)
	case TypePlayerJoined:
		var m PlayerJoined
		return decodeInto(env.Type, data, &m)
	case TypePlayerLeft:
		var m PlayerLeft
		return decodeInto(env.Type, data, &m)
	case TypeGameStart:
		var m GameStart
		return decodeInto(env.Type, data, &m)
	case TypePlayersUpdate:
		var m PlayersUpdate
		return decodeInto(env.Type, data, &m)
	case TypeStoryUpdate:
		var m StoryUpdate
		return decodeInto(env.Type, data, &m)
	case TypeTurnUpdate:
		var m TurnUpdate
		return decodeInto(env.Type, data, &m)
	case TypeTimeoutEvent:
		var m TimeoutEvent
		return decodeInto(env.Type, data, &m)
	case TypeEvaluation:
		var m Evaluation
		return decodeInto(env.Type, data, &m)
	case TypeNewImage:
		var m NewImage
		return decodeInto(env.Type, data, &m)
	case TypeGameComplete:
		var m GameComplete
		return decodeInto(env.Type, data, &m)
	case TypeServerError:
		var m ServerError
		return decodeInto(env.Type, data, &m)
	default:
		raw := make([]byte, len(data))
		copy(raw, data)
		return Unknown{Type: env.Type, Raw: raw}, nil
	}
}

// decodeInto unmarshals data into v and returns the dereferenced variant.
func decodeInto[T Message](msgType string, data []byte, v *T) (Message, error) {
	if err := json.Unmarshal(data, v); err != nil {
		return nil, &MalformedMessageError{Cause: fmt.Errorf("decode %s: %w", msgType, err)}
	}
	return *v, nil
}
