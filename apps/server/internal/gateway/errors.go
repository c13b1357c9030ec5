package gateway

import (
	"errors"
	"fmt"

	"blackjack-lite/blackjack"
)

// ErrorKind classifies connection faults.
type ErrorKind byte

const (
	KindTransport      ErrorKind = 1
	KindDecode         ErrorKind = 2
	KindEncode         ErrorKind = 3
	KindBadMessageType ErrorKind = 4
	KindUpgrade        ErrorKind = 5
	KindPanic          ErrorKind = 6
)

var ErrorKindDictionary = map[ErrorKind]string{
	KindTransport:      "transport",
	KindDecode:         "decode",
	KindEncode:         "encode",
	KindBadMessageType: "bad message type",
	KindUpgrade:        "upgrade",
	KindPanic:          "panic",
}

func (k ErrorKind) String() string {
	if name, ok := ErrorKindDictionary[k]; ok {
		return name
	}
	return "unknown"
}

var ErrBadMessageType = errors.New("non-binary frame")

// ServerError is what the gateway reports on its error channel.
type ServerError struct {
	Kind     ErrorKind
	PlayerID blackjack.PlayerID
	Err      error
}

func (e *ServerError) Error() string {
	if e.PlayerID == (blackjack.PlayerID{}) {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s (player %s): %v", e.Kind, e.PlayerID, e.Err)
}

func (e *ServerError) Unwrap() error {
	return e.Err
}
