package wire

import (
	"fmt"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// A ResponseError is the error reported inside a response payload.
type ResponseError struct {
	Kind    Kind
	Code    int32
	Details string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%s failed with code %d: %s", e.Kind, e.Code, e.Details)
}

// PlayerResult is the outcome of a game for one player.
type PlayerResult struct {
	PlayerID uint32
	Result   Result
}

// Result of a game.
type Result int32

// Results.
const (
	Victory   Result = 1
	Defeat    Result = 2
	Tie       Result = 3
	Undecided Result = 4
)

func (r Result) String() string {
	switch r {
	case Victory:
		return "Victory"
	case Defeat:
		return "Defeat"
	case Tie:
		return "Tie"
	case Undecided:
		return "Undecided"
	default:
		return fmt.Sprintf("Result(%d)", int32(r))
	}
}

func expectKind(rsp *Response, kind Kind) error {
	if rsp.Kind != kind {
		return errors.Errorf("expected %s response, got %s", kind, rsp.Kind)
	}

	return nil
}

// CreateGameError returns the error reported by a create game response, or
// nil if the game was created.
func CreateGameError(rsp *Response) error {
	if err := expectKind(rsp, CreateGame); err != nil {
		return err
	}

	return resultError(rsp, 1, 2)
}

// JoinGameResult returns the player id assigned by a join game response.
func JoinGameResult(rsp *Response) (uint32, error) {
	if err := expectKind(rsp, JoinGame); err != nil {
		return 0, err
	}

	var playerID uint32

	err := walk(rsp.Payload, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 && typ == protowire.VarintType {
			v, n := protowire.ConsumeVarint(b)
			playerID = uint32(v)

			return n, nil
		}

		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	if err != nil {
		return 0, err
	}

	if err := resultError(rsp, 2, 3); err != nil {
		return 0, err
	}

	return playerID, nil
}

// ObservationGameLoop returns the game loop of an observation response.
func ObservationGameLoop(rsp *Response) (uint32, error) {
	if err := expectKind(rsp, Observation); err != nil {
		return 0, err
	}

	var loop uint32

	for _, obs := range RepeatedBytes(rsp.Payload, 2) {
		err := walk(obs, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
			if num == 9 && typ == protowire.VarintType {
				v, n := protowire.ConsumeVarint(b)
				loop = uint32(v)

				return n, nil
			}

			return protowire.ConsumeFieldValue(num, typ, b), nil
		})
		if err != nil {
			return 0, err
		}
	}

	return loop, nil
}

// ObservationResults returns the player results of an observation
// response. They are only present once the game ended.
func ObservationResults(rsp *Response) ([]PlayerResult, error) {
	if err := expectKind(rsp, Observation); err != nil {
		return nil, err
	}

	var results []PlayerResult

	for _, raw := range RepeatedBytes(rsp.Payload, 3) {
		var r PlayerResult

		err := walk(raw, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
			if typ != protowire.VarintType {
				return protowire.ConsumeFieldValue(num, typ, b), nil
			}

			v, n := protowire.ConsumeVarint(b)
			switch num {
			case 1:
				r.PlayerID = uint32(v)
			case 2:
				r.Result = Result(v)
			}

			return n, nil
		})
		if err != nil {
			return nil, err
		}

		results = append(results, r)
	}

	return results, nil
}

// RepeatedBytes returns the values of a length-delimited field, in order.
// Malformed payloads yield the values decoded so far.
func RepeatedBytes(payload []byte, field protowire.Number) [][]byte {
	var values [][]byte

	_ = walk(payload, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == field && typ == protowire.BytesType {
			v, n := protowire.ConsumeBytes(b)
			if n >= 0 {
				values = append(values, v)
			}

			return n, nil
		}

		return protowire.ConsumeFieldValue(num, typ, b), nil
	})

	return values
}

func resultError(rsp *Response, codeField, detailsField protowire.Number) error {
	var (
		failed  bool
		code    int32
		details string
	)

	err := walk(rsp.Payload, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == codeField && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			failed = true
			code = int32(v)

			return n, nil
		case num == detailsField && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			failed = true
			details = v

			return n, nil
		}

		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	if err != nil {
		return err
	}

	if !failed {
		return nil
	}

	return &ResponseError{Kind: rsp.Kind, Code: code, Details: details}
}
