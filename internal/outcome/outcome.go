// Package outcome maps raw termination triggers onto the canonical result
// descriptor. Every call site that ends a game goes through Resolve; no other
// component derives winner or end-reason on its own.
package outcome

import (
	"errors"
	"fmt"
)

// Side identifies a seat in the room. White is the creator's seat.
type Side string

const (
	White Side = "white"
	Black Side = "black"
)

// Opponent returns the other seat.
func (s Side) Opponent() Side {
	if s == White {
		return Black
	}
	return White
}

func (s Side) Valid() bool { return s == White || s == Black }

// Trigger is a raw game-ending event.
type Trigger string

const (
	TriggerResign     Trigger = "resign"
	TriggerDisconnect Trigger = "disconnect"
	TriggerCheckmate  Trigger = "checkmate"
	TriggerStalemate  Trigger = "stalemate"
	TriggerRepetition Trigger = "repetition"
	TriggerMaterial   Trigger = "insufficient_material"
	TriggerDrawAgreed Trigger = "draw_agreement"
)

// Result codes as persisted on the match record.
const (
	ResultWhiteWin        = "white_win"
	ResultBlackWin        = "black_win"
	ResultDraw            = "draw"
	ResultWhiteResign     = "white_resign"
	ResultBlackResign     = "black_resign"
	ResultWhiteDisconnect = "white_disconnect"
	ResultBlackDisconnect = "black_disconnect"
)

// End reasons as persisted on the match record and derived views.
const (
	ReasonCheckmate  = "checkmate"
	ReasonResign     = "resign"
	ReasonDisconnect = "disconnect"
	ReasonStalemate  = "stalemate"
	ReasonDrawAgreed = "draw_agreement"
	ReasonMaterial   = "insufficient_material"
)

// WinnerDraw marks a drawn game in the winner field.
const WinnerDraw = "draw"

// Outcome is the canonical termination descriptor.
type Outcome struct {
	Result    string
	Winner    string // "white", "black" or "draw"
	EndReason string
}

// Decisive reports whether one side won.
func (o Outcome) Decisive() bool { return o.Winner != WinnerDraw }

var ErrSideRequired = errors.New("trigger requires an originating side")

// Resolve turns a trigger plus the side that caused it (the resigning,
// disconnecting or winning side depending on the trigger) into an Outcome.
// Draw triggers ignore side.
func Resolve(trigger Trigger, side Side) (Outcome, error) {
	switch trigger {
	case TriggerResign:
		if !side.Valid() {
			return Outcome{}, ErrSideRequired
		}
		return Outcome{
			Result:    string(side) + "_resign",
			Winner:    string(side.Opponent()),
			EndReason: ReasonResign,
		}, nil
	case TriggerDisconnect:
		if !side.Valid() {
			return Outcome{}, ErrSideRequired
		}
		return Outcome{
			Result:    string(side) + "_disconnect",
			Winner:    string(side.Opponent()),
			EndReason: ReasonDisconnect,
		}, nil
	case TriggerCheckmate:
		if !side.Valid() {
			return Outcome{}, ErrSideRequired
		}
		return Outcome{
			Result:    string(side) + "_win",
			Winner:    string(side),
			EndReason: ReasonCheckmate,
		}, nil
	case TriggerStalemate:
		return Outcome{Result: ResultDraw, Winner: WinnerDraw, EndReason: ReasonStalemate}, nil
	case TriggerRepetition:
		// Treated as an agreed-style draw, matching the persisted taxonomy.
		return Outcome{Result: ResultDraw, Winner: WinnerDraw, EndReason: ReasonDrawAgreed}, nil
	case TriggerMaterial:
		return Outcome{Result: ResultDraw, Winner: WinnerDraw, EndReason: ReasonMaterial}, nil
	case TriggerDrawAgreed:
		return Outcome{Result: ResultDraw, Winner: WinnerDraw, EndReason: ReasonDrawAgreed}, nil
	default:
		return Outcome{}, fmt.Errorf("unknown trigger: %q", trigger)
	}
}

// PlayerResult reduces an Outcome to win/loss/draw for one seat.
func (o Outcome) PlayerResult(side Side) string {
	if !o.Decisive() {
		return "draw"
	}
	if o.Winner == string(side) {
		return "win"
	}
	return "loss"
}

// HistoryReason categorizes a rating-history row: wins and losses caused by
// the opponent leaving are tagged apart from over-the-board results.
func HistoryReason(playerResult, endReason string) string {
	switch playerResult {
	case "win":
		switch endReason {
		case ReasonDisconnect:
			return "opponent_disconnect"
		case ReasonResign:
			return "opponent_resign"
		}
		return "win"
	case "loss":
		switch endReason {
		case ReasonDisconnect:
			return "disconnect_loss"
		case ReasonResign:
			return "resign_loss"
		}
		return "loss"
	}
	return "draw"
}
