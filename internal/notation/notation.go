// Package notation derives match-record fields from the PGN text that
// clients report. It replays notation for counting purposes only; move
// legality during play is the clients' rules engine's job.
package notation

import (
	"regexp"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

var moveNumberRe = regexp.MustCompile(`^\d+\.(\.\.)?$`)
var moveNumberScan = regexp.MustCompile(`\d+\.`)

var resultTokens = map[string]bool{
	"1-0": true, "0-1": true, "1/2-1/2": true, "*": true,
}

// MoveCount returns the number of full moves recorded in pgn. It replays the
// movetext through the chess library; if the text does not replay cleanly it
// falls back to counting move numbers, so a slightly mangled PGN still
// yields a usable count.
func MoveCount(pgn string) int {
	if strings.TrimSpace(pgn) == "" {
		return 0
	}
	if game := replay(pgn); game != nil {
		plies := len(game.Moves())
		return (plies + 1) / 2
	}
	return len(moveNumberScan.FindAllString(pgn, -1))
}

// FinalFEN prefers the position the client reported; when absent it derives
// the position by replaying the PGN. Empty when neither is available.
func FinalFEN(pgn, reported string) string {
	if strings.TrimSpace(reported) != "" {
		return strings.TrimSpace(reported)
	}
	if game := replay(pgn); game != nil && len(game.Moves()) > 0 {
		return game.FEN()
	}
	return ""
}

// replay pushes every SAN token of the movetext onto a fresh game. Returns
// nil when any token fails to apply.
func replay(pgn string) *nchess.Game {
	game := nchess.NewGame()
	applied := false
	for _, tok := range movetextTokens(pgn) {
		if err := game.PushNotationMove(tok, nchess.AlgebraicNotation{}, nil); err != nil {
			return nil
		}
		applied = true
	}
	if !applied {
		return nil
	}
	return game
}

// movetextTokens strips tag pairs, comments, move numbers and the result
// token, leaving bare SAN.
func movetextTokens(pgn string) []string {
	var out []string
	for _, line := range strings.Split(pgn, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "[") {
			continue
		}
		for _, tok := range strings.Fields(line) {
			tok = strings.TrimSpace(tok)
			if tok == "" || moveNumberRe.MatchString(tok) || resultTokens[tok] {
				continue
			}
			if strings.HasPrefix(tok, "{") || strings.HasSuffix(tok, "}") {
				continue
			}
			// "1.e4" style: shear off the leading number.
			if i := strings.LastIndex(tok, "."); i >= 0 && i < len(tok)-1 {
				if moveNumberRe.MatchString(tok[:i+1]) {
					tok = tok[i+1:]
				}
			}
			out = append(out, tok)
		}
	}
	return out
}
