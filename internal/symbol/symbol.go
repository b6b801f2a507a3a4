// Package symbol maps user-supplied tickers onto per-source identifier
// conventions and holds the single authoritative board table used both for
// exchange suffixing and for daily move-limit policy.
package symbol

import (
	"fmt"
	"strings"

	"Kronos/internal/domain/models"
)

// Board is the listing venue of an instrument.
type Board int

const (
	BoardUnknown Board = iota
	BoardShanghai
	BoardShenzhen
)

// Exchange suffixes used by the secondary source.
const (
	suffixShanghai = "SS"
	suffixShenzhen = "SZ"
)

// Pair carries the per-source spellings of one ticker.
type Pair struct {
	Primary   string // bare code, primary source convention
	Secondary string // exchange-suffixed, secondary source convention
}

var boardPrefixes = map[Board][]string{
	BoardShanghai: {"60", "68"},
	BoardShenzhen: {"00", "30"},
}

// Classify resolves a bare 6-digit code to its board by leading digits.
func Classify(code string) Board {
	for board, prefixes := range boardPrefixes {
		for _, p := range prefixes {
			if strings.HasPrefix(code, p) {
				return board
			}
		}
	}
	return BoardUnknown
}

func isBareCode(s string) bool {
	if len(s) != 6 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Normalize maps a raw ticker into the identifier pair expected by the two
// remote sources. Bare 6-digit codes are suffixed by board; already-suffixed
// tickers are canonicalized (SH and SS both mean Shanghai); any other shape
// passes through unchanged.
func Normalize(raw string) (Pair, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if code == "" {
		return Pair{}, fmt.Errorf("%w: empty ticker", models.ErrInvalidSymbol)
	}

	if isBareCode(code) {
		switch Classify(code) {
		case BoardShanghai:
			return Pair{Primary: code, Secondary: code + "." + suffixShanghai}, nil
		case BoardShenzhen:
			return Pair{Primary: code, Secondary: code + "." + suffixShenzhen}, nil
		default:
			return Pair{}, fmt.Errorf("%w: unrecognized board for %s", models.ErrInvalidSymbol, code)
		}
	}

	if strings.Contains(code, ".") {
		parts := strings.SplitN(code, ".", 2)
		num, suffix := parts[0], parts[1]
		if strings.Contains(suffix, ".") {
			return Pair{}, fmt.Errorf("%w: malformed ticker %s", models.ErrInvalidSymbol, code)
		}
		switch suffix {
		case "SS", "SH":
			return Pair{Primary: num, Secondary: num + "." + suffixShanghai}, nil
		case "SZ":
			return Pair{Primary: num, Secondary: num + "." + suffixShenzhen}, nil
		default:
			return Pair{Primary: num, Secondary: code}, nil
		}
	}

	return Pair{Primary: code, Secondary: code}, nil
}

// Daily move-limit fractions by instrument class.
const (
	limitSpecialTreatment = 0.05
	limitGrowthBoards     = 0.20
	limitMainBoard        = 0.10
)

// Prefixes of the two boards trading with the widened 20% band
// (STAR Market and ChiNext).
var wideLimitPrefixes = []string{"688", "300"}

// LimitFor returns the maximum absolute fractional daily price change allowed
// for the instrument. Special-treatment instruments are capped at 5%, the two
// growth boards at 20%, everything else at 10%.
func LimitFor(code string) float64 {
	c := strings.ToUpper(strings.TrimSpace(code))
	if strings.Contains(c, "ST") {
		return limitSpecialTreatment
	}
	for _, p := range wideLimitPrefixes {
		if strings.HasPrefix(c, p) {
			return limitGrowthBoards
		}
	}
	return limitMainBoard
}
