package gcode

import (
	"regexp"
	"strconv"
	"strings"
)

// MoveType represents the type of saw movement.
type MoveType int

const (
	MoveRapid   MoveType = iota // G0 along X or A: feed the bar or swivel the head
	MoveFeed                    // G1 that does not lower the blade
	MoveCut                     // G1 with Z decreasing: blade stroke through the section
	MoveRetract                 // Z increasing: blade lifted clear
	MovePause                   // M0/M00: operator stop, a new bar is loaded
)

// Move represents a single parsed movement of a saw program.
type Move struct {
	Type     MoveType
	FromX    float64
	FromZ    float64
	FromA    float64
	ToX      float64
	ToZ      float64
	ToA      float64
	FeedRate float64
}

var coordRe = regexp.MustCompile(`([XZAF])(-?\d+\.?\d*)`)

// ParseProgram parses a saw program into structured moves. It tracks the
// absolute X, Z and A state and classifies each G0/G1 command; program
// stops are kept as MovePause so callers can split the moves per bar.
func ParseProgram(code string) []Move {
	var moves []Move

	curX, curZ, curA := 0.0, 0.0, 0.0
	curFeed := 0.0

	for _, line := range strings.Split(code, "\n") {
		line = stripComments(line)
		if line == "" {
			continue
		}

		upper := strings.ToUpper(line)
		word := strings.Fields(upper)[0]

		isRapid := word == "G0" || word == "G00"
		isFeed := word == "G1" || word == "G01"
		if word == "M0" || word == "M00" {
			moves = append(moves, Move{
				Type:  MovePause,
				FromX: curX, FromZ: curZ, FromA: curA,
				ToX: curX, ToZ: curZ, ToA: curA,
				FeedRate: curFeed,
			})
			continue
		}
		if !isRapid && !isFeed {
			continue
		}

		newX, newZ, newA, newFeed := curX, curZ, curA, curFeed
		for _, m := range coordRe.FindAllStringSubmatch(upper, -1) {
			val, err := strconv.ParseFloat(m[2], 64)
			if err != nil {
				continue
			}
			switch m[1] {
			case "X":
				newX = val
			case "Z":
				newZ = val
			case "A":
				newA = val
			case "F":
				newFeed = val
			}
		}

		moves = append(moves, Move{
			Type:     classifyMove(isRapid, curZ, newZ),
			FromX:    curX,
			FromZ:    curZ,
			FromA:    curA,
			ToX:      newX,
			ToZ:      newZ,
			ToA:      newA,
			FeedRate: newFeed,
		})

		curX, curZ, curA, curFeed = newX, newZ, newA, newFeed
	}

	return moves
}

// stripComments removes semicolon and parenthetical comments.
func stripComments(line string) string {
	if idx := strings.Index(line, ";"); idx >= 0 {
		line = line[:idx]
	}
	for {
		start := strings.Index(line, "(")
		if start < 0 {
			break
		}
		end := strings.Index(line[start:], ")")
		if end < 0 {
			line = line[:start]
			break
		}
		line = line[:start] + line[start+end+1:]
	}
	return strings.TrimSpace(line)
}

// classifyMove determines the MoveType from the command and the Z change.
func classifyMove(isRapid bool, fromZ, toZ float64) MoveType {
	zDelta := toZ - fromZ
	switch {
	case zDelta > 0.001:
		return MoveRetract
	case isRapid:
		return MoveRapid
	case zDelta < -0.001:
		return MoveCut
	default:
		return MoveFeed
	}
}
