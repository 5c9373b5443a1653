package robotfile

import (
	"regexp"
	"strconv"
	"strings"
)

// MoveType represents the kind of robot command.
type MoveType int

const (
	MoveRapid   MoveType = iota // travel without load or at height
	MoveDescend                 // feed move lowering the head
	MoveRotate                  // gripper rotation only
)

// Move is a single parsed motion command.
type Move struct {
	Type  MoveType
	X     float64
	Y     float64
	Z     float64
	Angle float64
}

// Placement is one magnet release read back from a program, with the
// gripper rotation held when it was gripped and when it was let go.
type Placement struct {
	X            float64
	Y            float64
	PickupAngle  float64
	PutdownAngle float64
}

// Program is a parsed robot program.
type Program struct {
	Moves      []Move
	Placements []Placement
}

// Parse reads a program written in the given profile's dialect. It tracks
// absolute position state and records a placement at every release.
func Parse(code string, p Profile) Program {
	var prog Program

	x, y, z, angle := 0.0, 0.0, 0.0, 0.0
	gripAngle := 0.0
	holding := false

	coordRe := regexp.MustCompile(`([XYZF]|` + regexp.QuoteMeta(strings.ToUpper(p.RotateAxis)) + `)(-?\d+\.?\d*)`)
	grip := strings.ToUpper(p.Grip)
	release := strings.ToUpper(p.Release)

	for _, line := range strings.Split(code, "\n") {
		line = stripComments(line)
		if line == "" {
			continue
		}
		upper := strings.ToUpper(line)

		switch {
		case upper == grip:
			holding = true
			gripAngle = angle
			continue
		case upper == release:
			if holding {
				prog.Placements = append(prog.Placements, Placement{X: x, Y: y, PickupAngle: gripAngle, PutdownAngle: angle})
			}
			holding = false
			continue
		}

		isRapid := hasCommand(upper, p.RapidMove)
		isFeed := hasCommand(upper, p.FeedMove)
		if !isRapid && !isFeed {
			continue
		}

		nx, ny, nz, na := x, y, z, angle
		for _, m := range coordRe.FindAllStringSubmatch(upper, -1) {
			val, err := strconv.ParseFloat(m[2], 64)
			if err != nil {
				continue
			}
			switch m[1] {
			case "X":
				nx = val
			case "Y":
				ny = val
			case "Z":
				nz = val
			case "F":
			default:
				na = val
			}
		}

		moveType := MoveRapid
		switch {
		case isFeed && nz < z:
			moveType = MoveDescend
		case na != angle && nx == x && ny == y && nz == z:
			moveType = MoveRotate
		}
		prog.Moves = append(prog.Moves, Move{Type: moveType, X: nx, Y: ny, Z: nz, Angle: na})
		x, y, z, angle = nx, ny, nz, na
	}
	return prog
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

func hasCommand(upper, cmd string) bool {
	cmd = strings.ToUpper(cmd)
	return upper == cmd || strings.HasPrefix(upper, cmd+" ")
}
