package chessengine

// rawMoves returns the geometrically-possible destinations for the piece at
// from, before any king-safety filtering. Includes en-passant captures and
// castling candidates for the king.
func rawMoves(state *ChessState, from Square) []Square {
	piece := state.Board.At(from)
	if piece == nil {
		return nil
	}

	switch piece.Type {
	case Pawn:
		return pawnRawMoves(state, from, piece.Color)
	case Knight:
		return knightRawMoves(&state.Board, from, piece.Color)
	case Rook:
		return slidingRawMoves(&state.Board, from, piece.Color, rookDirections)
	case Bishop:
		return slidingRawMoves(&state.Board, from, piece.Color, bishopDirections)
	case Queen:
		return slidingRawMoves(&state.Board, from, piece.Color, queenDirections)
	case King:
		return kingRawMoves(state, from, piece.Color)
	default:
		return nil
	}
}

var rookDirections = [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
var bishopDirections = [][2]int{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
var queenDirections = append(append([][2]int{}, rookDirections...), bishopDirections...)

var knightOffsets = [][2]int{
	{-2, -1}, {-2, 1}, {2, -1}, {2, 1},
	{-1, -2}, {-1, 2}, {1, -2}, {1, 2},
}

var kingOffsets = [][2]int{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

func pawnRawMoves(state *ChessState, from Square, color Color) []Square {
	var moves []Square

	direction := -1 // White advances toward row 0.
	startRow := 6
	if color == Black {
		direction = 1
		startRow = 1
	}

	oneForward := Square{Row: from.Row + direction, Col: from.Col}
	if oneForward.InBounds() && state.Board.At(oneForward) == nil {
		moves = append(moves, oneForward)

		twoForward := Square{Row: from.Row + 2*direction, Col: from.Col}
		if from.Row == startRow && state.Board.At(twoForward) == nil {
			moves = append(moves, twoForward)
		}
	}

	for _, colOffset := range []int{-1, 1} {
		target := Square{Row: from.Row + direction, Col: from.Col + colOffset}
		if !target.InBounds() {
			continue
		}
		if occupant := state.Board.At(target); occupant != nil && occupant.Color != color {
			moves = append(moves, target)
			continue
		}
		if state.EnPassantTarget != nil && target == *state.EnPassantTarget {
			moves = append(moves, target)
		}
	}

	return moves
}

func knightRawMoves(board *Board, from Square, color Color) []Square {
	moves := offsetMoves(from, knightOffsets)
	filtered := moves[:0:0]
	for _, m := range moves {
		if occupant := board.At(m); occupant == nil || occupant.Color != color {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

func offsetMoves(from Square, offsets [][2]int) []Square {
	var moves []Square
	for _, off := range offsets {
		target := Square{Row: from.Row + off[0], Col: from.Col + off[1]}
		if target.InBounds() {
			moves = append(moves, target)
		}
	}
	return moves
}

// slidingRawMoves generates destinations along each direction until the edge
// of the board, an own piece (stop before), or an enemy piece (include, then
// stop).
func slidingRawMoves(board *Board, from Square, color Color, directions [][2]int) []Square {
	var moves []Square
	for _, dir := range directions {
		for step := 1; step < 8; step++ {
			target := Square{Row: from.Row + dir[0]*step, Col: from.Col + dir[1]*step}
			if !target.InBounds() {
				break
			}
			occupant := board.At(target)
			if occupant == nil {
				moves = append(moves, target)
				continue
			}
			if occupant.Color != color {
				moves = append(moves, target)
			}
			break
		}
	}
	return moves
}

func kingRawMoves(state *ChessState, from Square, color Color) []Square {
	moves := offsetMoves(from, kingOffsets)

	filtered := moves[:0:0]
	for _, m := range moves {
		if occupant := state.Board.At(m); occupant == nil || occupant.Color != color {
			filtered = append(filtered, m)
		}
	}
	moves = filtered

	moves = append(moves, castlingCandidates(state, from, color)...)
	return moves
}

// castlingCandidates returns the king's destination square for each side the
// king may currently castle toward, per spec.md §4.1: the king must not be
// in check, the right must hold, the squares between king and rook must be
// empty, and the home rook must be present. The transit square the king
// passes over must also be unattacked (spec.md §9 REDESIGN FLAG) — that part
// of the check is deferred to ValidMoves in legal.go, which rejects the
// castle if the transit square is attacked on the current board and then
// applies the usual king-safety filter to the landing square.
func castlingCandidates(state *ChessState, from Square, color Color) []Square {
	rights, ok := state.CastlingRights[color]
	if !ok {
		return nil
	}

	homeRow := 7
	if color == Black {
		homeRow = 0
	}
	if from.Row != homeRow || from.Col != 4 {
		return nil
	}

	if attacksSquare(&state.Board, from, color.Opponent()) {
		return nil // king currently in check
	}

	var candidates []Square

	if rights.KingSide && emptyBetween(state, homeRow, 5, 6) {
		if rook := state.Board.At(Square{Row: homeRow, Col: 7}); rook != nil && rook.Type == Rook && rook.Color == color {
			candidates = append(candidates, Square{Row: homeRow, Col: 6})
		}
	}
	if rights.QueenSide && emptyBetween(state, homeRow, 1, 3) {
		if rook := state.Board.At(Square{Row: homeRow, Col: 0}); rook != nil && rook.Type == Rook && rook.Color == color {
			candidates = append(candidates, Square{Row: homeRow, Col: 2})
		}
	}

	return candidates
}

func emptyBetween(state *ChessState, row, fromCol, toCol int) bool {
	for col := fromCol; col <= toCol; col++ {
		if state.Board.At(Square{Row: row, Col: col}) != nil {
			return false
		}
	}
	return true
}
