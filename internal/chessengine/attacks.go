package chessengine

// attacksSquare reports whether any byColor piece on board geometrically
// attacks target. Used for king-safety filtering and castling's transit- and
// origin-square checks. Attack patterns are independent of whether target is
// occupied (a pawn attacks its diagonals even onto an empty square).
func attacksSquare(board *Board, target Square, byColor Color) bool {
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			piece := board[r][c]
			if piece == nil || piece.Color != byColor {
				continue
			}
			if pieceAttacks(board, Square{Row: r, Col: c}, *piece, target) {
				return true
			}
		}
	}
	return false
}

func pieceAttacks(board *Board, from Square, piece Piece, target Square) bool {
	switch piece.Type {
	case Pawn:
		direction := -1
		if piece.Color == Black {
			direction = 1
		}
		return target.Row == from.Row+direction && abs(target.Col-from.Col) == 1
	case Knight:
		dr, dc := abs(target.Row-from.Row), abs(target.Col-from.Col)
		return (dr == 2 && dc == 1) || (dr == 1 && dc == 2)
	case King:
		dr, dc := abs(target.Row-from.Row), abs(target.Col-from.Col)
		return dr <= 1 && dc <= 1 && (dr != 0 || dc != 0)
	case Rook:
		return slidingAttacks(board, from, target, rookDirections)
	case Bishop:
		return slidingAttacks(board, from, target, bishopDirections)
	case Queen:
		return slidingAttacks(board, from, target, queenDirections)
	default:
		return false
	}
}

func slidingAttacks(board *Board, from, target Square, directions [][2]int) bool {
	for _, dir := range directions {
		for step := 1; step < 8; step++ {
			sq := Square{Row: from.Row + dir[0]*step, Col: from.Col + dir[1]*step}
			if !sq.InBounds() {
				break
			}
			if sq == target {
				return true
			}
			if board.At(sq) != nil {
				break
			}
		}
	}
	return false
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// findKing returns the square of color's king. Panics if absent: a
// well-formed ChessState always has exactly one king per side.
func findKing(board *Board, color Color) Square {
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			if p := board[r][c]; p != nil && p.Type == King && p.Color == color {
				return Square{Row: r, Col: c}
			}
		}
	}
	panic("chessengine: no king found for " + string(color))
}

func inCheck(board *Board, color Color) bool {
	return attacksSquare(board, findKing(board, color), color.Opponent())
}
