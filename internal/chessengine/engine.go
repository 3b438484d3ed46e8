package chessengine

var homeRookSquares = map[Color]map[string]Square{
	White: {"kingSide": {Row: 7, Col: 7}, "queenSide": {Row: 7, Col: 0}},
	Black: {"kingSide": {Row: 0, Col: 7}, "queenSide": {Row: 0, Col: 0}},
}

// MoveResult is the outcome of a successful MakeMove call.
type MoveResult struct {
	NewState *ChessState
	Move     Move
}

// MakeMove validates and applies a single ply. On success it returns a new
// ChessState (the receiver's state is never mutated) and the recorded move.
func MakeMove(state *ChessState, from, to Square, promotion *PieceType) (*MoveResult, error) {
	piece := state.Board.At(from)
	if piece == nil {
		return nil, ErrEmptySquare
	}
	if piece.Color != state.CurrentPlayer {
		return nil, ErrWrongColor
	}

	legal := ValidMoves(state, from)
	if !containsSquare(legal, to) {
		return nil, ErrIllegalMove
	}

	if target := state.Board.At(to); target != nil && target.Type == King {
		return nil, ErrCapturesKing
	}

	mover := *piece
	isEnPassant := mover.Type == Pawn && state.EnPassantTarget != nil && to == *state.EnPassantTarget && from.Col != to.Col
	isCastle := mover.Type == King && abs(to.Col-from.Col) == 2

	var captured *Piece
	if isEnPassant {
		capturedSq := Square{Row: from.Row, Col: to.Col}
		captured = state.Board.At(capturedSq)
	} else {
		captured = state.Board.At(to)
	}

	newState := state.Clone()
	applyBoardMove(&newState.Board, state, from, to, promotion)

	if captured != nil {
		newState.CapturedPieces[captured.Color] = append(newState.CapturedPieces[captured.Color], captured.Type)
	}

	updateCastlingRights(newState, mover, from, captured, to)

	newState.EnPassantTarget = nil
	if mover.Type == Pawn && abs(to.Row-from.Row) == 2 {
		newState.EnPassantTarget = &Square{Row: (from.Row + to.Row) / 2, Col: from.Col}
	}

	if captured != nil || mover.Type == Pawn {
		newState.HalfMoveClock = 0
	} else {
		newState.HalfMoveClock++
	}

	if mover.Color == Black {
		newState.FullMoveNumber++
	}

	newState.CurrentPlayer = mover.Color.Opponent()
	newState.GameStatus, newState.Winner = terminalStatus(newState, mover.Color)

	moveRecord := Move{
		From:        from,
		To:          to,
		Piece:       mover.Type,
		Color:       mover.Color,
		Promotion:   promotionRecord(mover, to, promotion),
		IsEnPassant: isEnPassant,
	}
	if captured != nil {
		ct := captured.Type
		moveRecord.Captured = &ct
	}
	if isCastle {
		if to.Col == 6 {
			moveRecord.IsCastle = "kingSide"
		} else {
			moveRecord.IsCastle = "queenSide"
		}
	}
	newState.MoveHistory = append(newState.MoveHistory, moveRecord)

	return &MoveResult{NewState: newState, Move: moveRecord}, nil
}

func promotionRecord(mover Piece, to Square, promotion *PieceType) *PieceType {
	if mover.Type != Pawn || (to.Row != 0 && to.Row != 7) {
		return nil
	}
	promoted := Queen
	if promotion != nil {
		promoted = *promotion
	}
	return &promoted
}

func updateCastlingRights(state *ChessState, mover Piece, from Square, captured *Piece, to Square) {
	if mover.Type == King {
		state.CastlingRights[mover.Color] = CastlingRights{}
	}
	if mover.Type == Rook {
		voidRookRight(state, mover.Color, from)
	}
	if captured != nil && captured.Type == Rook {
		voidRookRight(state, captured.Color, to)
	}
}

func voidRookRight(state *ChessState, color Color, sq Square) {
	rights := state.CastlingRights[color]
	if sq == homeRookSquares[color]["kingSide"] {
		rights.KingSide = false
	}
	if sq == homeRookSquares[color]["queenSide"] {
		rights.QueenSide = false
	}
	state.CastlingRights[color] = rights
}

// terminalStatus classifies the position for the side now to move
// (state.CurrentPlayer, already switched) and reports the winner, if any.
// moverColor is the color that just moved, used as the checkmate winner.
func terminalStatus(state *ChessState, moverColor Color) (GameStatus, *Color) {
	toMove := state.CurrentPlayer
	inCheckNow := inCheck(&state.Board, toMove)
	hasReply := anyLegalMove(state, toMove)

	switch {
	case inCheckNow && !hasReply:
		winner := moverColor
		return StatusCheckmate, &winner
	case inCheckNow:
		return StatusCheck, nil
	case !hasReply:
		return StatusStalemate, nil
	default:
		return StatusActive, nil
	}
}

func anyLegalMove(state *ChessState, color Color) bool {
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			piece := state.Board[r][c]
			if piece == nil || piece.Color != color {
				continue
			}
			if len(ValidMoves(state, Square{Row: r, Col: c})) > 0 {
				return true
			}
		}
	}
	return false
}

func containsSquare(squares []Square, target Square) bool {
	for _, sq := range squares {
		if sq == target {
			return true
		}
	}
	return false
}
