package chessengine

// ValidMoves returns the legal destination squares for the piece at from.
// Empty if from is empty, the piece doesn't belong to state.CurrentPlayer,
// or every geometric candidate leaves (or places) the mover's own king in
// check.
func ValidMoves(state *ChessState, from Square) []Square {
	piece := state.Board.At(from)
	if piece == nil || piece.Color != state.CurrentPlayer {
		return nil
	}

	candidates := rawMoves(state, from)
	var legal []Square

	for _, to := range candidates {
		if piece.Type == King && abs(to.Col-from.Col) == 2 {
			transit := Square{Row: from.Row, Col: (from.Col + to.Col) / 2}
			if attacksSquare(&state.Board, transit, piece.Color.Opponent()) {
				continue
			}
		}

		scratch := state.Board.Clone()
		applyBoardMove(&scratch, state, from, to, nil)
		if !attacksSquare(&scratch, findKing(&scratch, piece.Color), piece.Color.Opponent()) {
			legal = append(legal, to)
		}
	}

	return legal
}

// applyBoardMove mutates board in place to reflect moving from->to,
// including rook transit for castling and captured-pawn removal for
// en-passant. promotion is only consulted when non-nil; ValidMoves's
// scratch simulation passes nil since promotion choice never affects
// check status. origState supplies the pre-move en-passant target needed to
// recognize an en-passant capture; castling is recognized from the king's
// two-column move alone.
func applyBoardMove(board *Board, origState *ChessState, from, to Square, promotion *PieceType) {
	piece := board.At(from)
	if piece == nil {
		return
	}

	movingPiece := *piece

	if movingPiece.Type == Pawn && origState.EnPassantTarget != nil && to == *origState.EnPassantTarget && from.Col != to.Col {
		capturedRow := from.Row
		board.Set(Square{Row: capturedRow, Col: to.Col}, nil)
	}

	if movingPiece.Type == King && abs(to.Col-from.Col) == 2 {
		row := from.Row
		if to.Col == 6 {
			rook := board.At(Square{Row: row, Col: 7})
			board.Set(Square{Row: row, Col: 7}, nil)
			board.Set(Square{Row: row, Col: 5}, rook)
		} else if to.Col == 2 {
			rook := board.At(Square{Row: row, Col: 0})
			board.Set(Square{Row: row, Col: 0}, nil)
			board.Set(Square{Row: row, Col: 3}, rook)
		}
	}

	board.Set(from, nil)

	if movingPiece.Type == Pawn && (to.Row == 0 || to.Row == 7) {
		promoted := Queen
		if promotion != nil {
			promoted = *promotion
		}
		movingPiece.Type = promoted
	}

	board.Set(to, &movingPiece)
}
