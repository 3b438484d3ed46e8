package chessengine

var backRank = [8]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// InitialPosition returns the standard chess starting position: White to
// move, full castling rights, empty clocks, move number 1.
func InitialPosition() *ChessState {
	var board Board
	for col, pt := range backRank {
		board[0][col] = &Piece{Type: pt, Color: Black}
		board[7][col] = &Piece{Type: pt, Color: White}
	}
	for col := 0; col < 8; col++ {
		board[1][col] = &Piece{Type: Pawn, Color: Black}
		board[6][col] = &Piece{Type: Pawn, Color: White}
	}

	return &ChessState{
		Board:          board,
		CurrentPlayer:  White,
		MoveHistory:    nil,
		CapturedPieces: map[Color][]PieceType{White: {}, Black: {}},
		GameStatus:     StatusActive,
		CastlingRights: map[Color]CastlingRights{
			White: {KingSide: true, QueenSide: true},
			Black: {KingSide: true, QueenSide: true},
		},
		HalfMoveClock:  0,
		FullMoveNumber: 1,
	}
}
