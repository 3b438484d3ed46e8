package chessengine

import "errors"

var (
	// ErrEmptySquare is returned when From holds no piece.
	ErrEmptySquare = errors.New("chessengine: no piece at source square")
	// ErrWrongColor is returned when the piece at From doesn't belong to
	// state.CurrentPlayer.
	ErrWrongColor = errors.New("chessengine: piece does not belong to the side to move")
	// ErrIllegalMove is returned when To is not among ValidMoves(state, From).
	ErrIllegalMove = errors.New("chessengine: move is not legal in this position")
	// ErrCapturesKing is a defense-in-depth guard; it should be unreachable
	// since legal move generation never offers a king as a capture target.
	ErrCapturesKing = errors.New("chessengine: move would capture a king")
)
