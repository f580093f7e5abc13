package chessdto

const (
	GameStatusActive    = "active"
	GameStatusFinished  = "finished"
	GameStatusAbandoned = "abandoned"
)

// GameResponse is the full game snapshot returned by GET /games/{id}.
type GameResponse struct {
	ID              string     `json:"id"`
	WhitePlayerID   string     `json:"whitePlayerId"`
	WhiteUsername   string     `json:"whiteUsername"`
	BlackPlayerID   string     `json:"blackPlayerId"`
	BlackUsername   string     `json:"blackUsername"`
	Status          string     `json:"status"`
	Result          string     `json:"result,omitempty"`
	ResultReason    string     `json:"resultReason,omitempty"`
	TimeControl     string     `json:"timeControl,omitempty"`
	Rated           bool       `json:"rated"`
	FenCurrent      string     `json:"fenCurrent"`
	WhiteTimeLeftMs *int64     `json:"whiteTimeLeftMs,omitempty"`
	BlackTimeLeftMs *int64     `json:"blackTimeLeftMs,omitempty"`
	LastMoveAt      *Timestamp `json:"lastMoveAt,omitempty"`
	MoveCount       *int       `json:"moveCount,omitempty"`
	CreatedAt       *Timestamp `json:"createdAt,omitempty"`
	FinishedAt      *Timestamp `json:"finishedAt,omitempty"`
	DrawOfferedByID *string    `json:"drawOfferedById"`
	RatingChange    *int       `json:"ratingChange,omitempty"`
}

// GameUpdate is a partial snapshot pushed on /topic/game/{id}/updates.
// A nil pointer means the field was absent, except DrawOfferedByID where nil
// means "no pending offer".
type GameUpdate struct {
	GameID          string     `json:"gameId,omitempty"`
	ID              string     `json:"id,omitempty"`
	Status          *string    `json:"status,omitempty"`
	FenCurrent      *string    `json:"fenCurrent,omitempty"`
	Result          *string    `json:"result,omitempty"`
	ResultReason    *string    `json:"resultReason,omitempty"`
	WhiteTimeLeftMs *int64     `json:"whiteTimeLeftMs,omitempty"`
	BlackTimeLeftMs *int64     `json:"blackTimeLeftMs,omitempty"`
	LastMoveAt      *Timestamp `json:"lastMoveAt,omitempty"`
	MoveCount       *int       `json:"moveCount,omitempty"`
	DrawOfferedByID *string    `json:"drawOfferedById"`
	RatingChange    *int       `json:"ratingChange,omitempty"`
}

// TargetGameID returns whichever id field the server populated.
func (u GameUpdate) TargetGameID() string {
	if u.GameID != "" {
		return u.GameID
	}
	return u.ID
}

// MoveResponse is one entry of GET /games/{id}/moves.
type MoveResponse struct {
	ID         string     `json:"id,omitempty"`
	MoveNumber int        `json:"moveNumber"`
	SAN        string     `json:"san"`
	UCI        string     `json:"uci,omitempty"`
	FEN        string     `json:"fen"`
	TimeLeftMs *int64     `json:"timeLeftMs,omitempty"`
	CreatedAt  *Timestamp `json:"createdAt,omitempty"`
}

type MakeMoveRequest struct {
	Move string `json:"move"`
}

// MoveErrorMessage is delivered on /user/queue/errors when a pushed move is rejected.
type MoveErrorMessage struct {
	GameID  string `json:"gameId,omitempty"`
	Message string `json:"message"`
}
