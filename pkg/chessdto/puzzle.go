package chessdto

type PuzzleResponse struct {
	ID               string     `json:"id"`
	FEN              string     `json:"fen"`
	FirstMove        string     `json:"firstMove,omitempty"`
	Solution         []string   `json:"solution,omitempty"`
	Rating           int        `json:"rating"`
	Themes           []string   `json:"themes,omitempty"`
	AlreadySolved    bool       `json:"alreadySolved"`
	DailyDate        *Timestamp `json:"dailyDate,omitempty"`
	UserPuzzleRating *int       `json:"userPuzzleRating,omitempty"`
}

type CheckPuzzleSolutionRequest struct {
	PuzzleID         string   `json:"puzzleId"`
	Moves            []string `json:"moves"`
	TimeSpentSeconds int      `json:"timeSpentSeconds"`
	SkipRatingUpdate bool     `json:"skipRatingUpdate,omitempty"`
}

type CheckPuzzleSolutionResponse struct {
	Correct            bool     `json:"correct"`
	Complete           bool     `json:"complete"`
	NextMove           string   `json:"nextMove,omitempty"`
	Solution           []string `json:"solution,omitempty"`
	Attempts           int      `json:"attempts,omitempty"`
	PuzzleRating       *int     `json:"puzzleRating,omitempty"`
	PuzzleRatingChange *int     `json:"puzzleRatingChange,omitempty"`
}

type PuzzleHintRequest struct {
	PuzzleID     string   `json:"puzzleId"`
	CurrentMoves []string `json:"currentMoves"`
}

type PuzzleHintResponse struct {
	Move     string `json:"move,omitempty"`
	NextMove string `json:"nextMove,omitempty"`
	Hint     string `json:"hint,omitempty"`
}

// ExpectedMove returns the UCI move the backend suggests.
func (h *PuzzleHintResponse) ExpectedMove() string {
	if h == nil {
		return ""
	}
	if h.Move != "" {
		return h.Move
	}
	return h.NextMove
}

type PuzzleRatingResponse struct {
	Rating int `json:"rating"`
}

type PuzzleRatingHistoryResponse struct {
	ID           string     `json:"id"`
	UserID       string     `json:"userId"`
	PuzzleID     string     `json:"puzzleId"`
	RatingBefore *int       `json:"ratingBefore,omitempty"`
	RatingAfter  *int       `json:"ratingAfter,omitempty"`
	RatingChange *int       `json:"ratingChange,omitempty"`
	CreatedAt    *Timestamp `json:"createdAt,omitempty"`
}
