package chessdto

type AnalysisRequest struct {
	GameID   string   `json:"gameId"`
	Moves    []string `json:"moves"`
	StartFEN string   `json:"startFen,omitempty"`
	Depth    *int     `json:"depth,omitempty"`
}

type MoveAnalysis struct {
	MoveNumber     int    `json:"moveNumber"`
	IsWhiteMove    bool   `json:"isWhiteMove"`
	Move           string `json:"move"`
	Evaluation     int    `json:"evaluation"`
	BestMove       string `json:"bestMove,omitempty"`
	BestEvaluation *int   `json:"bestEvaluation,omitempty"`
	IsMistake      bool   `json:"isMistake"`
	IsInaccuracy   bool   `json:"isInaccuracy"`
	IsBlunder      bool   `json:"isBlunder"`
}

type AnalysisResponse struct {
	GameID        string         `json:"gameId"`
	TotalMoves    int            `json:"totalMoves"`
	WhiteAccuracy float64        `json:"whiteAccuracy"`
	BlackAccuracy float64        `json:"blackAccuracy"`
	WhiteMistakes int            `json:"whiteMistakes"`
	BlackMistakes int            `json:"blackMistakes"`
	WhiteBlunders int            `json:"whiteBlunders"`
	BlackBlunders int            `json:"blackBlunders"`
	Moves         []MoveAnalysis `json:"moves"`
}
