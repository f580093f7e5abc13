package chessdto

type UserResponse struct {
	ID           string     `json:"id"`
	Email        string     `json:"email,omitempty"`
	Username     string     `json:"username"`
	Rating       int        `json:"rating"`
	PuzzleRating *int       `json:"puzzleRating,omitempty"`
	GamesPlayed  int        `json:"gamesPlayed,omitempty"`
	GamesWon     int        `json:"gamesWon,omitempty"`
	GamesLost    int        `json:"gamesLost,omitempty"`
	GamesDrawn   int        `json:"gamesDrawn,omitempty"`
	Bio          string     `json:"bio,omitempty"`
	Country      string     `json:"country,omitempty"`
	CreatedAt    *Timestamp `json:"createdAt,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token  string        `json:"token"`
	UserID string        `json:"userId,omitempty"`
	Email  string        `json:"email,omitempty"`
	User   *UserResponse `json:"user,omitempty"`
}

// ResolvedUserID prefers the nested user record.
func (a *AuthResponse) ResolvedUserID() string {
	if a == nil {
		return ""
	}
	if a.User != nil && a.User.ID != "" {
		return a.User.ID
	}
	return a.UserID
}

type UpdateProfileRequest struct {
	Username string `json:"username,omitempty"`
	Bio      string `json:"bio,omitempty"`
	Country  string `json:"country,omitempty"`
}

type RatingHistoryResponse struct {
	ID           string     `json:"id"`
	UserID       string     `json:"userId"`
	GameID       string     `json:"gameId,omitempty"`
	RatingBefore int        `json:"ratingBefore"`
	RatingAfter  int        `json:"ratingAfter"`
	RatingChange int        `json:"ratingChange"`
	CreatedAt    *Timestamp `json:"createdAt,omitempty"`
}

type RatingResponse struct {
	Rating      int `json:"rating"`
	GamesPlayed int `json:"gamesPlayed,omitempty"`
}

type LessonProgressRequest struct {
	LessonID      string `json:"lessonId"`
	CategoryID    string `json:"categoryId"`
	PuzzlesSolved int    `json:"puzzlesSolved"`
	PuzzlesTotal  int    `json:"puzzlesTotal"`
	Completed     bool   `json:"completed"`
}

type LessonProgressResponse struct {
	ID            string     `json:"id"`
	LessonID      string     `json:"lessonId"`
	CategoryID    string     `json:"categoryId"`
	Completed     bool       `json:"completed"`
	PuzzlesSolved int        `json:"puzzlesSolved"`
	PuzzlesTotal  int        `json:"puzzlesTotal"`
	ViewedAt      *Timestamp `json:"viewedAt,omitempty"`
	CompletedAt   *Timestamp `json:"completedAt,omitempty"`
}
