package chessdto

type MatchmakingJoinRequest struct {
	GameMode       string `json:"gameMode"`
	TimeControl    string `json:"timeControl"`
	PreferredColor string `json:"preferredColor,omitempty"`
	IsRated        bool   `json:"isRated"`
}

type MatchmakingJoinResponse struct {
	Queued      bool   `json:"queued"`
	Matched     bool   `json:"matched"`
	GameID      string `json:"gameId,omitempty"`
	GameMode    string `json:"gameMode,omitempty"`
	TimeControl string `json:"timeControl,omitempty"`
	Message     string `json:"message,omitempty"`
}

type MatchmakingStatusResponse struct {
	Queued      bool   `json:"queued"`
	Matched     bool   `json:"matched"`
	GameID      string `json:"gameId,omitempty"`
	GameMode    string `json:"gameMode,omitempty"`
	TimeControl string `json:"timeControl,omitempty"`
}

type CreateLobbyGameRequest struct {
	GameMode       string `json:"gameMode"`
	TimeControl    string `json:"timeControl"`
	PreferredColor string `json:"preferredColor"`
	Rated          bool   `json:"rated"`
}

type LobbyGameResponse struct {
	ID              string     `json:"id"`
	CreatorID       string     `json:"creatorId"`
	CreatorUsername string     `json:"creatorUsername"`
	CreatorRating   int        `json:"creatorRating"`
	GameMode        string     `json:"gameMode"`
	TimeControl     string     `json:"timeControl"`
	PreferredColor  string     `json:"preferredColor"`
	Rated           bool       `json:"rated"`
	CreatedAt       *Timestamp `json:"createdAt,omitempty"`
}

type CreateInviteRequest struct {
	GameMode        string `json:"gameMode"`
	TimeControl     string `json:"timeControl"`
	PreferredColor  string `json:"preferredColor,omitempty"`
	ExpirationHours *int   `json:"expirationHours,omitempty"`
	Rated           bool   `json:"rated"`
}

type InviteResponse struct {
	ID              string     `json:"id"`
	Code            string     `json:"code,omitempty"`
	CreatorID       string     `json:"creatorId,omitempty"`
	CreatorUsername string     `json:"creatorUsername,omitempty"`
	GameMode        string     `json:"gameMode"`
	TimeControl     string     `json:"timeControl"`
	PreferredColor  string     `json:"preferredColor,omitempty"`
	Rated           bool       `json:"rated"`
	InviteURL       string     `json:"inviteUrl,omitempty"`
	ExpiresAt       *Timestamp `json:"expiresAt,omitempty"`
	UsedAt          *Timestamp `json:"usedAt,omitempty"`
	CreatedAt       *Timestamp `json:"createdAt,omitempty"`
}

// InviteCode returns the code used in /invites/{code} paths.
func (i *InviteResponse) InviteCode() string {
	if i == nil {
		return ""
	}
	if i.Code != "" {
		return i.Code
	}
	return i.ID
}

type FriendshipResponse struct {
	ID        string        `json:"id"`
	Friend    *UserResponse `json:"friend,omitempty"`
	Status    string        `json:"status"`
	CreatedAt *Timestamp    `json:"createdAt,omitempty"`
}

type FriendStatusResponse struct {
	Status       string `json:"status"`
	FriendshipID string `json:"friendshipId,omitempty"`
}

type BotDifficulty struct {
	Name  string `json:"name"`
	Depth int    `json:"depth"`
}

type CreateBotGameRequest struct {
	Difficulty  string `json:"difficulty"`
	PlayerColor string `json:"playerColor"`
	TimeControl string `json:"timeControl"`
}

type BotMoveResponse struct {
	Move string        `json:"move"`
	Game *GameResponse `json:"game,omitempty"`
}

type LobbyJoinResponse struct {
	GameID  string `json:"gameId"`
	Message string `json:"message,omitempty"`
}

// MessageResponse is the bare acknowledgement several endpoints return.
type MessageResponse struct {
	Message string `json:"message,omitempty"`
}
