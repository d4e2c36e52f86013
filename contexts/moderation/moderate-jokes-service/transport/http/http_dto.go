package http

// Envelope is the response body of every moderation route. Data is always
// serialized, as null when absent.
type Envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
	Error   string `json:"error,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginData struct {
	Token string `json:"token"`
}

// UpdateJokeRequest is a sparse patch; absent fields are left untouched.
type UpdateJokeRequest struct {
	Setup     *string `json:"setup,omitempty"`
	Punchline *string `json:"punchline,omitempty"`
	Type      *string `json:"type,omitempty"`
	Author    *string `json:"author,omitempty"`
}

type CategoryResponse struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type JokeResponse struct {
	ID        string           `json:"id"`
	Setup     string           `json:"setup"`
	Punchline string           `json:"punchline"`
	Type      CategoryResponse `json:"type"`
	Author    string           `json:"author,omitempty"`
	Status    string           `json:"status"`
	CreatedAt string           `json:"createdAt,omitempty"`
	UpdatedAt string           `json:"updatedAt,omitempty"`
}

type DeliveredJokeResponse struct {
	ID        string `json:"id"`
	Setup     string `json:"setup"`
	Punchline string `json:"punchline"`
	Type      string `json:"type"`
	Author    string `json:"author,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

type DeliveryIntentResponse struct {
	IntentID      string                `json:"intent_id"`
	JokeID        string                `json:"joke_id"`
	Status        string                `json:"status"`
	Attempts      int                   `json:"attempts"`
	LastError     string                `json:"last_error,omitempty"`
	NextAttemptAt string                `json:"next_attempt_at"`
	CreatedAt     string                `json:"created_at"`
	UpdatedAt     string                `json:"updated_at"`
	Payload       DeliveredJokeResponse `json:"payload"`
}
