package application

import "net/http"

const (
	MessageLoginSucceeded     = "Login successful"
	MessageUnauthorized       = "Unauthorized"
	MessageLoginError         = "Error during login"
	MessagePendingRetrieved   = "Pending jokes retrieved"
	MessagePendingError       = "Error fetching pending jokes"
	MessageUpdateSucceeded    = "Joke updated successfully"
	MessageUpdateError        = "Error updating joke"
	MessageJokeNotFound       = "Joke not found"
	MessageInvalidJokeID      = "Invalid joke id"
	MessageApproveSucceeded   = "Joke approved and delivered successfully"
	MessageApproveError       = "Error approving joke"
	MessageDeliverError       = "Error saving joke to deliver service"
	MessageApproveUnknown     = "Unknown error occurred while processing the joke approval and delivery"
	MessageApprovalInProgress = "Joke approval already in progress"
	MessageJokeNotPending     = "Joke is not pending approval"
	MessageRejectSucceeded    = "Joke rejected successfully"
	MessageRejectError        = "Error rejecting joke"
	MessageIntentsRetrieved   = "Delivery intents retrieved"
	MessageIntentsError       = "Error fetching delivery intents"
	MessageInvalidIntentState = "Invalid delivery status"
)

// Outcome is the uniform envelope every moderation operation returns.
// Code mirrors the HTTP status the transport should use.
type Outcome struct {
	Code    int
	Message string
	Data    any
	Error   string
}

// LoginResult is the Data payload of a successful Authenticate.
type LoginResult struct {
	Token string
}

func (o Outcome) Succeeded() bool {
	return o.Code >= http.StatusOK && o.Code < http.StatusMultipleChoices
}

func success(code int, message string, data any) Outcome {
	return Outcome{Code: code, Message: message, Data: data}
}

func failure(code int, message string, err error) Outcome {
	outcome := Outcome{Code: code, Message: message}
	if err != nil {
		outcome.Error = err.Error()
	}
	return outcome
}
