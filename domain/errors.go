package domain

// Error is a domain failure carrying a stable wire code. The API layer maps
// codes onto HTTP status classes; everything else treats them as opaque.
type Error struct {
	Code string
}

func (e *Error) Error() string { return e.Code }

// NewError returns a domain error with the given wire code.
func NewError(code string) *Error { return &Error{Code: code} }

// Validation failures (400 class, no mutation).
var (
	ErrMissingRequiredFields = NewError("missing_required_fields")
	ErrInvalidParams         = NewError("invalid_params")
	ErrUnsupportedAction     = NewError("unsupported_action")
	ErrMissingActionReason   = NewError("missing_action_reason")
	ErrMissingComparePhotos  = NewError("missing_compare_photos")
	ErrInvalidRatingScore    = NewError("invalid_rating_score")
)

// Authorization failures (403).
var (
	ErrForbidden       = NewError("forbidden")
	ErrForbiddenActor  = NewError("forbidden_actor")
	ErrForbiddenSender = NewError("forbidden_sender")
)

// State conflicts (409): the request is well-formed but current state
// forbids it. Clients refetch instead of retrying.
var (
	ErrInvalidStatusTransition = NewError("invalid_status_transition")
	ErrSessionNotFinished      = NewError("session_not_finished")
	ErrRatingAlreadySubmitted  = NewError("rating_already_submitted")
	ErrPhoneAlreadyRegistered  = NewError("phone_already_registered")
)

// Not found (404).
var (
	ErrSessionNotFound = NewError("session_not_found")
	ErrUserNotFound    = NewError("user_not_found")
	ErrItemNotFound    = NewError("item_not_found")
	ErrDemandNotFound  = NewError("demand_not_found")
)

// Authentication (401).
var ErrInvalidCredentials = NewError("invalid_credentials")
