package auth

import "errors"

var (
	ErrMissingFields        = errors.New("missing email or password")
	ErrUserNotFound         = errors.New("user not found")
	ErrIncorrectPassword    = errors.New("incorrect password")
	ErrEmailNotVerified     = errors.New("email not verified")
	ErrProviderSignInFailed = errors.New("provider sign-in failed")
	ErrAccountNotLinked     = errors.New("account not linked")
	ErrInternal             = errors.New("internal error")
)

const (
	MsgMissingFields      = "Email and password are required."
	MsgInvalidCredentials = "Invalid email or password."
	MsgEmailNotVerified   = "Please verify your email before signing in."
	MsgAccountNotLinked   = "To confirm your identity, sign in with the same account you used originally."
	MsgDefault            = "Something went wrong. Please try again."
)

// PublicMessage returns the caller-facing text for err. Unknown accounts and
// wrong passwords share one message so callers cannot enumerate accounts.
func PublicMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingFields):
		return MsgMissingFields
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrIncorrectPassword):
		return MsgInvalidCredentials
	case errors.Is(err, ErrEmailNotVerified):
		return MsgEmailNotVerified
	case errors.Is(err, ErrAccountNotLinked):
		return MsgAccountNotLinked
	default:
		return MsgDefault
	}
}

// Classified reports whether err belongs to the sign-in error taxonomy.
func Classified(err error) bool {
	for _, target := range []error{
		ErrMissingFields,
		ErrUserNotFound,
		ErrIncorrectPassword,
		ErrEmailNotVerified,
		ErrProviderSignInFailed,
		ErrAccountNotLinked,
		ErrInternal,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
