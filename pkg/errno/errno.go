package errno

import "net/http"

// Errno defines the error code logic
type Errno struct {
	Code       int
	HTTPStatus int
	Message    string
}

func (e Errno) Error() string {
	return e.Message
}

// WithMessage returns a copy of the Errno carrying a more specific message.
// Code and HTTP status class are preserved so handlers keep mapping it correctly.
func (e Errno) WithMessage(msg string) Errno {
	e.Message = msg
	return e
}

// Decode tries to convert an error to Errno and returns its HTTP status and message
func Decode(err error) (int, string) {
	if err == nil {
		return OK.HTTPStatus, OK.Message
	}

	switch typed := err.(type) {
	case *Errno:
		return typed.HTTPStatus, typed.Message
	case Errno:
		return typed.HTTPStatus, typed.Message
	default:
		return InternalServerError.HTTPStatus, err.Error()
	}
}

// Common Errors
var (
	OK                  = Errno{Code: 0, HTTPStatus: http.StatusOK, Message: "Success"}
	InternalServerError = Errno{Code: 10001, HTTPStatus: http.StatusInternalServerError, Message: "Internal server error"}
	ErrBind             = Errno{Code: 10002, HTTPStatus: http.StatusBadRequest, Message: "Error occurred while binding the request body to the struct"}
)

// Business Errors (20000+)
var (
	// ErrInvalidRequest covers missing or malformed request parameters.
	ErrInvalidRequest = Errno{Code: 20101, HTTPStatus: http.StatusBadRequest, Message: "Missing required parameters"}
	// ErrInvalidAction is returned for an unknown staking action tag.
	ErrInvalidAction = Errno{Code: 20102, HTTPStatus: http.StatusBadRequest, Message: "Invalid action"}
	// ErrNothingToClaim is the claim business rule: zero or absent claimable balance.
	ErrNothingToClaim = Errno{Code: 20201, HTTPStatus: http.StatusBadRequest, Message: "No rewards to claim"}
	// ErrProvider wraps failures of the upstream staking provider.
	ErrProvider = Errno{Code: 20301, HTTPStatus: http.StatusBadGateway, Message: "Staking provider request failed"}
	// ErrMalformedPayload means a provider transaction lacks destination or call data.
	ErrMalformedPayload = Errno{Code: 20302, HTTPStatus: http.StatusInternalServerError, Message: "Transaction missing required fields"}
	// ErrWallet covers missing wallet connection, signature rejection and send failures.
	ErrWallet = Errno{Code: 20401, HTTPStatus: http.StatusInternalServerError, Message: "Wallet error"}
	// ErrNetworkSwitch means the wallet could not switch to the target chain.
	ErrNetworkSwitch = Errno{Code: 20402, HTTPStatus: http.StatusInternalServerError, Message: "Network switch failed"}
)
