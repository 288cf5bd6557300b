//go:build !ios && !android && (amd64 || arm64)

package libspotify

import (
	"errors"
	"fmt"
)

// sp_error values used by the bindings.
const (
	ErrorOK                = 0
	ErrorBadAPIVersion     = 1
	ErrorAPIInitFailed     = 2
	ErrorTrackNotPlayable  = 3
	ErrorBadApplicationKey = 5
	ErrorBadUsernameOrPass = 6
	ErrorUserBanned        = 7
	ErrorUnableToContactAP = 8
	ErrorClientTooOld      = 9
	ErrorOtherPermanent    = 10
	ErrorBadUserAgent      = 11
	ErrorMissingCallback   = 12
	ErrorInvalidIndata     = 13
	ErrorIndexOutOfRange   = 14
	ErrorUserNeedsPremium  = 15
	ErrorOtherTransient    = 16
	ErrorIsLoading         = 17
	ErrorNoStreamAvailable = 18
	ErrorPermissionDenied  = 19
	ErrorInboxIsFull       = 20
	ErrorNoCache           = 21
	ErrorNoSuchUser        = 22
	ErrorNoCredentials     = 23
	ErrorNetworkDisabled   = 24
	ErrorInvalidDeviceID   = 25
	ErrorCantOpenTraceFile = 26
	ErrorApplicationBanned = 27
	ErrorOfflineTooMany    = 31
	ErrorOfflineDiskCache  = 32
	ErrorOfflineExpired    = 33
	ErrorOfflineNotAllowed = 34
	ErrorOfflineLicLost    = 35
	ErrorOfflineLicError   = 36
	ErrorLastFMAuthError   = 39
	ErrorInvalidArgument   = 40
	ErrorSystemFailure     = 41
)

// Error is a failed libspotify call.
type Error struct {
	Code    int32  // raw sp_error
	Message string // sp_error_message text
	Op      string // operation that failed
}

func (e *Error) Error() string {
	return fmt.Sprintf("libspotify %s: %s (code %d)", e.Op, e.Message, e.Code)
}

// newError returns nil for ErrorOK and an *Error otherwise.
func newError(code int32, op string) error {
	if code == ErrorOK {
		return nil
	}
	return &Error{Code: code, Message: ErrorString(code), Op: op}
}

// ErrorString returns libspotify's message for code. It falls back to a
// generic text when the library is not loaded.
func ErrorString(code int32) string {
	if spErrorMessage != nil {
		if s := goString(spErrorMessage(code)); s != "" {
			return s
		}
	}
	return fmt.Sprintf("sp_error %d", code)
}

// Code returns the sp_error of err, or ErrorOK if err is not an *Error.
func Code(err error) int32 {
	var spErr *Error
	if errors.As(err, &spErr) {
		return spErr.Code
	}
	return ErrorOK
}

// IsLoading reports whether err means the object is still loading.
func IsLoading(err error) bool {
	return Code(err) == ErrorIsLoading
}
