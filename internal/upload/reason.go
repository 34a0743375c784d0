package upload

import (
	"errors"

	"campaignterm/internal/api"
	"campaignterm/internal/validate"
)

const (
	ReasonNetwork   = "Network error. Please check your connection and try again."
	ReasonTimeout   = "Upload timeout. The file may be too large or the connection too slow."
	ReasonCancelled = "Upload cancelled."
	ReasonInvalid   = "Invalid response from server."
)

// Reason maps an upload error to the text shown to the user.
func Reason(err error) string {
	var (
		verrs validate.Errors
		ferr  *validate.FieldError
		nerr  *api.NetworkError
		terr  *api.TimeoutError
		serr  *api.ServerError
		derr  *api.DecodeError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verrs), errors.As(err, &ferr):
		return err.Error()
	case errors.Is(err, api.ErrCancelled):
		return ReasonCancelled
	case errors.As(err, &terr):
		return ReasonTimeout
	case errors.As(err, &nerr):
		return ReasonNetwork
	case errors.As(err, &derr):
		return ReasonInvalid
	case errors.As(err, &serr):
		if serr.Message != "" {
			return serr.Message
		}
		return serr.Error()
	}
	return err.Error()
}
