package cli

import (
	"errors"

	"github.com/ppiankov/edgarflat/internal/model"
	"github.com/ppiankov/edgarflat/internal/worker"
)

// Describe turns an error into the one-line message shown to the user
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, model.ErrInputMissing):
		return "Please select a company."
	case errors.Is(err, model.ErrUpstreamUnavailable):
		return "Sorry, the data for this company is unavailable."
	case errors.Is(err, model.ErrNoDataYet):
		return "No financials yet. Please process a company first."
	case errors.Is(err, model.ErrUnknownUser):
		return "Unknown user. Add it with 'edgarflat user add'."
	case errors.Is(err, model.ErrInvalidUser), errors.Is(err, worker.ErrDuplicateUser):
		return err.Error()
	}
	return "Error: " + err.Error()
}
