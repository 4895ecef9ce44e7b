package core

// error_messages.go maps internal errors to user-facing messages with
// support codes. Operators quote the code when reporting a problem,
// which is faster to triage than a raw error string.
//
// Code groups:
//
//	REG001-REG099 - schema registry (exists / not found)
//	INS001-INS099 - inspection gate
//	PRV001-PRV099 - provisioning saga
//	SAV001-SAV099 - save path / storage
//	DB001-DB099   - database connectivity
//	GEN001        - fallback

import (
	"errors"
	"fmt"
	"strings"

	"mastergate/internal/registry"
	"mastergate/internal/warehouse"
)

// UserMessage is the operator-facing rendition of an error.
type UserMessage struct {
	Code    string
	Message string
	Action  string
}

// MapError converts any error from the core into a UserMessage.
func MapError(err error) UserMessage {
	var inspErr *InspectionError
	var provErr *ProvisioningError
	var saveErr *SaveError

	switch {
	case errors.Is(err, registry.ErrAlreadyExists):
		return UserMessage{
			Code:    "REG001",
			Message: "A master with this name already exists.",
			Action:  "Pick a different name or update the existing master.",
		}

	case errors.Is(err, registry.ErrNotFound):
		return UserMessage{
			Code:    "REG002",
			Message: "No master with this name is registered.",
			Action:  "Check the name or register the master first.",
		}

	case errors.Is(err, ErrSchemaNotFound):
		return UserMessage{
			Code:    "REG003",
			Message: "No schema definition was found for this master.",
			Action:  "Register the master before loading or saving data.",
		}

	case errors.As(err, &inspErr):
		return UserMessage{
			Code: "INS001",
			Message: fmt.Sprintf("Inspection rejected the data: %d violation(s) found.",
				len(inspErr.Violations)),
			Action: "Review the violation list, fix the data, and save again.",
		}

	case errors.As(err, &provErr):
		msg := UserMessage{
			Code:    "PRV001",
			Message: fmt.Sprintf("Creating the master failed at step %q.", provErr.Step),
			Action:  "Fix the underlying problem and retry; partial setup was rolled back.",
		}
		if provErr.CompensationErr != nil {
			msg.Code = "PRV002"
			msg.Action = "Rollback also failed; the schema definition may need manual cleanup."
		}
		return msg

	case errors.Is(err, warehouse.ErrTableExists):
		return UserMessage{
			Code:    "SAV002",
			Message: "A data table with this name already exists in the warehouse.",
			Action:  "Choose another master name or remove the orphaned table.",
		}

	case errors.As(err, &saveErr):
		return UserMessage{
			Code:    "SAV001",
			Message: "The data passed inspection but could not be written to storage.",
			Action:  "Try again; if the problem persists, check warehouse connectivity.",
		}
	}

	// Connectivity patterns, matched on the raw text as a last resort.
	text := strings.ToLower(errString(err))
	switch {
	case strings.Contains(text, "connection refused"),
		strings.Contains(text, "connection reset"):
		return UserMessage{
			Code:    "DB001",
			Message: "The database is unreachable.",
			Action:  "Try again in a few moments.",
		}
	case strings.Contains(text, "timeout"),
		strings.Contains(text, "deadline exceeded"):
		return UserMessage{
			Code:    "DB002",
			Message: "The operation timed out.",
			Action:  "Try again, or retry with a smaller batch.",
		}
	}

	return UserMessage{
		Code:    "GEN001",
		Message: "An unexpected error occurred.",
		Action:  "Try again; quote this code when contacting support.",
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
