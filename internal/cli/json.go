package cli

import (
	"encoding/json"
	stderrors "errors"
	"io"

	"github.com/rileyhilliard/trainq/internal/errors"
)

// machineMode is set by --json; errors are then reported as a JSON envelope.
var machineMode bool

// MachineMode returns true if machine-readable output is enabled.
func MachineMode() bool {
	return machineMode
}

// JSONEnvelope wraps all --json output.
type JSONEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *JSONError  `json:"error,omitempty"`
}

// JSONError is the machine-readable form of an error.
type JSONError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Machine-readable error codes.
const (
	ErrCodeConfigInvalid  = "CONFIG_INVALID"
	ErrCodeBackendFailed  = "BACKEND_UNREACHABLE"
	ErrCodeCommandFailed  = "COMMAND_FAILED"
	ErrCodeSSHFailed      = "SSH_FAILED"
	ErrCodeNvidiaSMIError = "NVIDIA_SMI_FAILED"
	ErrCodeUnknown        = "UNKNOWN"
)

// WriteJSONSuccess writes a successful response with data to the writer.
func WriteJSONSuccess(w io.Writer, data interface{}) error {
	return writeJSONEnvelope(w, JSONEnvelope{Success: true, Data: data})
}

// WriteJSONFromError converts an error to a JSON error response.
func WriteJSONFromError(w io.Writer, err error) error {
	return writeJSONEnvelope(w, JSONEnvelope{Success: false, Error: ErrorToJSON(err)})
}

func writeJSONEnvelope(w io.Writer, env JSONEnvelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

// ErrorToJSON converts an error to a JSONError with a mapped code.
func ErrorToJSON(err error) *JSONError {
	if err == nil {
		return nil
	}

	var tqErr *errors.Error
	if stderrors.As(err, &tqErr) {
		msg := tqErr.Message
		if tqErr.Cause != nil {
			msg = tqErr.Short()
		}
		return &JSONError{
			Code:       mapErrorCode(tqErr.Code),
			Message:    msg,
			Suggestion: tqErr.Suggestion,
		}
	}

	return &JSONError{
		Code:    ErrCodeUnknown,
		Message: errors.Summary(err),
	}
}

func mapErrorCode(code string) string {
	switch code {
	case errors.ErrConfig:
		return ErrCodeConfigInvalid
	case errors.ErrFetch:
		return ErrCodeBackendFailed
	case errors.ErrCommand:
		return ErrCodeCommandFailed
	case errors.ErrSSH:
		return ErrCodeSSHFailed
	case errors.ErrExec:
		return ErrCodeNvidiaSMIError
	default:
		return ErrCodeUnknown
	}
}
