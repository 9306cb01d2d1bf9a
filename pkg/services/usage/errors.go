package usage

// Exit codes reported by the CLI. Anything else that fails routes
// through the usage path.
const (
	ExitInvalidGearID = 1
	ExitInvalidPlanID = 2
	ExitUserNotFound  = 3
	ExitUsage         = 255
)

// ExitError carries the process exit code for an input-validation or
// not-found failure. There are no transient failures in this tool.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}
