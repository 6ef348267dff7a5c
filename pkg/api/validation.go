package api

// MaxTaskLength bounds the task text accepted on the wire. Tasks are passed
// verbatim into a model prompt, so the bound also caps prompt growth across
// retry feedback rounds.
const MaxTaskLength = 8192

// ValidateTask checks a task string as received from a client.
func ValidateTask(task string) *APIError {
	if task == "" {
		return NewInvalidRequestError("task", "task must not be empty")
	}
	if len(task) > MaxTaskLength {
		return NewInvalidRequestError("task", "task exceeds maximum length")
	}
	return nil
}
