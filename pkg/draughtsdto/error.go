package draughtsdto

// DomainError carries a message key for the presenter. Code is a msgcat key
// such as "error.not_your_turn".
type DomainError struct {
	Code      string
	Data      map[string]any
	Retryable bool
}

func (e DomainError) Error() string {
	if e.Code != "" {
		return e.Code
	}
	return "draughts service error"
}
