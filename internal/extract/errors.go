package extract

import "errors"

// InvalidError marks a model response that failed schema validation. The
// engine retries once with a corrective follow-up before letting this
// surface as a permanent failure for the document.
type InvalidError struct {
	Reason string
	Raw    string
}

func (e *InvalidError) Error() string {
	return "extract: invalid response: " + e.Reason
}

// IsInvalid reports whether err is a schema-validation rejection.
func IsInvalid(err error) bool {
	var ie *InvalidError
	return errors.As(err, &ie)
}
