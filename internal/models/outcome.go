// internal/models/outcome.go
package models

type StageStatus string

const (
	StatusOK       StageStatus = "ok"
	StatusDegraded StageStatus = "degraded"
	StatusInvalid  StageStatus = "invalid"
)

// Outcome tags every stage result so a fallback value can be told apart from
// a value produced by a successful external call.
type Outcome struct {
	Status    StageStatus `json:"status"`
	ErrorCode string      `json:"errorCode,omitempty"`
	Reason    string      `json:"reason,omitempty"`
}

func OK() Outcome {
	return Outcome{Status: StatusOK}
}

func Degraded(code string, err error) Outcome {
	o := Outcome{Status: StatusDegraded, ErrorCode: code}
	if err != nil {
		o.Reason = err.Error()
	}
	return o
}

func Invalid(code string, err error) Outcome {
	o := Outcome{Status: StatusInvalid, ErrorCode: code}
	if err != nil {
		o.Reason = err.Error()
	}
	return o
}

func (o Outcome) IsDegraded() bool {
	return o.Status == StatusDegraded
}
