package job

import (
	"fmt"
	"time"
)

// StageDetail records how long one phase took, in termination order.
type StageDetail struct {
	Stage           Stage
	TimeConsumption time.Duration
}

// StageDetailPayload is the JSON shape of a StageDetail.
type StageDetailPayload struct {
	Stage           string `json:"stage"`
	TimeConsumption string `json:"time_consumption"`
}

func (d StageDetail) ToPayload() StageDetailPayload {
	return StageDetailPayload{
		Stage:           d.Stage.String(),
		TimeConsumption: FormatAge(d.TimeConsumption),
	}
}

// Status is an immutable snapshot of a Job at one instant.
type Status struct {
	JobName      string
	TimeElapsed  time.Duration
	Stage        Stage
	State        State
	StageDetails []StageDetail
	Progress     float64
}

// StatusPayload is the JSON shape returned by the control API.
type StatusPayload struct {
	Name         string               `json:"name"`
	Age          string               `json:"age"`
	Stage        string               `json:"stage"`
	StageDetails []StageDetailPayload `json:"stageDetails"`
	Progress     string               `json:"progress"`
}

// ToPayload renders the status the way the control API serializes it: the
// "stage" field carries the terminal state name once the job is no longer
// ONGOING, not the phase name.
func (s Status) ToPayload() StatusPayload {
	stageField := s.Stage.String()
	if s.State != Ongoing {
		stageField = s.State.String()
	}

	details := make([]StageDetailPayload, 0, len(s.StageDetails))
	for _, d := range s.StageDetails {
		details = append(details, d.ToPayload())
	}

	return StatusPayload{
		Name:         s.JobName,
		Age:          FormatAge(s.TimeElapsed),
		Stage:        stageField,
		StageDetails: details,
		Progress:     fmt.Sprintf("%.2f %%", s.Progress),
	}
}
