package models

import "fmt"

// DefaultEvaluacionColor is applied when an evaluation is created without a color.
const DefaultEvaluacionColor = "#FF9800"

// SubjectAllocation is the share of a subject's final grade carried by one evaluation.
type SubjectAllocation struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// Evaluacion is a graded assessment on a specific date.
type Evaluacion struct {
	Block
	Title       string              `json:"title"`
	Subjects    []SubjectAllocation `json:"subjects"`
	Grade       float64             `json:"grade"`
	Professor   string              `json:"professor,omitempty"`
	Room        string              `json:"room,omitempty"`
	Description string              `json:"description,omitempty"`
	Start       LocalDateTime       `json:"start"`
	End         LocalDateTime       `json:"end"`
}

// TimeRange returns the dated window occupied by the evaluation.
func (e Evaluacion) TimeRange() (TimeRange, error) {
	return NewDatedRange(e.Start.Date(), e.Start.Clock(), e.End.Clock())
}

// WeightFor sums the weight this evaluation assigns to subject.
func (e Evaluacion) WeightFor(subject string) float64 {
	var total float64
	for _, alloc := range e.Subjects {
		if alloc.Name == subject {
			total += alloc.Weight
		}
	}
	return total
}

// Clone returns a copy that shares no slices with e.
func (e Evaluacion) Clone() Evaluacion {
	clone := e
	if e.Subjects != nil {
		clone.Subjects = append([]SubjectAllocation(nil), e.Subjects...)
	}
	return clone
}

// WeightExceededError is returned when a subject's allocated weight would pass 100%.
type WeightExceededError struct {
	Subject     string  `json:"subject"`
	ExistingSum float64 `json:"existing_sum"`
	NewWeight   float64 `json:"new_weight"`
}

// ErrorDetails exposes the subject and sums to API clients.
func (e *WeightExceededError) ErrorDetails() interface{} { return e }

// Error implements the error interface.
func (e *WeightExceededError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("subject %q would reach %.2f%% (%.2f%% allocated + %.2f%% new), the maximum is 100%%",
		e.Subject, e.ExistingSum+e.NewWeight, e.ExistingSum, e.NewWeight)
}

// SubjectSummary aggregates a subject's evaluations for one owner.
type SubjectSummary struct {
	Subject         string  `json:"subject"`
	Evaluations     int     `json:"evaluations"`
	AllocatedWeight float64 `json:"allocated_weight"`
	RemainingWeight float64 `json:"remaining_weight"`
	Points          float64 `json:"points"`
}
