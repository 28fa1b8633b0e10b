package entities

import "fmt"

// TaskType identifies one of the five decision kinds a model can learn.
type TaskType string

const (
	TaskDonorSelection      TaskType = "donor_selection"
	TaskUrgencyAssessment   TaskType = "urgency_assessment"
	TaskInventorySelection  TaskType = "inventory_selection"
	TaskTransportPlanning   TaskType = "transport_planning"
	TaskEligibilityAnalysis TaskType = "eligibility_analysis"
)

// AllTaskTypes lists every task type in a stable order.
func AllTaskTypes() []TaskType {
	return []TaskType{
		TaskDonorSelection,
		TaskUrgencyAssessment,
		TaskInventorySelection,
		TaskTransportPlanning,
		TaskEligibilityAnalysis,
	}
}

// ParseTaskType accepts either the snake_case name or the kebab-case wire path.
func ParseTaskType(s string) (TaskType, error) {
	for _, t := range AllTaskTypes() {
		if s == string(t) || s == t.Path() {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown task type %q", s)
}

// Valid reports whether t is a known task type.
func (t TaskType) Valid() bool {
	_, err := ParseTaskType(string(t))
	return err == nil
}

// Path is the kebab-case segment used by the prediction service and the HTTP API.
func (t TaskType) Path() string {
	switch t {
	case TaskDonorSelection:
		return "donor-selection"
	case TaskUrgencyAssessment:
		return "urgency-assessment"
	case TaskInventorySelection:
		return "inventory-selection"
	case TaskTransportPlanning:
		return "transport-planning"
	case TaskEligibilityAnalysis:
		return "eligibility-analysis"
	}
	return ""
}
