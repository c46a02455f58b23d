package models

// Frequency is the generation period of an installment plan or recurring
// template.
type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// Valid reports whether the frequency is known.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

// ScheduleStatus is the lifecycle state of an installment plan or
// recurring template. Completed is terminal for generation purposes:
// the scheduler never reactivates a completed schedule.
type ScheduleStatus string

const (
	ScheduleActive    ScheduleStatus = "active"
	SchedulePaused    ScheduleStatus = "paused"
	ScheduleCompleted ScheduleStatus = "completed"
)

// Valid reports whether the status is known.
func (s ScheduleStatus) Valid() bool {
	switch s {
	case ScheduleActive, SchedulePaused, ScheduleCompleted:
		return true
	}
	return false
}
