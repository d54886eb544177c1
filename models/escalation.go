package models

import "fmt"

// EscalationLevel is the hierarchy rank a complaint has been raised to.
type EscalationLevel int

const (
	LevelNone           EscalationLevel = 0
	LevelDeptHead       EscalationLevel = 1
	LevelDean           EscalationLevel = 2
	LevelCampusDirector EscalationLevel = 3
	LevelAdmin          EscalationLevel = 4
)

// MaxEscalationLevel is the highest level a complaint can reach.
const MaxEscalationLevel = LevelAdmin

// AutoEscalationCeiling is the level at or above which automatic escalation stops.
const AutoEscalationCeiling = LevelDean

func (l EscalationLevel) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelDeptHead:
		return "department_head"
	case LevelDean:
		return "dean"
	case LevelCampusDirector:
		return "campus_director"
	case LevelAdmin:
		return "admin"
	}
	return fmt.Sprintf("level_%d", int(l))
}

// Valid reports whether l is an escalation target (1..4).
func (l EscalationLevel) Valid() bool {
	return l >= LevelDeptHead && l <= MaxEscalationLevel
}

// EscalationTrigger distinguishes manual from SLA-driven escalations.
type EscalationTrigger string

const (
	TriggerManual    EscalationTrigger = "manual"
	TriggerSLABreach EscalationTrigger = "sla_breach"
)

// AutoEscalationReason is recorded on escalations raised by the SLA sweep.
const AutoEscalationReason = "Automatic escalation due to SLA breach"

// EscalationCandidate is an open, SLA-breached complaint and the level it sits at.
type EscalationCandidate struct {
	ComplaintID     int64           `db:"complaint_id"`
	EscalationLevel EscalationLevel `db:"escalation_level"`
}
