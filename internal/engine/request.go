package engine

import (
	"github.com/eduscheduler/engine/internal/domain"
	"github.com/eduscheduler/engine/internal/variables"
	"github.com/eduscheduler/engine/pkg/config"
)

// StartSchedulingRequest is the control-surface payload for
// startScheduling. Every request is validated with go-playground/
// validator before the engine touches it.
type StartSchedulingRequest struct {
	AcademicYear string              `validate:"required"`
	Semester     string              `validate:"required"`
	Rules        domain.RawRules     `validate:"required"`
	Classes      []domain.Class      `validate:"required,min=1,dive"`
	Plans        []domain.TeachingPlan `validate:"required,min=1,dive"`
	Master       variables.MasterData  `validate:"required"`

	// Preset names one of the three fixed profiles; Config, if
	// non-zero, overrides it field by field.
	Preset config.Preset
	Config config.SchedulerConfig
}

// ManualEditRequest is the control-surface payload for a move or swap.
type ManualEditRequest struct {
	TaskID           domain.TaskID `validate:"required"`
	SessionID        domain.SessionID `validate:"required"`
	// SwapWithSessionID, when set, requests a swap instead of a move.
	SwapWithSessionID domain.SessionID
	TargetSlot        domain.RoomSlot
	// ForceMove commits a move despite critical violations, but only when
	// the rule snapshot's AllowOverride is set. Ignored by a swap request
	// (SwapWithSessionID set); see ForceSwap for that case.
	ForceMove bool
	// ForceSwap commits a swap despite critical violations, but only when
	// the rule snapshot's AllowOverride is set. Ignored by a move request.
	ForceSwap bool
	// SwapRooms, for a swap request, also trades each session's room
	// along with its time slot. When false only the time slots trade
	// and each session keeps its own room.
	SwapRooms bool
	// RescoreAfterEdit opts into an immediate optimizer pass over the
	// edited schedule. Defaults to off.
	RescoreAfterEdit bool
}
