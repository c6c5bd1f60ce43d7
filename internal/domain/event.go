package domain

import "time"

// Phase is where the controller is in its daily cycle.
type Phase string

const (
	PhaseAwaitingSunrise        Phase = "awaiting_sunrise"
	PhaseAccumulating           Phase = "accumulating"
	PhaseAwaitingMidDayDecision Phase = "awaiting_midday_decision"
	PhaseSupplementingLight     Phase = "supplementing_light"
	PhaseDoneForDay             Phase = "done_for_day"
)

// Phases lists every phase, in daily order.
var Phases = []Phase{
	PhaseAwaitingSunrise,
	PhaseAccumulating,
	PhaseAwaitingMidDayDecision,
	PhaseSupplementingLight,
	PhaseDoneForDay,
}

// EventKind names a controller transition worth publishing.
type EventKind string

const (
	EventSunriseReset       EventKind = "sunrise_reset"
	EventMidDaySupplement   EventKind = "midday_supplement"
	EventMidDaySufficient   EventKind = "midday_sufficient"
	EventSupplementComplete EventKind = "supplement_complete"
	EventLightsOut          EventKind = "lights_out"
	EventMissedMidDay       EventKind = "missed_midday"
)

// Event records a transition of the control loop.
type Event struct {
	Kind        EventKind `json:"kind"`
	Phase       Phase     `json:"phase"`
	Accumulated float64   `json:"accumulated"`
	Required    float64   `json:"required"`
	LEDOn       bool      `json:"led_on"`
	Timestamp   time.Time `json:"timestamp"`
}

// Status is a point-in-time view of the control loop.
type Status struct {
	Plant          string
	Phase          Phase
	Accumulated    float64
	Required       float64
	Sun            SunTimes
	LEDOn          bool
	LastLux        float64
	LastReadingAt  time.Time
	MissedReadings int
}
