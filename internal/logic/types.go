// Package logic contains the pure application state machine of the fan
// tester. This package has NO hardware, OS or clock dependencies: time is
// always injected via Input.Time, and side effects are returned as Actions
// for the caller to apply.
package logic

import "time"

// State is the top-level application state.
type State string

const (
	StateSplash         State = "SPLASH"
	StateMenu           State = "MENU"
	StateSettingsMenu   State = "SETTINGS_MENU"
	StateSelectLanguage State = "SELECT_LANGUAGE"
	StateSelectStep     State = "SELECT_STEP"
	StateSelectDebounce State = "SELECT_DEBOUNCE"
	StateMessageSaved   State = "MESSAGE_SAVED"
	StateAbout          State = "ABOUT"
	StateRunAuto        State = "RUN_AUTO"
	StateRunManual      State = "RUN_MANUAL"
	StateRunTarget      State = "RUN_TARGET"
)

// Running reports whether s is one of the fan test modes.
func (s State) Running() bool {
	return s == StateRunAuto || s == StateRunManual || s == StateRunTarget
}

// Selecting reports whether s is one of the option selectors.
func (s State) Selecting() bool {
	return s == StateSelectLanguage || s == StateSelectStep || s == StateSelectDebounce
}

// ActionType is a side effect requested by the state machine.
type ActionType string

const (
	ActionSetDuty       ActionType = "SET_DUTY"
	ActionSetTarget     ActionType = "SET_TARGET"
	ActionDisableTarget ActionType = "DISABLE_TARGET"
	ActionSaveLanguage  ActionType = "SAVE_LANGUAGE"
	ActionSaveStep      ActionType = "SAVE_STEP"
	ActionSaveDebounce  ActionType = "SAVE_DEBOUNCE"
)

// Action is one side effect. Value carries the duty percent, target RPM,
// step percent or debounce milliseconds; Language carries the language code.
type Action struct {
	Type     ActionType
	Value    int
	Language string
}

// Input is one logic tick: the press events consumed since the previous
// tick and the tick time.
type Input struct {
	Next   bool
	Select bool
	Time   time.Time
}

// MenuItem identifies an entry of the main or settings menu.
type MenuItem string

const (
	ItemAuto     MenuItem = "AUTO"
	ItemManual   MenuItem = "MANUAL"
	ItemTarget   MenuItem = "TARGET"
	ItemSettings MenuItem = "SETTINGS"
	ItemAbout    MenuItem = "ABOUT"

	ItemLanguage MenuItem = "LANGUAGE"
	ItemStep     MenuItem = "STEP"
	ItemDebounce MenuItem = "DEBOUNCE"
	ItemBack     MenuItem = "BACK"
)

// Menu contents, in display order.
var (
	MainMenu     = []MenuItem{ItemAuto, ItemManual, ItemTarget, ItemSettings, ItemAbout}
	SettingsMenu = []MenuItem{ItemLanguage, ItemStep, ItemDebounce, ItemBack}
)

// Fixed test-mode tables.
var (
	AutoLadder = []int{0, 20, 40, 60, 80, 100}
	TargetRPMs = []int{500, 800, 1000, 1200, 1500, 2000, 2500, 3000}
)

// DefaultTargetIndex selects 1000 RPM on first entry to target mode.
const DefaultTargetIndex = 2

// Timing holds the elapsed-time thresholds of the state machine.
type Timing struct {
	Splash       time.Duration // SPLASH to MENU
	AutoStep     time.Duration // RUN_AUTO ladder advance
	SavedMessage time.Duration // MESSAGE_SAVED to SETTINGS_MENU
}

// DefaultTiming returns the reference timing.
func DefaultTiming() Timing {
	return Timing{
		Splash:       2000 * time.Millisecond,
		AutoStep:     5000 * time.Millisecond,
		SavedMessage: 1500 * time.Millisecond,
	}
}

// Counts tracks user activity since startup.
type Counts struct {
	NextPresses   int
	SelectPresses int
	TestRuns      int
	Saves         int
}

// HeartbeatData contains information for a heartbeat log line.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	State     State
	Counts    Counts
}

// View is a point-in-time copy of everything a renderer needs from the
// state machine.
type View struct {
	State      State
	StateSince time.Time

	MenuIndex     int
	SettingsIndex int
	OptionIndex   int // position in the active selector

	AutoIndex   int
	Ladder      []int // manual ladder, copied
	LadderIndex int
	TargetIndex int

	Language   string
	PWMStep    int
	DebounceMs int
}

// Item returns the highlighted main menu entry.
func (v View) Item() MenuItem {
	return MainMenu[v.MenuIndex]
}

// SettingsItem returns the highlighted settings menu entry.
func (v View) SettingsItem() MenuItem {
	return SettingsMenu[v.SettingsIndex]
}

// TargetRPM returns the selected target speed.
func (v View) TargetRPM() int {
	return TargetRPMs[v.TargetIndex]
}
