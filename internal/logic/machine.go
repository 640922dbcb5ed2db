package logic

import (
	"time"

	"github.com/pandafix/fan-tester/internal/settings"
)

// Machine is the application state machine. It is a pure function of its
// own state and the Input passed to Process.
type Machine struct {
	timing Timing
	state  State
	since  time.Time

	main     Cursor
	settings Cursor
	option   Cursor

	autoIdx      int
	lastAutoStep time.Time
	ladder       []int
	manual       Cursor
	target       Cursor

	cfg settings.Settings

	startTime     time.Time
	lastHeartbeat time.Time
	counts        Counts
}

// NewMachine creates a machine in SPLASH. cfg is the cached copy of the
// persisted settings; the machine keeps it current as it emits SAVE actions.
func NewMachine(timing Timing, cfg settings.Settings, startTime time.Time) *Machine {
	return &Machine{
		timing:        timing,
		state:         StateSplash,
		since:         startTime,
		main:          NewCursor(len(MainMenu), 0),
		settings:      NewCursor(len(SettingsMenu), 0),
		target:        NewCursor(len(TargetRPMs), DefaultTargetIndex),
		cfg:           cfg,
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Process consumes one logic tick and returns the actions to apply, in
// order. Next is evaluated before Select; if Next changed the state, Select
// is discarded for this tick. Timers are checked after the events.
func (m *Machine) Process(in Input) []Action {
	now := in.Time
	var actions []Action

	if in.Next {
		m.counts.NextPresses++
	}
	if in.Select {
		m.counts.SelectPresses++
	}

	before := m.state
	if in.Next {
		actions = append(actions, m.onNext(now)...)
	}
	if in.Select && m.state == before {
		actions = append(actions, m.onSelect(now)...)
	}

	actions = append(actions, m.onTimers(now)...)
	return actions
}

func (m *Machine) onNext(now time.Time) []Action {
	switch m.state {
	case StateMenu:
		m.main.Next()
	case StateSettingsMenu:
		m.settings.Next()
	case StateSelectLanguage, StateSelectStep, StateSelectDebounce:
		m.option.Next()
	case StateAbout, StateRunAuto, StateRunManual, StateRunTarget:
		return m.enter(StateMenu, now)
	}
	// SPLASH and MESSAGE_SAVED ignore events.
	return nil
}

func (m *Machine) onSelect(now time.Time) []Action {
	switch m.state {
	case StateMenu:
		switch MainMenu[m.main.Index()] {
		case ItemAuto:
			return m.enter(StateRunAuto, now)
		case ItemManual:
			return m.enter(StateRunManual, now)
		case ItemTarget:
			return m.enter(StateRunTarget, now)
		case ItemSettings:
			return m.enter(StateSettingsMenu, now)
		case ItemAbout:
			return m.enter(StateAbout, now)
		}

	case StateSettingsMenu:
		switch SettingsMenu[m.settings.Index()] {
		case ItemLanguage:
			return m.enter(StateSelectLanguage, now)
		case ItemStep:
			return m.enter(StateSelectStep, now)
		case ItemDebounce:
			return m.enter(StateSelectDebounce, now)
		case ItemBack:
			return m.enter(StateMenu, now)
		}

	case StateSelectLanguage:
		lang := settings.Languages[m.option.Index()]
		m.cfg.Language = lang
		m.counts.Saves++
		return append([]Action{{Type: ActionSaveLanguage, Language: lang}}, m.enter(StateMessageSaved, now)...)

	case StateSelectStep:
		step := settings.StepOptions[m.option.Index()]
		m.cfg.PWMStep = step
		m.counts.Saves++
		return append([]Action{{Type: ActionSaveStep, Value: step}}, m.enter(StateMessageSaved, now)...)

	case StateSelectDebounce:
		ms := settings.DebounceOptions[m.option.Index()]
		m.cfg.DebounceMs = ms
		m.counts.Saves++
		return append([]Action{{Type: ActionSaveDebounce, Value: ms}}, m.enter(StateMessageSaved, now)...)

	case StateAbout:
		return m.enter(StateMenu, now)

	case StateRunManual:
		return []Action{setDuty(m.ladder[m.manual.Next()])}

	case StateRunTarget:
		return []Action{{Type: ActionSetTarget, Value: TargetRPMs[m.target.Next()]}}
	}
	// SPLASH, MESSAGE_SAVED and RUN_AUTO ignore Select.
	return nil
}

func (m *Machine) onTimers(now time.Time) []Action {
	elapsed := now.Sub(m.since)
	switch m.state {
	case StateSplash:
		if elapsed >= m.timing.Splash {
			return m.enter(StateMenu, now)
		}
	case StateMessageSaved:
		if elapsed > m.timing.SavedMessage {
			return m.enter(StateSettingsMenu, now)
		}
	case StateRunAuto:
		if now.Sub(m.lastAutoStep) > m.timing.AutoStep {
			m.autoIdx = (m.autoIdx + 1) % len(AutoLadder)
			m.lastAutoStep = now
			return []Action{setDuty(AutoLadder[m.autoIdx])}
		}
	}
	return nil
}

// enter switches to next and returns the entry actions of that state.
func (m *Machine) enter(next State, now time.Time) []Action {
	prev := m.state
	m.state = next
	m.since = now

	switch next {
	case StateMenu:
		return []Action{{Type: ActionDisableTarget}, setDuty(0)}

	case StateSettingsMenu:
		if prev == StateMenu {
			m.settings = NewCursor(len(SettingsMenu), 0)
		}

	case StateSelectLanguage:
		m.option = NewCursor(len(settings.Languages), settings.IndexOfString(settings.Languages, m.cfg.Language))
	case StateSelectStep:
		m.option = NewCursor(len(settings.StepOptions), settings.IndexOf(settings.StepOptions, m.cfg.PWMStep))
	case StateSelectDebounce:
		m.option = NewCursor(len(settings.DebounceOptions), settings.IndexOf(settings.DebounceOptions, m.cfg.DebounceMs))

	case StateRunAuto:
		m.counts.TestRuns++
		m.autoIdx = 0
		m.lastAutoStep = now
		return []Action{setDuty(AutoLadder[0])}

	case StateRunManual:
		m.counts.TestRuns++
		m.ladder = DutyLadder(m.cfg.PWMStep)
		m.manual = NewCursor(len(m.ladder), 1)
		return []Action{setDuty(m.ladder[m.manual.Index()])}

	case StateRunTarget:
		m.counts.TestRuns++
		return []Action{{Type: ActionSetTarget, Value: TargetRPMs[m.target.Index()]}}
	}
	return nil
}

func setDuty(p int) Action {
	return Action{Type: ActionSetDuty, Value: p}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Settings returns the cached settings.
func (m *Machine) Settings() settings.Settings {
	return m.cfg
}

// Counts returns the activity counters.
func (m *Machine) Counts() Counts {
	return m.counts
}

// View returns a copy of the renderer-visible state.
func (m *Machine) View() View {
	v := View{
		State:         m.state,
		StateSince:    m.since,
		MenuIndex:     m.main.Index(),
		SettingsIndex: m.settings.Index(),
		OptionIndex:   m.option.Index(),
		AutoIndex:     m.autoIdx,
		LadderIndex:   m.manual.Index(),
		TargetIndex:   m.target.Index(),
		Language:      m.cfg.Language,
		PWMStep:       m.cfg.PWMStep,
		DebounceMs:    m.cfg.DebounceMs,
	}
	if m.ladder != nil {
		v.Ladder = append([]int(nil), m.ladder...)
	}
	return v
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (m *Machine) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}
	if now.Sub(m.lastHeartbeat) < interval {
		return nil
	}

	m.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(m.startTime),
		State:     m.state,
		Counts:    m.counts,
	}
}
