package entity

// Screen identifies which application screen is shown.
type Screen string

const (
	ScreenHome      Screen = "home"
	ScreenSetup     Screen = "setup"
	ScreenInterview Screen = "interview"
	ScreenResult    Screen = "result"
)

// AppState is the screen machine's view of the application. It is derived
// from, but not identical to, persisted session data.
type AppState struct {
	Screen                   Screen
	Settings                 *InterviewSettings
	Questions                []Question
	RecoveredFromPersistence bool
}

// NewAppState returns the initial state shown on mount and after reset.
func NewAppState() AppState {
	return AppState{Screen: ScreenHome}
}
