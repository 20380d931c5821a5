// Package tray provides the system tray menu for formcheck.
package tray

import (
	"fmt"
	"sync"

	"github.com/ayusman/formcheck/internal/posture"
	"github.com/getlantern/systray"
)

// Tray is the system tray menu: an enable toggle, an exercise submenu and a
// read-only score line. It is an app.Sink so the score follows the pipeline.
type Tray struct {
	onToggle   func(enabled bool)
	onExercise func(ex posture.Exercise)
	onSettings func()
	onQuit     func()
	enabled    bool
	exercise   posture.Exercise
	score      string
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuToggle    *systray.MenuItem
	menuScore     *systray.MenuItem
	menuExercises map[posture.Exercise]*systray.MenuItem
}

// New creates a Tray showing enabled and ex as the initial state.
func New(enabled bool, ex posture.Exercise) *Tray {
	return &Tray{
		enabled:  enabled,
		exercise: ex,
		score:    scoreTitle(posture.Assessment{}, false),
	}
}

// OnToggle sets the callback for the enable toggle.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnExercise sets the callback for picking an exercise from the submenu.
func (t *Tray) OnExercise(fn func(ex posture.Exercise)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onExercise = fn
}

// OnSettings sets the callback function to be called when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// onReady is called when the system tray is ready.
func (t *Tray) onReady() {
	systray.SetTitle("formcheck")
	systray.SetTooltip("formcheck posture scoring")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle live scoring")
	systray.AddSeparator()

	menuExercise := systray.AddMenuItem("Exercise", "Choose what to score")
	t.menuExercises = make(map[posture.Exercise]*systray.MenuItem)
	for _, ex := range posture.Exercises() {
		item := menuExercise.AddSubMenuItem(ex.String(), "Score "+ex.String())
		if ex == t.exercise {
			item.Check()
		}
		t.menuExercises[ex] = item
		go t.watchExercise(ex, item)
	}

	t.menuScore = systray.AddMenuItem(t.score, "Latest assessment")
	t.menuScore.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit formcheck")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) watchExercise(ex posture.Exercise, item *systray.MenuItem) {
	for range item.ClickedCh {
		t.handleExercise(ex)
	}
}

func (t *Tray) onExit() {}

// Quit ends Run from outside the menu, e.g. on a signal.
func Quit() {
	systray.Quit()
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Scoring"
	}
	return "○ Paused"
}

// scoreTitle renders the read-only score line.
func scoreTitle(a posture.Assessment, ok bool) string {
	switch {
	case !ok:
		return "Score: -"
	case len(a.Cues) == 0:
		return fmt.Sprintf("Score: %d", a.Score)
	default:
		return fmt.Sprintf("Score: %d · %s", a.Score, a.Cues[0])
	}
}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleExercise moves the check mark and reports the new choice.
func (t *Tray) handleExercise(ex posture.Exercise) {
	t.mu.Lock()
	if ex == t.exercise {
		t.mu.Unlock()
		return
	}
	t.setExerciseLocked(ex)
	callback := t.onExercise
	t.mu.Unlock()

	if callback != nil {
		callback(ex)
	}
}

func (t *Tray) setExerciseLocked(ex posture.Exercise) {
	t.exercise = ex
	t.score = scoreTitle(posture.Assessment{}, false)
	for other, item := range t.menuExercises {
		if other == ex {
			item.Check()
		} else {
			item.Uncheck()
		}
	}
	if t.menuScore != nil {
		t.menuScore.SetTitle(t.score)
	}
}

// handleSettings handles the settings menu item click.
func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// Publish updates the score line. An assessment for another exercise means the
// selection changed elsewhere, so the check mark follows it.
func (t *Tray) Publish(a posture.Assessment) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !a.Exercise.Valid() {
		return
	}
	if a.Exercise != t.exercise {
		t.setExerciseLocked(a.Exercise)
	}
	t.score = scoreTitle(a, true)
	if t.menuScore != nil {
		t.menuScore.SetTitle(t.score)
	}
}

// SetExercise syncs the submenu after the exercise changed elsewhere.
func (t *Tray) SetExercise(ex posture.Exercise) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ex != t.exercise {
		t.setExerciseLocked(ex)
	}
}

// SetEnabled syncs the toggle after the enabled state changed elsewhere.
func (t *Tray) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// Exercise returns the exercise currently checked.
func (t *Tray) Exercise() posture.Exercise {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.exercise
}

// ScoreLine returns the text of the score line.
func (t *Tray) ScoreLine() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.score
}
