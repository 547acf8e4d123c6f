package activity

import "time"

// ActivityWindow is one unit of measured production work, as reported by the
// production feed. Windows of one employee never overlap.
type ActivityWindow struct {
	ID          string
	EmployeeID  string
	RoleID      string
	ItemsCount  int
	WindowStart time.Time
	WindowEnd   time.Time
}

func (w ActivityWindow) Duration() time.Duration {
	if w.WindowEnd.Before(w.WindowStart) {
		return 0
	}
	return w.WindowEnd.Sub(w.WindowStart)
}

// Latest returns the window with the greatest end among windows ending after
// notBefore.
func Latest(windows []ActivityWindow, notBefore time.Time) (ActivityWindow, bool) {
	var (
		latest ActivityWindow
		found  bool
	)
	for _, w := range windows {
		if !w.WindowEnd.After(notBefore) {
			continue
		}
		if !found || w.WindowEnd.After(latest.WindowEnd) {
			latest = w
			found = true
		}
	}
	return latest, found
}
