package idle

import "errors"

var ErrNotClockedIn = errors.New("employee is not clocked in")
