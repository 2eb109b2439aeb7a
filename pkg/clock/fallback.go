package clock

import "time"

// origin carries Go's monotonic reading; time.Since on it ignores wall-clock steps.
var origin = time.Now()

func fallbackNow() time.Duration {
	return time.Since(origin)
}
