package errorutil

import "errors"

// ErrUnbalancedCall is returned when an end is recorded with no matching
// pending start. It signals a defect in the instrumentation; the profiler's
// state must be treated as suspect until the next reset.
var ErrUnbalancedCall = errors.New("unbalanced call")

// ErrCursorAtRoot is returned when the tree cursor is asked to retract past
// the root.
var ErrCursorAtRoot = errors.New("cursor already at root")
