package renderqueue

import "errors"

// Contract violations on the push side. These are raised as panics (wrapped
// with context) because they indicate a programming error in the producer.
var (
	// ErrZeroKey is raised when an instance key or sort key is 0.
	ErrZeroKey = errors.New("renderqueue: zero key")

	// ErrNilRoutine is raised when an entry has no render routine.
	ErrNilRoutine = errors.New("renderqueue: nil routine")

	// ErrQueueSealed is raised when pushing into a queue that has already
	// been sorted or dispatched this frame.
	ErrQueueSealed = errors.New("renderqueue: queue is sealed until reset")
)

// Dispatch-side errors, returned to the caller.
var (
	// ErrUnknownQueue is returned for a QueueID outside [0, QueueCount).
	ErrUnknownQueue = errors.New("renderqueue: unknown queue")

	// ErrNotSorted is returned when dispatching a queue that still accepts pushes.
	ErrNotSorted = errors.New("renderqueue: queue is not sorted")

	// ErrRangeOutOfBounds is returned when a dispatch range exceeds the queue.
	ErrRangeOutOfBounds = errors.New("renderqueue: range out of bounds")

	// ErrInvalidPartition is returned for a bad partition index or count.
	ErrInvalidPartition = errors.New("renderqueue: invalid partition")
)
