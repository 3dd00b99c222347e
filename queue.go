package renderqueue

import (
	"fmt"

	"github.com/gogpu/renderqueue/sortkey"
)

// QueueID names one of the fixed queues of a RenderQueue.
type QueueID uint8

const (
	// Opaque holds regular opaque geometry.
	Opaque QueueID = iota

	// OpaqueEmissive holds opaque geometry replayed in the emissive pass.
	OpaqueEmissive

	// Light holds light volumes.
	Light

	// Transparent holds blended geometry, replayed back-to-front.
	Transparent

	// QueueCount is the number of queues.
	QueueCount
)

var queueNames = [...]string{
	Opaque:         "Opaque",
	OpaqueEmissive: "OpaqueEmissive",
	Light:          "Light",
	Transparent:    "Transparent",
}

// String returns the queue name.
func (id QueueID) String() string {
	if id < QueueCount {
		return queueNames[id]
	}
	return fmt.Sprintf("Unknown(%d)", int(id))
}

// Class returns the sort-key class whose ordering rule the queue follows.
func (id QueueID) Class() sortkey.Class {
	if id == Transparent {
		return sortkey.Transparent
	}
	return sortkey.Opaque
}

// QueueState is the lifecycle state of a single queue within a frame.
//
// State Machine:
//
//	Empty -> Push -> Accumulating -> Sort -> Sorted -> Dispatch -> Dispatched
//	any state -> Reset -> Empty
type QueueState uint32

const (
	// QueueEmpty means nothing was pushed since the last reset.
	QueueEmpty QueueState = iota

	// QueueAccumulating means the queue accepts pushes.
	QueueAccumulating

	// QueueSorted means the queue is sorted and ready for dispatch.
	QueueSorted

	// QueueDispatched means at least one dispatch has run since the sort.
	QueueDispatched
)

// String returns the string representation of QueueState.
func (s QueueState) String() string {
	switch s {
	case QueueEmpty:
		return "Empty"
	case QueueAccumulating:
		return "Accumulating"
	case QueueSorted:
		return "Sorted"
	case QueueDispatched:
		return "Dispatched"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}
