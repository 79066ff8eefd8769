// Package task defines the task record, its status enumeration, and the
// collection type persisted by the store.
//
// A persisted collection is a JSON array of records:
//
//	[
//	  {
//	    "id": 1,
//	    "description": "buy milk",
//	    "status": "todo",
//	    "createdAt": "2024-01-01T09:30:00.123456789Z",
//	    "updatedAt": "2024-01-01T09:30:00.123456789Z"
//	  }
//	]
//
// # Task Status Values
//
//   - "todo": Task is pending (initial status)
//   - "in_progress": Task is being worked on
//   - "done": Task is complete
//
// Any status may move to any other status. There is no terminal status.
//
// # Collections
//
// Collection methods never modify the receiver. Every mutation returns a new
// collection value, so a loaded collection can be reused safely.
//
// # Identifiers
//
// NextID allocates max(existing ids)+1, or 1 for an empty collection.
// Identifiers of deleted records are not reused while a larger id remains.
package task
