// Package events decouples the services that request background work from
// the task layer that performs it. A service emits a TaskRequestEvent
// through an EventEmitter; registered EventHandler implementations turn the
// event into a queued task. Neither side imports the other.
package events
