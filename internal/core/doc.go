// Package core provides the runtime tier: the cancellable Timer, the
// single-consumer Processor, and the StateMachine and PeriodicStateMachine
// built on top of them by composition.
//
// Every goroutine is owned by exactly one Timer or Processor and is joined by
// its Stop, so none outlives its owner once Stop returns.
package core
