// Package primitives provides the foundational data structures of the runtime:
// event identity, queue capacity, the blocking FIFO queue and machine configuration.
//
// Core invariants:
//   - Events compare and hash by EventID only.
//   - A Queue never holds more elements than its Capacity allows.
//   - DisableWait releases every consumer blocked in Pop.
package primitives
