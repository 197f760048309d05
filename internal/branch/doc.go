// Package branch implements a single retail branch: its private state and
// the agent that owns it.
//
// # State
//
// State is the unit of correctness for concurrent access. Stock, staff, and
// cumulative sales live behind one mutex; every operation is check-and-apply
// inside a single critical section:
//
//   - Restock(item, qty): unconditional increment, unknown item is a no-op
//   - Sell(item, qty): commits only when stock covers the quantity
//   - Hire(): increments staff, returns the new count
//   - Snapshot(): atomic copy for persistence or reporting
//   - ApplyRandomSale(rng): background-only, one unit per lucky tick
//
// Stock can never go negative: the sell check and its effect share one lock
// hold, and background sales only fire while stock remains.
//
// # Agent
//
// Agent wires one State to one channel end and a snapshot store, then runs
// three concurrent activities against it:
//
//  1. the command loop, blocking on inbound lines and answering exactly one
//     reply per command
//  2. the background sales ticker (default 300ms)
//  3. the autosave ticker (default 800ms)
//
// Lifecycle: Starting -> Running -> ShuttingDown -> Stopped. EXIT (or a
// channel failure) stops the tickers, awaits them, writes a final snapshot,
// and closes the channel end. No error ever crosses the branch boundary;
// the head office only observes reply text or channel closure.
//
// Each agent seeds its own random source from the branch name and start
// time, so sibling branches diverge; tests inject a fixed-seed source
// through Config.Rand.
package branch
