// Package coordinator implements the head office: fan-out of commands to N
// branch agents and fan-in of their asynchronous replies.
//
// # Fronts
//
// A Front is the coordinator's handle for one branch — the head office's
// end of the channel pair plus the branch identity. The coordinator never
// touches branch state directly; everything crosses the channel as text.
//
// # Reply multiplexing
//
// Each Front runs one pump goroutine that pushes tagged replies into a
// shared fan-in channel. Replies from one branch arrive in the order that
// branch sent them; across branches there is no ordering guarantee and the
// drain loop tolerates arbitrary interleaving. Because every branch has its
// own pump, a slow or silent branch never delays delivery from another.
//
// # Session shape
//
// Run drives a session end to end: HELLO handshake, scripted commands,
// a bounded observation window of reply draining, then an EXIT broadcast
// followed by a grace period that ends early once every branch has
// acknowledged shutdown.
package coordinator
