// Package channel provides the line-framed channel pair connecting the head
// office to a branch agent. Consumers see only whole lines: blocking,
// cancellable reads on one side and newline-terminated writes on the other.
// NewMemoryPipe wires two in-process ends together; NewConnPair frames lines
// over any net.Conn for out-of-process transports.
package channel
