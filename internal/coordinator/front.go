// ABOUTME: Represents the head office's channel end for one branch agent.
// ABOUTME: Sends commands and pumps tagged replies into the coordinator's fan-in channel.

package coordinator

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/retailops/branchsim/internal/channel"
)

// Reply is one line received from a branch, tagged with its origin.
type Reply struct {
	Branch string
	Line   string
}

// Front is the coordinator-side handle for one branch: its identity and the
// head office's end of the channel pair. The coordinator owns Fronts only;
// branch state stays on the far side of the channel.
type Front struct {
	Name       string
	InstanceID string

	pair   channel.Pair
	logger *slog.Logger
}

// NewFront binds a branch name to the head office's channel end.
func NewFront(name string, pair channel.Pair, logger *slog.Logger) *Front {
	return &Front{
		Name:       name,
		InstanceID: uuid.New().String(),
		pair:       pair,
		logger:     logger.With("branch", name),
	}
}

// Send writes one command line to the branch.
func (f *Front) Send(cmd string) error {
	return f.pair.WriteLine(cmd)
}

// Close releases the head office's channel end.
func (f *Front) Close() error {
	return f.pair.Close()
}

// pump moves replies from this branch into the shared fan-in channel until
// the channel pair closes or ctx is cancelled. One pump per branch keeps
// per-branch reply order while letting branches interleave freely; a silent
// branch never stalls delivery from its siblings.
func (f *Front) pump(ctx context.Context, out chan<- Reply) {
	for {
		line, err := f.pair.ReadLine(ctx)
		if err != nil {
			if ctx.Err() == nil {
				f.logger.Debug("reply stream ended", "error", err)
			}
			return
		}

		select {
		case out <- Reply{Branch: f.Name, Line: line}:
		case <-ctx.Done():
			return
		}
	}
}
