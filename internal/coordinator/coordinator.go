// ABOUTME: Head-office coordinator that fans commands out to branch agents and fans replies in.
// ABOUTME: Multiplexes all inbound channels so no slow or silent branch stalls the others.

package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/retailops/branchsim/internal/protocol"
	"github.com/retailops/branchsim/internal/script"
)

// ErrBranchAlreadyRegistered indicates a front with the same branch name exists.
var ErrBranchAlreadyRegistered = errors.New("branch already registered")

// ErrBranchNotFound indicates the named branch has no registered front.
var ErrBranchNotFound = errors.New("branch not found")

// replyBufferLines sizes the shared fan-in channel. Deep enough to absorb a
// full broadcast's worth of replies between drains.
const replyBufferLines = 64

// RunOptions bound the coordinator's protocol run.
type RunOptions struct {
	// Observe is how long replies are drained after the script is sent,
	// before shutdown is requested.
	Observe time.Duration

	// Grace is the longest the coordinator waits for shutdown
	// acknowledgements after broadcasting EXIT. It finishes early once
	// every branch has acknowledged.
	Grace time.Duration
}

// Coordinator owns the head-office end of every branch channel. It issues
// commands to individual branches or all of them, and drains replies from
// all branches concurrently through one fan-in channel.
type Coordinator struct {
	mu     sync.RWMutex
	fronts map[string]*Front
	order  []string

	replies chan Reply
	onReply func(Reply)

	runID  string
	logger *slog.Logger
}

// New creates a Coordinator. Each drained reply is passed to onReply; a nil
// handler logs replies instead.
func New(logger *slog.Logger, onReply func(Reply)) *Coordinator {
	return &Coordinator{
		fronts:  make(map[string]*Front),
		replies: make(chan Reply, replyBufferLines),
		onReply: onReply,
		runID:   uuid.New().String(),
		logger:  logger.With("component", "coordinator"),
	}
}

// Register adds a branch front. Returns ErrBranchAlreadyRegistered if a
// front with the same name exists.
func (c *Coordinator) Register(f *Front) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.fronts[f.Name]; exists {
		return ErrBranchAlreadyRegistered
	}

	c.fronts[f.Name] = f
	c.order = append(c.order, f.Name)
	c.logger.Info("branch registered",
		"branch", f.Name,
		"instance_id", f.InstanceID,
		"total_branches", len(c.fronts),
	)
	return nil
}

// Branches returns the registered branch names in registration order.
func (c *Coordinator) Branches() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, len(c.order))
	copy(names, c.order)
	return names
}

// Send writes one command to the named branch.
func (c *Coordinator) Send(branch, cmd string) error {
	c.mu.RLock()
	f, ok := c.fronts[branch]
	c.mu.RUnlock()

	if !ok {
		return ErrBranchNotFound
	}
	return f.Send(cmd)
}

// Broadcast sends one command to every branch in registration order. Write
// failures are local to a branch and logged, never fatal to the broadcast.
func (c *Coordinator) Broadcast(cmd string) {
	for _, f := range c.snapshotFronts() {
		if err := f.Send(cmd); err != nil {
			c.logger.Warn("broadcast write failed", "branch", f.Name, "error", err)
		}
	}
}

// snapshotFronts copies the fronts in registration order under the read lock.
func (c *Coordinator) snapshotFronts() []*Front {
	c.mu.RLock()
	defer c.mu.RUnlock()

	fronts := make([]*Front, 0, len(c.order))
	for _, name := range c.order {
		fronts = append(fronts, c.fronts[name])
	}
	return fronts
}

// Run drives one full protocol session: start the reply pumps, handshake,
// play the script, drain replies for the observation window, then broadcast
// EXIT and wait out the grace period — finishing early once every branch
// has acknowledged shutdown. All channel ends are released before Run
// returns.
func (c *Coordinator) Run(ctx context.Context, steps []script.Step, opts RunOptions) error {
	fronts := c.snapshotFronts()

	pumpCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for _, f := range fronts {
		wg.Add(1)
		go func(f *Front) {
			defer wg.Done()
			f.pump(pumpCtx, c.replies)
		}(f)
	}

	c.logger.Info("session started", "run_id", c.runID, "branches", len(fronts))
	c.Broadcast(protocol.VerbHello)

	for _, step := range steps {
		if step.Branch == "" {
			c.Broadcast(step.Command)
			continue
		}
		if err := c.Send(step.Branch, step.Command); err != nil {
			c.logger.Warn("script step skipped", "branch", step.Branch, "error", err)
		}
	}

	if err := c.drainWindow(ctx, opts.Observe); err != nil {
		c.closeAll(fronts, cancel, &wg)
		return err
	}

	c.logger.Info("requesting graceful shutdown")
	c.Broadcast(protocol.VerbExit)
	err := c.drainShutdown(ctx, opts.Grace, fronts)

	c.closeAll(fronts, cancel, &wg)
	c.logger.Info("session finished", "run_id", c.runID)
	return err
}

// drainWindow delivers replies until the observation deadline elapses.
func (c *Coordinator) drainWindow(ctx context.Context, window time.Duration) error {
	deadline := time.NewTimer(window)
	defer deadline.Stop()

	for {
		select {
		case r := <-c.replies:
			c.deliver(r)
		case <-deadline.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// drainShutdown delivers remaining replies until every branch has
// acknowledged EXIT or the grace period runs out. A branch that stays
// silent only costs the grace period, never a hang.
func (c *Coordinator) drainShutdown(ctx context.Context, grace time.Duration, fronts []*Front) error {
	pending := make(map[string]bool, len(fronts))
	for _, f := range fronts {
		pending[f.Name] = true
	}

	deadline := time.NewTimer(grace)
	defer deadline.Stop()

	for len(pending) > 0 {
		select {
		case r := <-c.replies:
			c.deliver(r)
			if strings.HasSuffix(r.Line, protocol.ShutdownReply) {
				delete(pending, r.Branch)
			}
		case <-deadline.C:
			for name := range pending {
				c.logger.Warn("branch did not acknowledge shutdown", "branch", name)
			}
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// deliver hands one tagged reply to the configured handler.
func (c *Coordinator) deliver(r Reply) {
	if c.onReply != nil {
		c.onReply(r)
		return
	}
	c.logger.Info("reply", "branch", r.Branch, "line", r.Line)
}

// closeAll releases every front's channel end and waits for the pumps.
func (c *Coordinator) closeAll(fronts []*Front, cancel context.CancelFunc, wg *sync.WaitGroup) {
	for _, f := range fronts {
		if err := f.Close(); err != nil {
			c.logger.Warn("closing branch channel", "branch", f.Name, "error", err)
		}
	}
	cancel()
	wg.Wait()
}
