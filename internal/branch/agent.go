// ABOUTME: Branch agent owning one State and one channel end to the head office.
// ABOUTME: Runs command handling, randomized background sales, and periodic autosave concurrently.

package branch

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/retailops/branchsim/internal/channel"
	"github.com/retailops/branchsim/internal/protocol"
)

// Status is the lifecycle phase of an Agent.
type Status int32

const (
	StatusStarting Status = iota
	StatusRunning
	StatusShuttingDown
	StatusStopped
)

// String returns the lowercase name of the status for logging.
func (s Status) String() string {
	switch s {
	case StatusStarting:
		return "starting"
	case StatusRunning:
		return "running"
	case StatusShuttingDown:
		return "shutting_down"
	case StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// SnapshotStore is the persistence an Agent needs: a durable key-value store
// scoped by branch identity. Implementations live in internal/store.
type SnapshotStore interface {
	// Load returns the persisted counters for the branch, reporting whether
	// a snapshot existed.
	Load(branch string) (Counters, bool, error)

	// Save overwrites the branch's snapshot wholesale.
	Save(branch string, c Counters) error
}

// Config holds the per-agent settings.
type Config struct {
	// Name identifies the branch and scopes its snapshots.
	Name string

	// SaleInterval is the background sales tick period.
	SaleInterval time.Duration

	// AutosaveInterval is the snapshot persistence tick period.
	AutosaveInterval time.Duration

	// Rand optionally injects a deterministic random source for tests.
	// When nil the agent seeds its own from the branch name and start time.
	Rand *rand.Rand
}

// Agent runs one branch: three concurrent activities sharing one State
// through its lock. The command loop reads lines from the head office and
// answers exactly one reply per command; the sales and autosave tickers run
// until shutdown is signaled.
type Agent struct {
	name   string
	state  *State
	pair   channel.Pair
	store  SnapshotStore
	rng    *rand.Rand
	logger *slog.Logger

	saleEvery time.Duration
	saveEvery time.Duration

	status atomic.Int32
}

// New creates an Agent bound to one channel end and one snapshot store.
func New(cfg Config, pair channel.Pair, store SnapshotStore, logger *slog.Logger) *Agent {
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(seedFor(cfg.Name)))
	}
	if cfg.SaleInterval <= 0 {
		cfg.SaleInterval = 300 * time.Millisecond
	}
	if cfg.AutosaveInterval <= 0 {
		cfg.AutosaveInterval = 800 * time.Millisecond
	}

	return &Agent{
		name:      cfg.Name,
		pair:      pair,
		store:     store,
		rng:       rng,
		logger:    logger.With("branch", cfg.Name),
		saleEvery: cfg.SaleInterval,
		saveEvery: cfg.AutosaveInterval,
	}
}

// seedFor derives a per-branch seed from the branch identity and start time
// so sibling branches diverge even when started in the same nanosecond.
func seedFor(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return int64(h.Sum64()) ^ time.Now().UnixNano()
}

// Status returns the agent's current lifecycle phase.
func (a *Agent) Status() Status {
	return Status(a.status.Load())
}

func (a *Agent) setStatus(s Status) {
	a.status.Store(int32(s))
}

// Run executes the agent until EXIT is received, the channel fails, or ctx
// is cancelled. On every exit path the background tickers are stopped and
// awaited, a final snapshot is written, and the channel end is closed.
func (a *Agent) Run(ctx context.Context) error {
	a.loadState()
	a.setStatus(StatusRunning)
	a.logger.Info("branch open", "counters", a.state.Snapshot())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		a.salesLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		a.autosaveLoop(ctx)
	}()

	err := a.commandLoop(ctx)

	a.setStatus(StatusShuttingDown)
	cancel()
	wg.Wait()

	if saveErr := a.store.Save(a.name, a.state.Snapshot()); saveErr != nil {
		a.logger.Error("final snapshot failed", "error", saveErr)
	}
	if closeErr := a.pair.Close(); closeErr != nil {
		a.logger.Warn("closing channel", "error", closeErr)
	}

	a.setStatus(StatusStopped)
	a.logger.Info("branch closed")
	return err
}

// loadState initializes the branch from a persisted snapshot when one
// exists, falling back to defaults on a miss or a load failure.
func (a *Agent) loadState() {
	c, ok, err := a.store.Load(a.name)
	if err != nil {
		a.logger.Warn("snapshot load failed, using defaults", "error", err)
		c = DefaultCounters()
	} else if !ok {
		c = DefaultCounters()
	}
	a.state = NewState(c)
}

// commandLoop blocks on the inbound channel and dispatches one command at a
// time, sending exactly one reply line per received command. Returns nil on
// EXIT or cancellation; a channel failure is returned to the caller after
// triggering the shutdown path.
func (a *Agent) commandLoop(ctx context.Context) error {
	for {
		line, err := a.pair.ReadLine(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, channel.ErrClosed) {
				return nil
			}
			a.logger.Error("channel read failed", "error", err)
			return err
		}

		cmd := protocol.Parse(line)
		reply := a.handle(cmd)
		if werr := a.pair.WriteLine(protocol.Tag(a.name, reply)); werr != nil {
			a.logger.Error("channel write failed", "error", werr)
			return werr
		}

		if cmd.Verb == protocol.VerbExit {
			return nil
		}
	}
}

// handle applies one parsed command to the state and returns the reply text.
// Business-rule failures (insufficient stock) and protocol errors (unknown
// or malformed lines) are both normal replies, never errors.
func (a *Agent) handle(cmd protocol.Command) string {
	switch cmd.Verb {
	case protocol.VerbHello:
		return fmt.Sprintf("Hello from %s.", a.name)

	case protocol.VerbGetStock:
		c := a.state.Snapshot()
		return fmt.Sprintf("Stock -> shirts=%d, jeans=%d", c.Shirts, c.Jeans)

	case protocol.VerbRestock:
		item, qty := cmd.Args[0], protocol.ParseQty(cmd.Args[1])
		a.state.Restock(item, qty)
		return fmt.Sprintf("Restocked %s by %d.", item, qty)

	case protocol.VerbSale:
		item, qty := cmd.Args[0], protocol.ParseQty(cmd.Args[1])
		if a.state.Sell(item, qty) {
			return fmt.Sprintf("Sale recorded: %s %d.", item, qty)
		}
		return fmt.Sprintf("Sale failed for %s %d (insufficient stock or bad item).", item, qty)

	case protocol.VerbGetSales:
		c := a.state.Snapshot()
		return fmt.Sprintf("Sales -> shirts=%d, jeans=%d", c.SalesShirts, c.SalesJeans)

	case protocol.VerbHire:
		return fmt.Sprintf("Hired %s. Staff now %d.", cmd.Args[0], a.state.Hire())

	case protocol.VerbGetStaff:
		return fmt.Sprintf("Staff count -> %d", a.state.Snapshot().Staff)

	case protocol.VerbGetSummary:
		c := a.state.Snapshot()
		return fmt.Sprintf("Summary :: stock(shirts=%d, jeans=%d), staff=%d, sales(shirts=%d, jeans=%d)",
			c.Shirts, c.Jeans, c.Staff, c.SalesShirts, c.SalesJeans)

	case protocol.VerbExit:
		return protocol.ShutdownReply

	default:
		return fmt.Sprintf("Unknown or malformed command: %s", cmd.Raw)
	}
}

// salesLoop applies randomized walk-in sales on a fixed period until
// shutdown is signaled.
func (a *Agent) salesLoop(ctx context.Context) {
	ticker := time.NewTicker(a.saleEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.state.ApplyRandomSale(a.rng)
		}
	}
}

// autosaveLoop persists a snapshot on a fixed period. A failed save is
// logged and retried on the next tick; the final authoritative save happens
// in Run after shutdown.
func (a *Agent) autosaveLoop(ctx context.Context) {
	ticker := time.NewTicker(a.saveEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.store.Save(a.name, a.state.Snapshot()); err != nil {
				a.logger.Warn("autosave failed, will retry", "error", err)
			}
		}
	}
}
