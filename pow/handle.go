package pow

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/continuum-labs/storachain/errs"
)

// pollInterval is how often the mining loop checks for cancellation.
const pollInterval = 4096

// terminalState identifies why a Handle stopped running.
type terminalState int

const (
	stateRunning terminalState = iota
	stateCompleted
	stateExhausted
	stateCancelled
	stateFailed
)

// Request configures an asynchronous mining run started by StartMining.
type Request struct {
	Seed            []byte
	Difficulty      float64
	MaxAttempts     uint64
	UseDoubleSHA256 bool
}

// Progress is a point-in-time snapshot of a running or finished Handle.
type Progress struct {
	Attempts          uint64
	CurrentNonce      uint64
	ElapsedMs         int64
	AttemptsPerSecond float64
}

// Handle tracks an in-flight or finished asynchronous mining run. All
// methods are safe for concurrent use. Grounded on the teacher's
// clients/go/crypto/hsm_monitor.go HSMMonitor: an atomic state word plus a
// mutex guarding the terminal transition, with counters published through
// atomics so readers never block the worker.
type Handle struct {
	req       Request
	logger    zerolog.Logger
	attempts  atomic.Uint64
	nonce     atomic.Uint64
	cancelled atomic.Bool
	startedAt time.Time

	mu     sync.Mutex
	state  terminalState
	result *Result
	err    error
	taken  bool
	done   chan struct{}
}

// StartMining validates req and launches the search loop in a new goroutine.
func StartMining(req Request, logger zerolog.Logger) (*Handle, error) {
	if _, err := TargetFromDifficulty(req.Difficulty); err != nil {
		return nil, err
	}

	h := &Handle{
		req:       req,
		logger:    logger,
		startedAt: time.Now(),
		state:     stateRunning,
		done:      make(chan struct{}),
	}
	go h.run()
	return h, nil
}

func (h *Handle) run() {
	target, err := TargetFromDifficulty(h.req.Difficulty)
	if err != nil {
		h.finish(stateFailed, nil, err)
		return
	}

	for nonce := uint64(0); nonce < h.req.MaxAttempts; nonce++ {
		if nonce%pollInterval == 0 && h.cancelled.Load() {
			h.finish(stateCancelled, nil, errs.New(errs.Cancelled, "mining cancelled at nonce %d", nonce))
			return
		}

		hash := preimageHash(h.req.Seed, nonce, h.req.UseDoubleSHA256)
		h.attempts.Store(nonce + 1)
		h.nonce.Store(nonce)

		if meetsTarget(hash, target) {
			res := &Result{
				Nonce:      nonce,
				Hash:       hash,
				Attempts:   nonce + 1,
				ElapsedMs:  time.Since(h.startedAt).Milliseconds(),
				Difficulty: h.req.Difficulty,
				Target:     target,
			}
			h.finish(stateCompleted, res, nil)
			return
		}
	}

	h.finish(stateExhausted, nil, errs.Exhaustion(h.req.MaxAttempts))
}

func (h *Handle) finish(state terminalState, res *Result, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != stateRunning {
		return
	}
	h.state = state
	h.result = res
	h.err = err
	h.logger.Debug().
		Str("terminal_state", state.String()).
		Uint64("attempts", h.attempts.Load()).
		Msg("mining run finished")
	close(h.done)
}

// Cancel requests that the search loop stop at its next poll point. It is
// idempotent and safe to call from any goroutine, including after the run
// has already finished.
func (h *Handle) Cancel() {
	h.cancelled.Store(true)
}

// IsCancelled reports whether Cancel has been called, regardless of whether
// the cancellation has been observed by the worker yet.
func (h *Handle) IsCancelled() bool {
	return h.cancelled.Load()
}

// IsCompleted reports whether the run has reached any terminal state.
func (h *Handle) IsCompleted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state != stateRunning
}

// HasError reports whether the run ended in exhaustion, cancellation, or
// failure rather than success.
func (h *Handle) HasError() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state != stateRunning && h.state != stateCompleted
}

// GetError returns the terminal error, or nil if still running or
// successful.
func (h *Handle) GetError() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// GetResult returns the successful Result exactly once. Subsequent calls,
// or calls when the run did not succeed, return errs.NoData.
func (h *Handle) GetResult() (*Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != stateCompleted || h.taken {
		return nil, errs.New(errs.NoData, "no unclaimed successful result available")
	}
	h.taken = true
	return h.result, nil
}

// GetProgress returns a snapshot of the run's counters.
func (h *Handle) GetProgress() Progress {
	attempts := h.attempts.Load()
	elapsed := time.Since(h.startedAt)
	var rate float64
	if elapsed > 0 {
		rate = float64(attempts) / elapsed.Seconds()
	}
	return Progress{
		Attempts:          attempts,
		CurrentNonce:      h.nonce.Load(),
		ElapsedMs:         elapsed.Milliseconds(),
		AttemptsPerSecond: rate,
	}
}

// GetDifficulty returns the difficulty this handle is mining at.
func (h *Handle) GetDifficulty() float64 {
	return h.req.Difficulty
}

// Wait blocks until the run reaches a terminal state. It returns the
// successful Result, or the terminal error (exhaustion, cancellation or
// failure) if the run did not succeed. It does not consume the result that
// GetResult hands out once.
func (h *Handle) Wait() (*Result, error) {
	<-h.done
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != stateCompleted {
		return nil, h.err
	}
	return h.result, nil
}

func (s terminalState) String() string {
	switch s {
	case stateRunning:
		return "RUNNING"
	case stateCompleted:
		return "COMPLETED"
	case stateExhausted:
		return "EXHAUSTED"
	case stateCancelled:
		return "CANCELLED"
	case stateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}
