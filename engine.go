package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/btcsuite/btclog"
	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/ticker"
	"github.com/mwcproject/mwc-swap/nodeclient"
	"github.com/mwcproject/mwc-swap/swap"
	"github.com/mwcproject/mwc-swap/swapdb"
	"github.com/mwcproject/mwc-swap/swaperr"
)

// engineLog is the Engine's subsystem logger, following the same
// UseLogger(btclog.Disabled)-until-wired convention as every other package
// in this codebase.
var engineLog btclog.Logger

func init() {
	UseEngineLogger(btclog.Disabled)
}

// UseEngineLogger sets the Engine's logger.
func UseEngineLogger(logger btclog.Logger) {
	engineLog = logger
}

// swapHandle wraps one in-memory Swap with the mutex that makes it a
// single-owner mutable record (spec.md §5): every API call against the same
// swap serializes through Lock/Unlock, but no network or node I/O happens
// while the lock is held.
type swapHandle struct {
	mu   sync.Mutex
	swap *swap.Swap
}

// Engine drives a registry of concurrently-active swaps, in the spirit of
// htlcswitch.Switch's linkIndex: a lock-guarded map plus per-entry
// synchronization, rather than one global lock shared across every swap in
// flight.
type Engine struct {
	db     *swapdb.DB
	node   nodeclient.Client
	poller ticker.Ticker

	mu      sync.RWMutex
	handles map[uuid.UUID]*swapHandle

	quit chan struct{}
	wg   sync.WaitGroup
}

// NewEngine constructs an Engine backed by db for persistence and node for
// chain observations. poller drives the periodic refresh loop; pass nil to
// use a 30-second lnd/ticker.Ticker.
func NewEngine(db *swapdb.DB, node nodeclient.Client, poller ticker.Ticker) *Engine {
	if poller == nil {
		poller = ticker.New(30 * time.Second)
	}
	return &Engine{
		db:      db,
		node:    node,
		poller:  poller,
		handles: make(map[uuid.UUID]*swapHandle),
		quit:    make(chan struct{}),
	}
}

// Register adds s to the registry, persisting it immediately so a restart
// before the next poll tick can still recover it.
func (e *Engine) Register(s *swap.Swap) error {
	if err := e.db.PutSwap(s); err != nil {
		return fmt.Errorf("register swap %s: %w", s.ID, err)
	}

	e.mu.Lock()
	e.handles[s.ID] = &swapHandle{swap: s}
	e.mu.Unlock()
	return nil
}

// Forget removes a swap from the in-memory registry without touching
// persistence, e.g. once its terminal status has been durably recorded and
// the caller's own archival step has run.
func (e *Engine) Forget(id uuid.UUID) {
	e.mu.Lock()
	delete(e.handles, id)
	e.mu.Unlock()
}

// WithSwap runs fn against the swap with the given ID, holding that swap's
// own lock for the duration and persisting the result afterward. No other
// swap's handle is touched, so concurrent calls against different swaps
// never contend (spec.md §5).
func (e *Engine) WithSwap(id uuid.UUID, fn func(s *swap.Swap) error) error {
	e.mu.RLock()
	h, ok := e.handles[id]
	e.mu.RUnlock()
	if !ok {
		return fmt.Errorf("swap %s is not registered with this engine", id)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := fn(h.swap); err != nil {
		return swaperr.Wrap(err)
	}
	return e.db.PutSwap(h.swap)
}

// Start begins the background poll loop, which calls RefreshAll on every
// tick until Stop is called.
func (e *Engine) Start() {
	e.poller.Resume()
	e.wg.Add(1)
	go e.pollLoop()
}

// Stop halts the poll loop and waits for it to exit.
func (e *Engine) Stop() {
	close(e.quit)
	e.wg.Wait()
	e.poller.Stop()
}

func (e *Engine) pollLoop() {
	defer e.wg.Done()
	for {
		select {
		case <-e.poller.Ticks():
			e.RefreshAll()
		case <-e.quit:
			return
		}
	}
}

// RefreshAll calls the action advisor for every registered swap against the
// current chain tip, logging the recommended next action. Chain I/O
// (GetChainTip) happens once, outside any per-swap lock; only the brief
// advisor computation happens under lock.
func (e *Engine) RefreshAll() {
	tip, _, err := e.node.GetChainTip()
	if err != nil {
		engineLog.Errorf("engine: GetChainTip: %v", err)
		return
	}

	e.mu.RLock()
	ids := make([]uuid.UUID, 0, len(e.handles))
	for id := range e.handles {
		ids = append(ids, id)
	}
	e.mu.RUnlock()

	for _, id := range ids {
		err := e.WithSwap(id, func(s *swap.Swap) error {
			if swap.AdviseRefund(s, tip) {
				engineLog.Infof("swap %s: refund path is open at tip %d", s.ID, tip)
				return nil
			}
			result := swap.Advise(s, swap.ChainObservations{Tip: tip})
			engineLog.Debugf("swap %s: advisor recommends %s", s.ID, result.Action)
			if result.Action == swap.ActionComplete {
				if s.Role == swap.RoleSeller {
					return swap.SellApi{}.Completed(s)
				}
				return swap.BuyApi{}.Completed(s)
			}
			return nil
		})
		if err != nil {
			engineLog.Errorf("engine: refresh swap %s: %v", id, err)
		}
	}
}
