package worker

import (
	"context"
	"errors"
	"time"

	"sdchanger-go/services/hal/internal/halcore"
	"sdchanger-go/services/hal/internal/util"
)

// MeasureWorker runs every Trigger/Collect for the adaptors on one I²C bus,
// so transactions on that bus never overlap.
type MeasureWorker struct {
	cfg  halcore.WorkerConfig
	reqQ chan halcore.MeasureReq
	sink chan<- halcore.Result // fan-in sink owned by service

	pending map[string]*collectItem // id -> in-flight read
	again   map[string]bool         // prio request arrived while in flight
	timer   *time.Timer
}

type collectItem struct {
	id      string
	adaptor halcore.Adaptor
	due     time.Time
	retries int
}

func New(cfg halcore.WorkerConfig, sink chan<- halcore.Result) *MeasureWorker {
	if cfg.TriggerTimeout <= 0 {
		cfg.TriggerTimeout = 100 * time.Millisecond
	}
	if cfg.CollectTimeout <= 0 {
		cfg.CollectTimeout = 250 * time.Millisecond
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 15 * time.Millisecond
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 6
	}
	if cfg.InputQueueSize <= 0 {
		cfg.InputQueueSize = 16
	}
	return &MeasureWorker{
		cfg:     cfg,
		reqQ:    make(chan halcore.MeasureReq, cfg.InputQueueSize),
		sink:    sink,
		pending: map[string]*collectItem{},
		again:   map[string]bool{},
		timer:   time.NewTimer(time.Hour),
	}
}

// Submit queues a request without blocking. Prio requests wait briefly for
// queue space.
func (w *MeasureWorker) Submit(req halcore.MeasureReq) bool {
	select {
	case w.reqQ <- req:
		return true
	default:
	}
	if !req.Prio {
		return false
	}
	select {
	case w.reqQ <- req:
		return true
	case <-time.After(5 * time.Millisecond):
		return false
	}
}

func (w *MeasureWorker) Start(ctx context.Context) {
	if !w.timer.Stop() {
		util.DrainTimer(w.timer)
	}
	go w.run(ctx)
}

func (w *MeasureWorker) run(ctx context.Context) {
	for {
		if next := w.minDue(); next.IsZero() {
			util.ResetTimer(w.timer, time.Hour)
		} else {
			util.ResetTimer(w.timer, time.Until(next))
		}
		select {
		case <-ctx.Done():
			return
		case req := <-w.reqQ:
			if _, busy := w.pending[req.ID]; busy {
				if req.Prio {
					w.again[req.ID] = true
				}
				continue
			}
			w.trigger(ctx, &collectItem{id: req.ID, adaptor: req.Adaptor})
		case <-w.timer.C:
			w.collectDue(ctx, time.Now())
		}
	}
}

// trigger starts a read and schedules its collect. Failures are emitted.
func (w *MeasureWorker) trigger(ctx context.Context, it *collectItem) {
	tctx, cancel := context.WithTimeout(ctx, w.cfg.TriggerTimeout)
	after, err := it.adaptor.Trigger(tctx)
	cancel()
	if err != nil {
		w.emit(ctx, halcore.Result{ID: it.id, Err: err})
		return
	}
	it.retries = 0
	it.due = time.Now().Add(after)
	w.pending[it.id] = it
}

func (w *MeasureWorker) collectDue(ctx context.Context, now time.Time) {
	for id, it := range w.pending {
		if now.Before(it.due) {
			continue
		}
		cctx, cancel := context.WithTimeout(ctx, w.cfg.CollectTimeout)
		s, err := it.adaptor.Collect(cctx)
		cancel()

		if errors.Is(err, halcore.ErrNotReady) && it.retries < w.cfg.MaxRetries {
			it.retries++
			it.due = now.Add(w.cfg.RetryBackoff)
			continue
		}
		delete(w.pending, id)
		w.emit(ctx, halcore.Result{ID: id, Sample: s, Err: err})

		// A prio request that arrived mid-read gets a fresh reading.
		if w.again[id] {
			delete(w.again, id)
			w.trigger(ctx, it)
		}
	}
}

func (w *MeasureWorker) emit(ctx context.Context, r halcore.Result) {
	select {
	case w.sink <- r:
	case <-ctx.Done():
	}
}

func (w *MeasureWorker) minDue() time.Time {
	var min time.Time
	for _, it := range w.pending {
		if min.IsZero() || it.due.Before(min) {
			min = it.due
		}
	}
	return min
}
