package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/99minutos/dashboard-roles/internal/api/metrics"
	"github.com/99minutos/dashboard-roles/internal/core/domain"
	"github.com/99minutos/dashboard-roles/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 64
)

// Dispatcher runs remote role writes off the request path. Writes are routed
// to a fixed set of workers by hashing the subject, so writes for the same
// subject are applied in the order they were selected.
type Dispatcher struct {
	workers []chan domain.RoleWrite
	syncer  ports.RoleSyncer
	log     zerolog.Logger
	ctx     context.Context
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers that
// delegate to syncer. If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, syncer ports.RoleSyncer, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.RoleWrite, numWorkers),
		syncer:  syncer,
		log:     log,
		ctx:     context.Background(),
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.RoleWrite, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled;
// in-flight writes run with ctx, not with the request that enqueued them.
// Start must be called once, before the first Sync; it is not safe to call
// concurrently with Sync.
func (d *Dispatcher) Start(ctx context.Context) {
	d.ctx = ctx
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Sync enqueues w for its subject's worker. It waits for buffer space until
// ctx is done, in which case the write is dropped.
func (d *Dispatcher) Sync(ctx context.Context, w domain.RoleWrite) {
	idx := d.shardIndex(w.Subject)
	select {
	case d.workers[idx] <- w:
		metrics.SyncQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	case <-ctx.Done():
		metrics.RoleWritesTotal.WithLabelValues("dropped").Inc()
		d.log.Warn().Err(ctx.Err()).Str("subject", w.Subject).Msg("role write dropped, sync queue full")
	case <-d.ctx.Done():
		metrics.RoleWritesTotal.WithLabelValues("dropped").Inc()
		d.log.Warn().Str("subject", w.Subject).Msg("role write dropped, dispatcher stopped")
	}
}

// shardIndex maps a subject deterministically to a worker index.
func (d *Dispatcher) shardIndex(subject string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(subject))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.RoleWrite) {
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case w, ok := <-ch:
			if !ok {
				return
			}
			metrics.SyncQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.syncer.Sync(ctx, w)
		}
	}
}
