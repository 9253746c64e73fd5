package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/perryops/periaudit/internal/config"
	"github.com/perryops/periaudit/internal/model"
)

// Orchestrator manages the audit session pipeline: a bounded queue and a
// pool of workers, each processing one session at a time. Sessions are
// independent; the gateways are stateless and safe to share.
type Orchestrator struct {
	sessions *SessionStore
	queue    chan *Session
	remote   model.Gateway
	auditGw  model.Gateway
	log      *slog.Logger
	cfg      config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Start must be called before
// submitting sessions.
func NewOrchestrator(cfg config.Config, remote, auditGw model.Gateway, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		sessions: NewSessionStore(cfg.SessionTTL),
		queue:    make(chan *Session, cfg.MaxQueueSize),
		remote:   remote,
		auditGw:  auditGw,
		log:      log,
		cfg:      cfg,
	}
}

// Start launches worker goroutines and the session-store janitor.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for i := 0; i < o.cfg.WorkerCount; i++ {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.remote, o.auditGw, o.log, o.cfg)
			for {
				select {
				case <-workerCtx.Done():
					return
				case session, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, session)
				}
			}
		}()
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.sessions.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new session for processing.
func (o *Orchestrator) Submit(session *Session) error {
	o.sessions.Put(session)
	select {
	case o.queue <- session:
		return nil
	default:
		session.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("session queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetSession returns a session by ID.
func (o *Orchestrator) GetSession(id string) *Session {
	return o.sessions.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}
