package plugin

import (
	"context"
	"log"
	"slices"
	"sync"

	"github.com/ayusman/formcheck/internal/posture"
)

// queueSize bounds announcements waiting for a slow plugin. Newer events are dropped
// while the queue is full.
const queueSize = 8

// Notifier turns assessments into plugin events. It only announces changes: a new cue
// list or the subject entering or leaving the frame. Plugins run on a background
// goroutine so Publish never blocks the pipeline.
type Notifier struct {
	manager  *Manager
	executor *Executor
	queue    chan *Request
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc

	mu          sync.Mutex
	closed      bool
	exercise    posture.Exercise
	lastCues    []string
	lastVisible bool
	seen        bool
}

// NewNotifier starts a Notifier that runs the manager's subscribed plugins with executor.
func NewNotifier(manager *Manager, executor *Executor) *Notifier {
	ctx, cancel := context.WithCancel(context.Background())
	n := &Notifier{
		manager:  manager,
		executor: executor,
		queue:    make(chan *Request, queueSize),
		ctx:      ctx,
		cancel:   cancel,
	}
	n.wg.Add(1)
	go n.run()
	return n
}

// Publish queues events for what changed since the previous assessment.
func (n *Notifier) Publish(a posture.Assessment) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}

	if n.seen && a.Exercise != n.exercise {
		n.seen = false
		n.lastCues = nil
	}

	visible := a.Visibility.AllVisible
	if !n.seen || visible != n.lastVisible {
		n.enqueue(newRequest(EventVisibility, a))
	}
	if !n.seen || !slices.Equal(a.Cues, n.lastCues) {
		n.enqueue(newRequest(EventCues, a))
	}

	n.seen = true
	n.exercise = a.Exercise
	n.lastVisible = visible
	n.lastCues = slices.Clone(a.Cues)
}

func newRequest(event string, a posture.Assessment) *Request {
	req := &Request{
		Event:    event,
		Exercise: a.Exercise.Slug(),
		Score:    a.Score,
		Cues:     slices.Clone(a.Cues),
		Visible:  a.Visibility.AllVisible,
	}
	for _, l := range a.Visibility.Missing {
		req.Missing = append(req.Missing, string(l))
	}
	if req.Cues == nil {
		req.Cues = []string{}
	}
	return req
}

func (n *Notifier) enqueue(req *Request) {
	select {
	case n.queue <- req:
	default:
		log.Printf("Plugin queue full, dropping %s event", req.Event)
	}
}

func (n *Notifier) run() {
	defer n.wg.Done()

	for req := range n.queue {
		for _, p := range n.manager.Subscribers(req.Event) {
			resp, err := n.executor.Execute(n.ctx, p, req)
			if err != nil {
				log.Printf("Plugin %s: %v", p.Manifest.Name, err)
				continue
			}
			if !resp.Success {
				log.Printf("Plugin %s reported failure: %s", p.Manifest.Name, resp.Error)
			}
		}
	}
}

// Close delivers queued events and stops the background goroutine.
func (n *Notifier) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	close(n.queue)
	n.mu.Unlock()

	n.wg.Wait()
	n.cancel()
	return nil
}
