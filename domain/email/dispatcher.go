package email

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/google/uuid"

	"github.com/Yukasama/haus/internal/config"
	"github.com/Yukasama/haus/pkg/logger"
)

// Job is a notification waiting to be rendered and sent
type Job struct {
	ID       string
	To       string
	Subject  string
	Template string
	Data     TemplateContext
}

// Dispatcher sends jobs on a bounded worker pool so that callers never wait for delivery
type Dispatcher struct {
	// mu orders Submit before StopWait; the pool panics on a submit after stop
	mu      sync.RWMutex
	stopped bool

	pool      *workerpool.WorkerPool
	sender    Sender
	templates *TemplateService
	cfg       *config.EmailConfig
	log       *slog.Logger
}

// NewDispatcher creates a dispatcher with cfg.Email.Workers workers
func NewDispatcher(cfg *config.Config, sender Sender, templates *TemplateService, log *slog.Logger) *Dispatcher {
	workers := cfg.Email.Workers
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		pool:      workerpool.New(workers),
		sender:    sender,
		templates: templates,
		cfg:       &cfg.Email,
		log:       log.With(logger.Scope("email.dispatcher")),
	}
}

// Enqueue schedules job and returns its id. The recipient defaults to EMAIL_TO_ADDRESS.
func (d *Dispatcher) Enqueue(job Job) string {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.To == "" {
		job.To = d.cfg.To
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		d.log.Warn("dispatcher stopped, dropping email", slog.String("job_id", job.ID))
		return job.ID
	}

	d.pool.Submit(func() {
		d.process(job)
	})
	return job.ID
}

// WaitingQueueSize returns the number of jobs not yet picked up by a worker
func (d *Dispatcher) WaitingQueueSize() int {
	return d.pool.WaitingQueueSize()
}

// Stop waits for queued jobs to finish
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	d.mu.Unlock()

	d.pool.StopWait()
}

func (d *Dispatcher) process(job Job) {
	timeout := d.cfg.SendTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	log := d.log.With(slog.String("job_id", job.ID), slog.String("template", job.Template))

	data := make(TemplateContext, len(job.Data)+1)
	for k, v := range job.Data {
		data[k] = v
	}
	data["subject"] = job.Subject

	rendered, err := d.templates.Render(job.Template, data, DefaultLayout)
	if err != nil {
		log.Error("failed to render email", logger.Error(err))
		return
	}

	result, err := d.sender.Send(ctx, SendOptions{
		To:      job.To,
		Subject: job.Subject,
		HTML:    rendered.HTML,
		Text:    rendered.Text,
	})
	switch {
	case err != nil:
		log.Error("failed to send email", logger.Error(err))
	case !result.Success:
		log.Warn("email not delivered", slog.String("error", result.Error))
	default:
		log.Debug("email delivered", slog.String("message_id", result.MessageID))
	}
}
