package queue

import (
	"context"

	"github.com/rileyhilliard/trainq/internal/logger"
)

// Commander issues queue commands to the scheduler.
type Commander interface {
	StartQueue(ctx context.Context, key string) error
	StopQueue(ctx context.Context, key string) error
}

// Refresher is anything that can be asked to re-poll now.
type Refresher interface {
	Refresh()
}

// Controller issues a queue command and then refreshes the pollers so the
// result shows up without waiting for the next tick.
type Controller struct {
	cmd     Commander
	refresh []Refresher
	log     logger.Logger
}

// NewController creates a controller that refreshes the given pollers after
// every command.
func NewController(cmd Commander, log logger.Logger, refresh ...Refresher) *Controller {
	if log == nil {
		log = logger.Noop()
	}
	return &Controller{cmd: cmd, refresh: refresh, log: log}
}

// StartQueue starts the queue for a device key.
func (c *Controller) StartQueue(ctx context.Context, key string) error {
	return c.do(ctx, "start", key, c.cmd.StartQueue)
}

// StopQueue stops the queue for a device key.
func (c *Controller) StopQueue(ctx context.Context, key string) error {
	return c.do(ctx, "stop", key, c.cmd.StopQueue)
}

// do runs the command and refreshes regardless of its outcome; the pollers
// report what the scheduler actually did. The command error is returned for
// display only.
func (c *Controller) do(ctx context.Context, verb, key string, fn func(context.Context, string) error) error {
	err := fn(ctx, key)
	if err != nil {
		c.log.Warn("%s queue %s: %v", verb, key, err)
	} else {
		c.log.Info("%s queue %s: ok", verb, key)
	}

	for _, r := range c.refresh {
		r.Refresh()
	}
	return err
}
