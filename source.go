package routekit

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/sourcegraph/conc/pool"
)

// Source produces updates for Run. The transport behind it (a client
// connection, a message broker, a test channel) is not the dispatcher's
// concern; it only has to deliver updates one at a time in arrival order.
//
// Example:
//
//	type pollingSource struct {
//	    api BotAPI
//	}
//
//	func (s *pollingSource) Receive(ctx context.Context) (<-chan routekit.Delivery, error) {
//	    out := make(chan routekit.Delivery)
//	    go func() {
//	        defer close(out)
//	        for u := range s.api.Poll(ctx) {
//	            out <- routekit.Delivery{Update: u}
//	        }
//	    }()
//	    return out, nil
//	}
type Source interface {
	// Receive starts delivering updates. The channel is closed when the
	// source is exhausted or ctx is done.
	Receive(ctx context.Context) (<-chan Delivery, error)
}

// Delivery is one update handed to the dispatcher.
type Delivery struct {
	Update Update

	// Done, when set, is called once after the update was dispatched, with
	// the dispatch error. Transports use it to acknowledge or reject the
	// underlying message.
	Done func(err error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) (<-chan Delivery, error)

// Receive implements Source.
func (f SourceFunc) Receive(ctx context.Context) (<-chan Delivery, error) {
	return f(ctx)
}

// ChannelSource returns a Source reading updates from ch until it is closed.
func ChannelSource(ch <-chan Update) Source {
	return SourceFunc(func(ctx context.Context) (<-chan Delivery, error) {
		out := make(chan Delivery)
		go func() {
			defer close(out)
			for {
				select {
				case <-ctx.Done():
					return
				case u, ok := <-ch:
					if !ok {
						return
					}
					select {
					case out <- Delivery{Update: u}:
					case <-ctx.Done():
						return
					}
				}
			}
		}()
		return out, nil
	})
}

// Run dispatches every update produced by src until the source is exhausted
// or ctx is done, then waits for in-flight dispatches. Up to the configured
// concurrency updates are dispatched at once; with the default of 1 they are
// dispatched in source order.
//
// Dispatch errors do not stop Run. They are reported through the failure hooks
// and the delivery's Done callback. A panicking handler is recovered and
// reported as ErrPanic.
//
// Run returns ctx.Err() when ctx ends the loop and nil when the source closes.
func (d *Dispatcher) Run(ctx context.Context, src Source) error {
	deliveries, err := src.Receive(ctx)
	if err != nil {
		return fmt.Errorf("receive updates: %w", err)
	}

	p := pool.New().WithMaxGoroutines(d.concurrency)
	defer p.Wait()

	d.logger.Info("dispatcher started", watermill.LogFields{
		"run_policy":  d.policy.String(),
		"concurrency": d.concurrency,
	})
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("dispatcher stopped", watermill.LogFields{"reason": ctx.Err().Error()})
			return ctx.Err()
		case dl, ok := <-deliveries:
			if !ok {
				// sources close their channel when ctx ends, too
				if err := ctx.Err(); err != nil {
					d.logger.Info("dispatcher stopped", watermill.LogFields{"reason": err.Error()})
					return err
				}
				d.logger.Info("dispatcher stopped", watermill.LogFields{"reason": "source closed"})
				return nil
			}
			p.Go(func() {
				_, err := d.dispatch(ctx, dl.Update, true)
				if dl.Done != nil {
					dl.Done(err)
				}
			})
		}
	}
}
