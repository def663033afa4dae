// Package routekit routes a stream of typed updates through a tree of routers
// to prioritized handlers.
//
// An update (a new message, an edited message, a callback query, a raw
// protocol update, ...) enters a Dispatcher, which offers it to its root
// routers. Each Router owns one HandlerHolder per update kind; the holder for
// the update's kind checks its filter, wraps its handlers in middlewares and
// runs them in priority order. Routers that did not handle an update pass it
// down to their child routers.
//
// # Quick Start
//
//	d := routekit.New(client, routekit.WithDependencies(routekit.Deps{"db": db}))
//
//	r := routekit.NewRouter("commands")
//	r.Message().Register(
//	    routekit.On(func(ctx context.Context, c routekit.Client, m *routekit.Message, deps routekit.Deps) error {
//	        db, _ := routekit.Lookup[*sql.DB](deps, "db")
//	        return greet(ctx, c, db, m)
//	    }),
//	    routekit.WithName("start"),
//	    routekit.WithFilter(routekit.Command("start")),
//	    routekit.WithDeps("db"),
//	)
//
//	if err := d.AddRouter(r); err != nil {
//	    return err
//	}
//
//	// One update at a time
//	handled, err := d.FeedUpdate(ctx, update)
//
//	// Or a whole stream
//	err = d.Run(ctx, routekit.ChannelSource(updates))
//
// # Filters
//
// A Filter is an immutable boolean expression over predicates. Filters compose
// with And, Or and Not and are evaluated left to right with short-circuiting,
// so a cheap check placed first guards an expensive one:
//
//	f := routekit.And(
//	    routekit.InChats(adminChat),
//	    routekit.NewFilter(isModerator, "db"),
//	)
//
// The zero Filter always matches. Predicates declare the dependencies they
// need when they are built; see Deps.
//
// Raw update payloads are matched without decoding them through an Inspector
// and Discriminators:
//
//	routekit.Payload(routekit.AllOf(
//	    routekit.HasFields("reaction.emoji"),
//	    routekit.FieldEquals("reaction.emoji", "👍"),
//	))
//
// # Handlers and Priorities
//
// Handlers of a holder run in ascending priority; 1 is the highest and the
// default. Handlers with equal priority run in registration order. A process
// wide PriorityFactory set with SetPriorityFactory assigns the priority of
// handlers registered without WithPriority.
//
// # Middlewares
//
// A Middleware has an Enter and an Exit hook. Outer middlewares (UseOuter)
// wrap the holder filter and see every update of their kind; inner
// middlewares (Use) are entered only when the filter accepted the update. For
// one update a middleware instance is entered at most once and exited exactly
// once after a successful Enter, in reverse order, however the holder stops.
//
// Dispatcher.Gate returns a filter and middleware stack for one update kind
// that wraps the whole dispatch, before any root router sees the update:
//
//	d.Gate(routekit.KindMessage).Filter(routekit.Not(routekit.FromUsers(banned...)))
//
// # Run Policies
//
// The RunPolicy of the dispatcher decides how far an update travels:
//
//   - OneRunPerEvent: the first handler that triggers ends the dispatch
//   - OneRunPerRouter: each holder runs at most one handler; other routers
//     still see the update, but a router that handled it does not pass it to
//     its children
//   - Unlimited: every matching handler in the whole tree runs
//
// # Interrupting
//
// Filters, handlers and middleware Enter hooks may return ErrInterrupt to stop
// the current holder without failing the dispatch. The holder then reports
// that it did not trigger and the dispatch continues with the next router.
//
// # Errors
//
// Registration mistakes (cycles, double attachment, conflicting allow-lists,
// invalid priorities) are returned synchronously and leave the tree
// unchanged. Errors raised while processing are wrapped once in a
// ProcessingError naming the router, the handler and the stage that failed:
//
//	var perr *routekit.ProcessingError
//	if errors.As(err, &perr) {
//	    log.Printf("router %s handler %s failed during %s", perr.Router, perr.Handler, perr.Stage)
//	}
//
// # Hooks
//
// Hooks observe the dispatch without taking part in it:
//
//   - WithOnReceive: an update entered the dispatcher
//   - WithOnHandler: a handler callback returned
//   - WithOnHandled: at least one handler triggered
//   - WithOnUnhandled: no handler triggered
//   - WithOnFailure: the dispatch failed
//
// WithMetrics installs hooks that export Prometheus metrics. Every dispatch
// also opens an OpenTelemetry span; use WithTracerProvider to choose the
// provider.
//
// # Sources
//
// Run consumes a Source. ChannelSource adapts a Go channel; the wmsource
// package reads updates from any watermill subscriber. Updates cross process
// boundaries as JSON envelopes written by EncodeUpdate.
package routekit
