package routekit_test

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/bjaus/routekit"
)

func Example() {
	d := routekit.New(nil, routekit.WithDependencies(routekit.Deps{"greeting": "Hello"}))

	r := routekit.NewRouter("commands")
	_, err := r.Message().Register(
		routekit.On(func(ctx context.Context, _ routekit.Client, m *routekit.Message, deps routekit.Deps) error {
			greeting, _ := routekit.Lookup[string](deps, "greeting")
			fmt.Printf("%s, %s!\n", greeting, m.From.FirstName)
			return nil
		}),
		routekit.WithName("start"),
		routekit.WithFilter(routekit.Command("start")),
		routekit.WithDeps("greeting"),
	)
	if err != nil {
		log.Fatal(err)
	}
	if err := d.AddRouter(r); err != nil {
		log.Fatal(err)
	}

	for _, text := range []string{"/start", "/help", "/START@greeter_bot now"} {
		handled, err := d.FeedUpdate(context.Background(), &routekit.Message{
			Text: text,
			From: &routekit.User{ID: 7, FirstName: "Ada"},
		})
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%s handled: %v\n", text, handled)
	}

	// Output:
	// Hello, Ada!
	// /start handled: true
	// /help handled: false
	// Hello, Ada!
	// /START@greeter_bot now handled: true
}

func Example_runPolicies() {
	printer := func(name string) routekit.HandlerFunc {
		return func(context.Context, routekit.Client, routekit.Update, routekit.Deps) error {
			fmt.Println("  " + name)
			return nil
		}
	}

	for _, policy := range []routekit.RunPolicy{routekit.OneRunPerEvent, routekit.OneRunPerRouter, routekit.Unlimited} {
		audit, replies := routekit.NewRouter("audit"), routekit.NewRouter("replies")
		_, _ = audit.Message().Register(printer("audit.log"))
		_, _ = replies.Message().Register(printer("replies.echo"))
		_, _ = replies.Message().Register(printer("replies.thanks"), routekit.WithPriority(2))

		d := routekit.New(nil, routekit.WithRunPolicy(policy))
		if err := d.AddRouters(audit, replies); err != nil {
			log.Fatal(err)
		}

		fmt.Println(policy)
		if _, err := d.FeedUpdate(context.Background(), &routekit.Message{Text: "thanks"}); err != nil {
			log.Fatal(err)
		}
	}

	// Output:
	// one_run_per_event
	//   audit.log
	// one_run_per_router
	//   audit.log
	//   replies.echo
	// unlimited
	//   audit.log
	//   replies.echo
	//   replies.thanks
}

func Example_middleware() {
	trace := func(name string) routekit.Middleware {
		return routekit.NewMiddleware(
			func(context.Context, *routekit.Event) error {
				fmt.Println("enter", name)
				return nil
			},
			func(context.Context, *routekit.Event) error {
				fmt.Println("exit", name)
				return nil
			},
		)
	}

	r := routekit.NewRouter("chat")
	r.Message().UseOuter(trace("outer"))
	r.Message().Use(trace("inner"))
	r.Message().Filter(routekit.InChats(42))
	_, _ = r.Message().Register(func(_ context.Context, _ routekit.Client, u routekit.Update, _ routekit.Deps) error {
		fmt.Println("handle", u.(*routekit.Message).Text)
		return nil
	})

	d := routekit.New(nil)
	if err := d.AddRouter(r); err != nil {
		log.Fatal(err)
	}

	_, _ = d.FeedUpdate(context.Background(), &routekit.Message{Text: "hi", Chat: &routekit.Chat{ID: 42}})
	fmt.Println("--")
	_, _ = d.FeedUpdate(context.Background(), &routekit.Message{Text: "hi", Chat: &routekit.Chat{ID: 99}})

	// Output:
	// enter outer
	// enter inner
	// handle hi
	// exit inner
	// exit outer
	// --
	// enter outer
	// exit outer
}

func Example_interrupt() {
	banned := routekit.NewRouter("banned")
	_, _ = banned.Message().Register(func(context.Context, routekit.Client, routekit.Update, routekit.Deps) error {
		fmt.Println("banned user, skipping this router")
		return routekit.ErrInterrupt
	}, routekit.WithFilter(routekit.FromUsers(13)))

	fallback := routekit.NewRouter("fallback")
	_, _ = fallback.Message().Register(func(context.Context, routekit.Client, routekit.Update, routekit.Deps) error {
		fmt.Println("fallback handled it")
		return nil
	})

	d := routekit.New(nil)
	if err := d.AddRouters(banned, fallback); err != nil {
		log.Fatal(err)
	}

	handled, err := d.FeedUpdate(context.Background(), &routekit.Message{From: &routekit.User{ID: 13}})
	fmt.Println(handled, err)

	// Output:
	// banned user, skipping this router
	// fallback handled it
	// true <nil>
}

func Example_processingError() {
	r := routekit.NewRouter("payments")
	_, _ = r.CallbackQuery().Register(func(context.Context, routekit.Client, routekit.Update, routekit.Deps) error {
		return errors.New("card declined")
	}, routekit.WithName("charge"))

	d := routekit.New(nil)
	if err := d.AddRouter(r); err != nil {
		log.Fatal(err)
	}

	_, err := d.FeedUpdate(context.Background(), &routekit.CallbackQuery{Data: "pay"})

	var perr *routekit.ProcessingError
	if errors.As(err, &perr) {
		fmt.Println(perr.Router, perr.Handler, perr.Stage)
	}
	fmt.Println(err)

	// Output:
	// payments charge handler
	// routekit: callback_query handler (router payments, handler charge): card declined
}

func Example_run() {
	r := routekit.NewRouter("echo")
	_, _ = r.Message().Register(routekit.On(func(_ context.Context, _ routekit.Client, m *routekit.Message, _ routekit.Deps) error {
		fmt.Println("echo:", m.Text)
		return nil
	}))

	d := routekit.New(nil)
	if err := d.AddRouter(r); err != nil {
		log.Fatal(err)
	}

	updates := make(chan routekit.Update, 3)
	updates <- &routekit.Message{Text: "one"}
	updates <- &routekit.Poll{ID: "ignored"}
	updates <- &routekit.Message{Text: "two"}
	close(updates)

	if err := d.Run(context.Background(), routekit.ChannelSource(updates)); err != nil {
		log.Fatal(err)
	}

	// Output:
	// echo: one
	// echo: two
}

func ExampleEncodeUpdate() {
	raw, err := routekit.EncodeUpdate(&routekit.CallbackQuery{ID: "cb1", Data: "vote:yes"})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(raw))

	u, err := routekit.DecodeUpdate(raw)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(u.Kind(), u.(*routekit.CallbackQuery).Data)

	// Output:
	// {"kind":"callback_query","update":{"id":"cb1","data":"vote:yes"}}
	// callback_query vote:yes
}
