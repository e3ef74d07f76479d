package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hanpama/livegraph/internal/composer"
	"github.com/hanpama/livegraph/internal/eventbus"
	"github.com/hanpama/livegraph/internal/live"
	"github.com/hanpama/livegraph/internal/otel"
	"github.com/hanpama/livegraph/internal/stream"
)

const rootUsage = `livegraph — live tree composition engine

USAGE:
  livegraph <command> [flags]

COMMANDS:
  demo             Run a ticking clock subscription and print each snapshot
  help             Show help for any command
`

const demoUsage = `demo FLAGS:
  -interval <duration>   Tick interval, e.g. 500ms (default: 1s)
  -count <n>             Stop after n snapshots; 0 runs until interrupted
  -pretty                Pretty-print JSON snapshots
  -otel.endpoint <addr>  OTLP collector endpoint
  -otel.service <name>   OpenTelemetry service name (default: livegraph)
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	global := flag.NewFlagSet("livegraph", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer)) // silence automatic output
	if err := global.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]
	switch cmd {
	case "demo":
		return cmdDemo(cmdArgs)
	case "help":
		return cmdHelp(cmdArgs)
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string) error {
	if len(args) == 0 {
		fmt.Print(rootUsage)
		return nil
	}
	switch args[0] {
	case "demo":
		fmt.Print(demoUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

func cmdDemo(args []string) error {
	interval := time.Second
	count := 0
	pretty := false
	otelEndpoint := ""
	otelService := "livegraph"

	fs := flag.NewFlagSet("demo", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.DurationVar(&interval, "interval", interval, "Tick interval")
	fs.IntVar(&count, "count", count, "Stop after n snapshots")
	fs.BoolVar(&pretty, "pretty", pretty, "Pretty-print JSON snapshots")
	fs.StringVar(&otelEndpoint, "otel.endpoint", otelEndpoint, "OTLP collector endpoint")
	fs.StringVar(&otelService, "otel.service", otelService, "OpenTelemetry service name")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, demoUsage)
		return err
	}

	eventbus.Use(eventbus.New())
	shutdown, err := otel.Setup(otelEndpoint, otelService)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	req := live.Request{
		Field:    "clock",
		TypeRef:  "Clock",
		Producer: map[string]any{"startedAt": time.Now().UTC().Format(time.RFC3339)},
	}
	out := live.Subscribe(ctx, clockRuntime{interval: interval}, req)

	enc := json.NewEncoder(os.Stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	emitted := 0
	for res := range out.C() {
		if err := enc.Encode(res); err != nil {
			return err
		}
		emitted++
		if count > 0 && emitted >= count {
			return nil
		}
	}
	if err := out.Err(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// clockRuntime composes a Clock object whose startedAt field is projected
// from the root value and whose time field ticks live.
type clockRuntime struct {
	interval time.Duration
}

func (r clockRuntime) ResolveConcreteType(ctx context.Context, typeRef string, value any) (*composer.TypeNode, error) {
	switch typeRef {
	case "Clock":
		return composer.Object("Clock"), nil
	case "String":
		return composer.Leaf("String"), nil
	default:
		return nil, fmt.Errorf("unknown type %q", typeRef)
	}
}

func (r clockRuntime) ListFields(ctx context.Context, typeName string, path composer.Path) ([]composer.Field, error) {
	if typeName != "Clock" {
		return nil, fmt.Errorf("unknown object type %q", typeName)
	}
	return []composer.Field{
		{Name: "startedAt", TypeRef: "String"},
		{Name: "time", TypeRef: "String", Producer: &composer.ProducerRef{
			Mode: composer.ModeSubscribe, ObjectType: "Clock", Field: "time",
		}},
	}, nil
}

func (r clockRuntime) GetFieldProducer(ctx context.Context, ref *composer.ProducerRef, source any, args map[string]any) (any, error) {
	if ref.ObjectType != "Clock" || ref.Field != "time" {
		return nil, fmt.Errorf("no producer for %s.%s", ref.ObjectType, ref.Field)
	}
	s := stream.New[any]()
	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		if !s.Send(ctx, time.Now().UTC().Format(time.RFC3339)) {
			s.Close(nil)
			return
		}
		for {
			select {
			case t := <-ticker.C:
				if !s.Send(ctx, t.UTC().Format(time.RFC3339)) {
					s.Close(nil)
					return
				}
			case <-ctx.Done():
				s.Close(nil)
				return
			}
		}
	}()
	return s, nil
}
