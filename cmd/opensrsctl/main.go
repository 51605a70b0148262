// Command opensrsctl runs single OpenSRS registrar and mail-admin operations
// from the command line and prints the reply as JSON.
//
// Usage:
//
//	opensrsctl [-config opensrs.yaml] <command> [flags] [args]
//
// Commands:
//
//	lookup <domain>               check availability
//	price [-period N] <domain>    query the price
//	contacts <domain>...          fetch contact sets
//	poll [-limit N]               fetch queued events
//	ack <event-id>                acknowledge an event
//	mail-auth                     check the mail-admin credentials
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/sirosfoundation/go-opensrs/internal/config"
	"github.com/sirosfoundation/go-opensrs/pkg/mail"
	"github.com/sirosfoundation/go-opensrs/pkg/opensrs"
	"github.com/sirosfoundation/go-opensrs/pkg/transport"
	"github.com/sirosfoundation/go-opensrs/pkg/value"
)

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "opensrsctl: %v\n", err)
		}
		os.Exit(1)
	}
}

// env bundles what the subcommands need.
type env struct {
	cfg       *config.Config
	logger    *slog.Logger
	transport transport.Transport
	out       io.Writer
}

func (e *env) registrar() (*opensrs.Client, error) {
	return opensrs.NewClient(e.cfg.RegistrarClientConfig(e.transport, e.logger))
}

func (e *env) mail() (*mail.Client, error) {
	return mail.NewClient(e.cfg.MailClientConfig(e.transport, e.logger))
}

type command func(ctx context.Context, e *env, args []string) error

var commands = map[string]command{
	"lookup":    runLookup,
	"price":     runPrice,
	"contacts":  runContacts,
	"poll":      runPoll,
	"ack":       runAck,
	"mail-auth": runMailAuth,
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("opensrsctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", defaultConfigPath(), "Path to configuration file")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: opensrsctl [-config file] <lookup|price|contacts|poll|ack|mail-auth> [args]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}

	name := fs.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", name)
		fs.Usage()
		return errUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger := cfg.NewLogger(stderr)

	e := &env{
		cfg:       cfg,
		logger:    logger,
		transport: transport.NewHTTPSClient(cfg.HTTPSConfig(logger)),
		out:       stdout,
	}
	return cmd(ctx, e, fs.Args()[1:])
}

func defaultConfigPath() string {
	if p := os.Getenv("OPENSRS_CONFIG"); p != "" {
		return p
	}
	return "opensrs.yaml"
}

func runLookup(ctx context.Context, e *env, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("lookup: expected one domain")
	}
	client, err := e.registrar()
	if err != nil {
		return err
	}
	resp, err := client.Lookup(ctx, value.NewAssoc(value.P("domain", value.Scalar(args[0]))))
	if err != nil {
		return err
	}
	return printResponse(e.out, resp)
}

func runPrice(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("price", flag.ContinueOnError)
	period := fs.Int("period", 1, "Registration period in years")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("price: expected one domain")
	}

	client, err := e.registrar()
	if err != nil {
		return err
	}
	resp, err := client.GetPrice(ctx, value.NewAssoc(
		value.P("domain", value.Scalar(fs.Arg(0))),
		value.P("period", value.Scalar(strconv.Itoa(*period))),
	))
	if err != nil {
		return err
	}
	return printResponse(e.out, resp)
}

func runContacts(ctx context.Context, e *env, args []string) error {
	client, err := e.registrar()
	if err != nil {
		return err
	}
	resp, err := client.GetDomainsContacts(ctx, args...)
	if err != nil {
		return err
	}
	return printResponse(e.out, resp)
}

func runPoll(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("poll", flag.ContinueOnError)
	limit := fs.Int("limit", 1, "Maximum number of events")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	client, err := e.registrar()
	if err != nil {
		return err
	}
	events, err := client.Poll(ctx, *limit)
	if err != nil {
		return err
	}
	return printJSON(e.out, events)
}

func runAck(ctx context.Context, e *env, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("ack: expected one event ID")
	}
	client, err := e.registrar()
	if err != nil {
		return err
	}
	resp, err := client.Ack(ctx, args[0])
	if err != nil {
		return err
	}
	return printResponse(e.out, resp)
}

func runMailAuth(ctx context.Context, e *env, args []string) error {
	client, err := e.mail()
	if err != nil {
		return err
	}
	resp, err := client.Authenticate(ctx)
	if err != nil {
		return err
	}
	return printJSON(e.out, resp.Fields)
}

type responseJSON struct {
	Success    bool        `json:"success"`
	Code       int         `json:"response_code"`
	Text       string      `json:"response_text"`
	Attributes value.Value `json:"attributes"`
}

func printResponse(w io.Writer, resp *opensrs.Response) error {
	return printJSON(w, responseJSON{
		Success:    resp.Success,
		Code:       resp.Code,
		Text:       resp.Text,
		Attributes: resp.Attributes,
	})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
