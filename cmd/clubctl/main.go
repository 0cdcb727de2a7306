// Command clubctl talks to the recruitment backend from a terminal. The token
// survives between invocations in a file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"clubhire.org/internal/api"
	"clubhire.org/internal/client"
	"clubhire.org/internal/config"
	"clubhire.org/internal/guard"
	"clubhire.org/internal/obs"
	"clubhire.org/internal/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

type app struct {
	cfg    config.Config
	sess   *session.Session
	client *client.Client
	out    io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	obs.SetLevel("warn")

	a, err := newApp(ctx, cfg, stdout)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	var cmdErr error
	switch args[0] {
	case "login":
		cmdErr = a.login(ctx, args[1:])
	case "logout":
		cmdErr = a.sess.Logout(ctx)
	case "whoami":
		cmdErr = a.whoami(ctx)
	case "get":
		cmdErr = a.get(ctx, args[1:])
	case "nav":
		cmdErr = a.nav(ctx, args[1:])
	case "smoke":
		cmdErr = a.smoke(ctx, args[1:])
	default:
		usage(stderr)
		return 2
	}
	if cmdErr != nil {
		fmt.Fprintf(stderr, "%s: %s\n", args[0], client.Message(cmdErr))
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `usage: clubctl <command> [flags]

commands:
  login -phone P [-password PW]   log in (password may come from CLUBHIRE_PASSWORD)
  logout                          forget the stored token
  whoami                          print the current profile
  get [-shape auto|raw|wrapped] PATH [key=value ...]
                                  GET a backend path and print the unwrapped payload
  nav PATH                        run the route guard for PATH
  smoke                           log in as every seeded account and check role homes`)
}

func newApp(ctx context.Context, cfg config.Config, out io.Writer) (*app, error) {
	path := cfg.TokenFile
	if path == "" {
		path = session.DefaultTokenPath()
	}
	sess := session.New(session.NewFileStore(path), session.WithNavigator(session.NavigatorFunc(func(p string) {
		fmt.Fprintf(out, "-> %s\n", p)
	})))
	if err := sess.Restore(ctx); err != nil {
		return nil, err
	}
	c, err := client.New(client.Config{BaseURL: cfg.BackendURL, Timeout: cfg.HTTPTimeout}, sess,
		client.WithRedirect(func(p string) { fmt.Fprintf(out, "session expired -> %s\n", p) }))
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, sess: sess, client: c, out: out}, nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	phone := fs.String("phone", "", "phone number")
	password := fs.String("password", os.Getenv("CLUBHIRE_PASSWORD"), "password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *phone == "" || *password == "" {
		return errors.New("phone and password are required")
	}
	if _, err := a.sess.Login(ctx, api.Authenticator{Client: a.client}, *phone, *password); err != nil {
		return err
	}
	g := guard.New(a.sess, api.Authenticator{Client: a.client})
	fmt.Fprintf(a.out, "logged in as %s, home %s\n", a.sess.Profile().DisplayName(), g.Home())
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	if !a.sess.Authenticated() {
		return errors.New("not logged in")
	}
	p, err := api.Me(ctx, a.client)
	if err != nil {
		return err
	}
	a.sess.SetProfile(p)
	role, _ := a.sess.PrimaryRole()
	return printJSON(a.out, map[string]any{"profile": p, "role": role})
}

func (a *app) get(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	shape := fs.String("shape", "auto", "response shape: auto, raw or wrapped")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("path is required")
	}
	path := fs.Arg(0)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	query := url.Values{}
	for _, kv := range fs.Args()[1:] {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("query parameter %q is not key=value", kv)
		}
		query.Add(k, v)
	}
	var opts []client.CallOption
	switch *shape {
	case "auto":
	case "raw":
		opts = append(opts, client.Raw())
	case "wrapped":
		opts = append(opts, client.Wrapped())
	default:
		return fmt.Errorf("unknown shape %q", *shape)
	}
	payload, err := a.client.Do(ctx, http.MethodGet, path, query, nil, opts...)
	if err != nil {
		return err
	}
	return printJSON(a.out, payload)
}

func (a *app) nav(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("exactly one path is required")
	}
	d := guard.New(a.sess, api.Authenticator{Client: a.client}).Navigate(ctx, args[0])
	return printJSON(a.out, map[string]any{
		"target":   d.Target,
		"state":    d.State,
		"redirect": d.Redirect,
		"title":    d.Title,
		"trail":    d.Trail,
	})
}

type smokeAccount struct {
	phone, password, home string
}

// smoke logs in as each seeded development account on a throwaway session
// and checks the guard sends it to its role home.
func (a *app) smoke(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return errors.New("smoke takes no arguments")
	}
	accounts := []smokeAccount{
		{"13800000001", "admin123", guard.AdminHome},
		{"13800000002", "interviewer123", guard.InterviewerHome},
		{"13800000003", "student123", guard.StudentHome},
	}
	for _, acc := range accounts {
		sess := session.New(nil)
		c, err := client.New(client.Config{BaseURL: a.cfg.BackendURL, Timeout: a.cfg.HTTPTimeout}, sess)
		if err != nil {
			return err
		}
		authn := api.Authenticator{Client: c}
		if _, err := sess.Login(ctx, authn, acc.phone, acc.password); err != nil {
			return fmt.Errorf("login %s: %w", acc.phone, err)
		}
		if d := guard.New(sess, authn).Navigate(ctx, "/"); d.Redirect != acc.home {
			return fmt.Errorf("%s: root redirected to %q, want %q", acc.phone, d.Redirect, acc.home)
		}
		if d := guard.New(sess, authn).Navigate(ctx, acc.home); !d.Allowed() {
			return fmt.Errorf("%s: own home %s not allowed", acc.phone, acc.home)
		}
	}
	fmt.Fprintf(a.out, "smoke: PASS (%d accounts)\n", len(accounts))
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
