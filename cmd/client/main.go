// client is a terminal client for the verification API.
//
//	client [-addr host:port] signup -name N -email E -phone P -password S [-lang en|hi]
//	client login -phone P -password S
//	client verify -phone P [-code C]
//	client resend -phone P
//	client whoami
//	client logout
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	verificationv1 "agrovision-auth/internal/api/verification/v1"
	"agrovision-auth/internal/client"
	"agrovision-auth/internal/logging"
	"agrovision-auth/internal/session"
)

const callTimeout = 15 * time.Second

func main() {
	addr := flag.String("addr", envOr("AGROVISION_ADDR", "localhost:8080"), "server address")
	sessionPath := flag.String("session", "", "session file (default: user config dir)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	log := logging.New(level, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *addr, *sessionPath, flag.Args(), os.Stdin, os.Stdout, log); err != nil {
		fmt.Fprintln(os.Stderr, client.Describe(err))
		log.WithError(err).Debug("command failed")
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(flag.CommandLine.Output(), "usage: client [flags] signup|login|verify|resend|whoami|logout [command flags]")
	flag.PrintDefaults()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func run(ctx context.Context, addr, sessionPath string, args []string, stdin io.Reader, out io.Writer, log logrus.FieldLogger) error {
	if sessionPath == "" {
		p, err := session.DefaultPath()
		if err != nil {
			return err
		}
		sessionPath = p
	}
	sess := session.New(session.NewFileStore(sessionPath))
	if err := sess.Restore(); err != nil {
		log.WithError(err).Warn("could not restore session")
	}

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return err
	}
	defer conn.Close()

	c := client.New(verificationv1.NewVerificationServiceClient(conn), sess, client.WithLogger(log))
	defer c.Close()
	return dispatch(ctx, c, args, bufio.NewScanner(stdin), out)
}

func dispatch(ctx context.Context, c *client.Client, args []string, in *bufio.Scanner, out io.Writer) error {
	cmd, rest := args[0], args[1:]
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(out)
	phone := fs.String("phone", "", "phone number")

	switch cmd {
	case "signup":
		name := fs.String("name", "", "full name")
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		lang := fs.String("lang", "en", "preferred language: en or hi")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		resp, err := call(ctx, func(ctx context.Context) (*verificationv1.SignupResponse, error) {
			return c.Signup(ctx, client.SignupForm{Name: *name, Email: *email, Phone: *phone, Password: *password, PreferredLanguage: *lang})
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(out, resp.Message)
		return awaitCode(ctx, c, in, out)

	case "login":
		password := fs.String("password", "", "password")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		res, err := call(ctx, func(ctx context.Context) (*client.LoginOutcome, error) {
			return c.Login(ctx, *phone, *password)
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(out, res.Message)
		if res.NeedsVerification {
			return awaitCode(ctx, c, in, out)
		}
		greet(out, res.User)
		return nil

	case "verify":
		code := fs.String("code", "", "6-digit code; prompts when empty")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if *phone == "" {
			return client.ErrMissingField
		}
		c.Await(*phone)
		if *code == "" {
			return awaitCode(ctx, c, in, out)
		}
		u, err := call(ctx, func(ctx context.Context) (*verificationv1.User, error) {
			return c.VerifyCode(ctx, *phone, *code)
		})
		if err != nil {
			return err
		}
		greet(out, u)
		return nil

	case "resend":
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if *phone == "" {
			return client.ErrMissingField
		}
		c.Await(*phone)
		resp, err := call(ctx, c.Resend)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, resp.Message)
		return awaitCode(ctx, c, in, out)

	case "whoami":
		u, err := call(ctx, c.WhoAmI)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s <%s> %s (language: %s, verified: %t)\n", u.Name, u.Email, u.Phone, u.PreferredLanguage, u.IsVerified)
		return nil

	case "logout":
		if err := c.Logout(); err != nil {
			return err
		}
		fmt.Fprintln(out, "Logged out.")
		return nil
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func call[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	return fn(ctx)
}

// awaitCode prompts for the code until it verifies, the user quits, or input ends. Entering "r"
// requests a new code once the countdown reaches 0:00.
func awaitCode(ctx context.Context, c *client.Client, in *bufio.Scanner, out io.Writer) error {
	for {
		if c.Timer().CanResend() {
			fmt.Fprintf(out, "Code %s (r to resend, q to quit): ", c.Entry().Masked())
		} else {
			fmt.Fprintf(out, "Code %s (resend in %s, q to quit): ", c.Entry().Masked(), c.Timer())
		}
		if !in.Scan() {
			fmt.Fprintln(out)
			return in.Err()
		}
		switch line := in.Text(); line {
		case "q":
			if phone, ok := c.Pending(); ok {
				fmt.Fprintf(out, "Run \"verify -phone %s\" to finish later.\n", phone)
			}
			return nil
		case "r":
			resp, err := call(ctx, c.Resend)
			if err != nil {
				fmt.Fprintln(out, client.Describe(err))
				continue
			}
			fmt.Fprintln(out, resp.Message)
		default:
			c.Entry().Type(line)
			if !c.Entry().Complete() {
				continue
			}
			u, err := call(ctx, c.Verify)
			if err != nil {
				fmt.Fprintln(out, client.Describe(err))
				c.Entry().Clear()
				continue
			}
			greet(out, u)
			return nil
		}
	}
}

func greet(out io.Writer, u *verificationv1.User) {
	if u == nil {
		return
	}
	fmt.Fprintf(out, "Welcome, %s.\n", u.Name)
}
