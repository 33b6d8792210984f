package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/anonto42/bloglist/backend/internal/client"
)

const usage = `usage: blogcli [-server URL] [-session FILE] <command> [args]

commands:
  register <username> [name]    create an account (password prompted)
  login <username>              sign in and remember the session
  logout                        forget the saved session
  blogs                         list every blog
  blog <id>                     show one blog with its comments
  create -title T -url U [-author A] [-likes N]
  like <id>                     add one like
  delete <id>                   delete a blog you created
  comment <id> <text>           comment on a blog
  users                         list users and their blogs
  stats                         total likes, top author, favorite blog
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("blogcli", flag.ContinueOnError)
	fs.SetOutput(stdout)
	fs.Usage = func() { fmt.Fprint(stdout, usage) }
	server := fs.String("server", envOr("BLOGLIST_URL", "http://localhost:3001"), "API base URL")
	sessionPath := fs.String("session", envOr("BLOGLIST_SESSION", defaultSessionPath()), "session file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("missing command")
	}

	session, err := client.LoadSession(*sessionPath)
	if err != nil {
		return err
	}
	app := &app{
		api:         client.New(*server, session),
		sessionPath: *sessionPath,
		in:          newInput(stdin, stdout),
		out:         stdout,
	}
	return app.dispatch(ctx, fs.Arg(0), fs.Args()[1:])
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".bloglist-session.json"
	}
	return filepath.Join(dir, "bloglist", "session.json")
}
