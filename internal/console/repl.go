package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// execIface is the command surface the REPL dispatches to. App satisfies it;
// tests provide a stub.
type execIface interface {
	User(ctx context.Context, args []string) error
	Passwd(ctx context.Context, args []string) error
	CheckPassword(ctx context.Context, args []string) error
	Projects(ctx context.Context, args []string) error
	NewProject(ctx context.Context, args []string) error
	Files(ctx context.Context, args []string) error
	Put(ctx context.Context, args []string) error
	Get(ctx context.Context, args []string) error
	Remove(ctx context.Context, args []string) error
	Link(ctx context.Context, args []string) error
	Resolve(ctx context.Context, args []string) error
	Allow(ctx context.Context, args []string) error
	Allowed(ctx context.Context, args []string) error
	Motd(ctx context.Context, args []string) error
	Sweep(ctx context.Context) error
}

const helpText = `Available commands:
  user <id> [email]                      find or create a user
  passwd <user>                          set a password
  checkpw <user>                         verify a password
  projects <user>                        list projects
  newproject <user> <name>               create a project
  files <user> <project>                 list project files
  put <user> <project> <name> <path> [force]
  get <user> <project> <name>            save a file under ./downloads
  rm <user> <project> <name>             delete a file
  link <user> <project>                  issue a download link
  resolve <token>                        resolve a download link
  allow <email> | allowed <email>        manage the allow-list
  motd [set]                             show or set the message of the day
  sweep                                  delete expired tokens
  exit | quit`

// runREPL reads commands from reader until EOF or "exit". Command errors
// are printed and the loop goes on. Commands that prompt read from the same
// reader.
func runREPL(ctx context.Context, a execIface, reader *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprint(w, "st> ")
		line, rerr := reader.ReadString('\n')
		if rerr != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			fmt.Fprintln(w, helpText)
		case "user":
			err = a.User(ctx, args)
		case "passwd":
			err = a.Passwd(ctx, args)
		case "checkpw":
			err = a.CheckPassword(ctx, args)
		case "projects":
			err = a.Projects(ctx, args)
		case "newproject":
			err = a.NewProject(ctx, args)
		case "files", "ls":
			err = a.Files(ctx, args)
		case "put":
			err = a.Put(ctx, args)
		case "get":
			err = a.Get(ctx, args)
		case "rm":
			err = a.Remove(ctx, args)
		case "link":
			err = a.Link(ctx, args)
		case "resolve":
			err = a.Resolve(ctx, args)
		case "allow":
			err = a.Allow(ctx, args)
		case "allowed":
			err = a.Allowed(ctx, args)
		case "motd":
			err = a.Motd(ctx, args)
		case "sweep":
			err = a.Sweep(ctx)
		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return
		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}

		if err != nil {
			fmt.Fprintln(w, "error:", err)
		}
	}
}
