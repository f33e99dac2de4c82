package console

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/cryptox"
	"github.com/dmitrijs2005/gophstore/internal/filex"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
	"github.com/dmitrijs2005/gophstore/internal/server/storage"
)

var errUsage = errors.New("usage")

func need(args []string, n int, usage string) error {
	if len(args) < n {
		return fmt.Errorf("%w: %s", errUsage, usage)
	}
	return nil
}

func projectID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad project id %q", s)
	}
	return id, nil
}

func (a *App) User(ctx context.Context, args []string) error {
	if err := need(args, 1, "user <id> [email]"); err != nil {
		return err
	}
	email := ""
	if len(args) > 1 {
		email = args[1]
	}

	u, err := a.store.FindOrCreateUser(ctx, args[0], email, false)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s\t%s\tadmin=%v\ttos=%v\n", u.ID, u.Email, u.IsAdmin, u.TosAccepted)
	return nil
}

func (a *App) Passwd(ctx context.Context, args []string) error {
	if err := need(args, 1, "passwd <user>"); err != nil {
		return err
	}
	pw, err := GetPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	if err := a.store.SetUserPassword(ctx, args[0], cryptox.HashPassword(string(pw))); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Password updated")
	return nil
}

func (a *App) CheckPassword(ctx context.Context, args []string) error {
	if err := need(args, 1, "checkpw <user>"); err != nil {
		return err
	}
	u, err := a.store.GetUser(ctx, args[0])
	if err != nil {
		return err
	}
	pw, err := GetPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	ok, err := cryptox.VerifyPassword(u.Password, string(pw))
	if err != nil {
		return err
	}
	if ok {
		fmt.Fprintln(a.out, "Password matches")
	} else {
		fmt.Fprintln(a.out, "Password does not match")
	}
	return nil
}

func (a *App) Projects(ctx context.Context, args []string) error {
	if err := need(args, 1, "projects <user>"); err != nil {
		return err
	}
	list, err := a.store.GetProjects(ctx, args[0])
	if err != nil {
		return err
	}
	for _, p := range list {
		fmt.Fprintf(a.out, "%d\t%s\t%s\t%s\ttrashed=%v\n", p.ID, p.Name, p.State, p.DateModified.Format("2006-01-02 15:04:05"), p.Trashed)
	}
	return nil
}

func (a *App) NewProject(ctx context.Context, args []string) error {
	if err := need(args, 2, "newproject <user> <name>"); err != nil {
		return err
	}
	id, err := a.store.CreateProject(ctx, args[0], storage.NewProject{Name: args[1], Type: "YoungAndroid"})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Created project", id)
	return nil
}

func (a *App) Files(ctx context.Context, args []string) error {
	if err := need(args, 2, "files <user> <project>"); err != nil {
		return err
	}
	pid, err := projectID(args[1])
	if err != nil {
		return err
	}
	names, err := a.store.ListProjectFiles(ctx, args[0], pid, models.RoleNone)
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Fprintln(a.out, n)
	}
	return nil
}

func (a *App) Put(ctx context.Context, args []string) error {
	if err := need(args, 4, "put <user> <project> <name> <path> [force]"); err != nil {
		return err
	}
	pid, err := projectID(args[1])
	if err != nil {
		return err
	}
	data, err := os.ReadFile(args[3])
	if err != nil {
		return err
	}

	res, err := a.store.UploadProjectFile(ctx, storage.Upload{
		UserID:    args[0],
		ProjectID: pid,
		Name:      args[2],
		Content:   data,
		Force:     len(args) > 4 && args[4] == "force",
	})
	if errors.Is(err, common.ErrTruncationSuspected) {
		fmt.Fprintln(a.out, "Upload looks like a truncation; repeat with 'force' to store it anyway")
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Stored %d bytes, project modified %s", len(data), res.LastModified.Format("2006-01-02 15:04:05"))
	if res.TierChanged {
		fmt.Fprint(a.out, " (storage tier changed)")
	}
	fmt.Fprintln(a.out)
	return nil
}

func (a *App) Get(ctx context.Context, args []string) error {
	if err := need(args, 3, "get <user> <project> <name>"); err != nil {
		return err
	}
	pid, err := projectID(args[1])
	if err != nil {
		return err
	}
	fc, err := a.store.GetProjectFile(ctx, args[0], pid, args[2])
	if err != nil {
		return err
	}
	path, err := filex.Save(downloadsDir, args[2], fc.Content)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved %d bytes (%s, %s) to %s\n", len(fc.Content), fc.Role, fc.Tier, path)
	return nil
}

func (a *App) Remove(ctx context.Context, args []string) error {
	if err := need(args, 3, "rm <user> <project> <name>"); err != nil {
		return err
	}
	pid, err := projectID(args[1])
	if err != nil {
		return err
	}
	res, err := a.store.DeleteProjectFile(ctx, args[0], pid, args[2])
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Deleted", args[2])
	if res.OverflowDeleted != "" {
		fmt.Fprintln(a.out, "Overflow object removed:", res.OverflowDeleted)
	}
	return nil
}

func (a *App) Link(ctx context.Context, args []string) error {
	if err := need(args, 2, "link <user> <project>"); err != nil {
		return err
	}
	pid, err := projectID(args[1])
	if err != nil {
		return err
	}
	token, err := a.store.IssueDownloadLink(ctx, args[0], pid)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, token)
	return nil
}

func (a *App) Resolve(ctx context.Context, args []string) error {
	if err := need(args, 1, "resolve <token>"); err != nil {
		return err
	}
	n, err := a.store.ResolveDownloadLink(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "user %s, project %d, issued %s\n", n.UserID, n.ProjectID, n.Created.Format("2006-01-02 15:04:05"))
	return nil
}

func (a *App) Allow(ctx context.Context, args []string) error {
	if err := need(args, 1, "allow <email>"); err != nil {
		return err
	}
	if err := a.store.AllowEmail(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Allowed", args[0])
	return nil
}

func (a *App) Allowed(ctx context.Context, args []string) error {
	if err := need(args, 1, "allowed <email>"); err != nil {
		return err
	}
	ok, err := a.store.IsEmailAllowed(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, ok)
	return nil
}

func (a *App) Motd(ctx context.Context, args []string) error {
	if len(args) > 0 && args[0] == "set" {
		text, err := GetMultiline(a.reader, "Message of the day", a.out)
		if err != nil {
			return err
		}
		return a.store.StoreSetting(ctx, models.KindMotd, text)
	}

	text, err := a.store.GetSetting(ctx, models.KindMotd)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		fmt.Fprintln(a.out, "(no message)")
		return nil
	}
	fmt.Fprintln(a.out, text)
	return nil
}

func (a *App) Sweep(ctx context.Context) error {
	nonces, err := a.store.CleanupNonces(ctx)
	if err != nil {
		return err
	}
	tokens, err := a.store.CleanupExpiredResetTokens(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %d nonces, %d reset tokens\n", nonces, tokens)
	return nil
}
