package console

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/dmitrijs2005/gophstore/internal/logging"
	"github.com/dmitrijs2005/gophstore/internal/server"
	"github.com/dmitrijs2005/gophstore/internal/server/config"
	"github.com/dmitrijs2005/gophstore/internal/server/storage"
)

const downloadsDir = "downloads"

type App struct {
	store  *storage.Store
	closer io.Closer
	reader *bufio.Reader
	out    io.Writer
}

// NewApp opens the store described by c the way the server does.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	srv, err := server.NewApp(ctx, c, logger)
	if err != nil {
		return nil, err
	}
	return &App{store: srv.Store(), closer: srv, reader: bufio.NewReader(os.Stdin), out: os.Stdout}, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.closer.Close()
	a.Root(ctx)
}

func (a *App) Root(ctx context.Context) {
	runREPL(ctx, a, a.reader, a.out)
}
