package cli

import (
	"bufio"
	"context"
	"os"

	"github.com/mkarpins/docsync/internal/config"
	"github.com/mkarpins/docsync/internal/logging"
	"github.com/mkarpins/docsync/internal/store"
	"github.com/mkarpins/docsync/internal/sync"

	_ "modernc.org/sqlite"
)

type Mode string

const (
	ModeSignedOut Mode = "signed out"
	ModeOnline    Mode = "online"
	ModeOffline   Mode = "offline"
)

// App holds the wired-up client. The store, services and orchestrator only
// exist between Login and Logout; every command checks isLoggedIn first.
type App struct {
	config *config.Config
	log    logging.Logger
	reader *bufio.Reader
	Mode   Mode

	ownerID string
	store   *store.Store
	queue   *sync.Queue
	svc     *sync.Service
	orch    *sync.Orchestrator
}

func NewApp(c *config.Config, log logging.Logger) *App {
	if log == nil {
		log = logging.Nop{}
	}
	return &App{
		config: c,
		log:    log,
		reader: bufio.NewReader(os.Stdin),
		Mode:   ModeSignedOut,
	}
}

func (a *App) Run(ctx context.Context) {
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.store != nil
}

func (a *App) setMode(mode Mode) {
	if a.Mode != mode {
		a.Mode = mode
		a.log.Info(context.Background(), "mode changed", "mode", string(mode))
	}
}
