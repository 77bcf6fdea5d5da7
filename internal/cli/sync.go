package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mkarpins/docsync/internal/common"
)

// Sync runs a full synchronization cycle and prints the summary. Transient
// network trouble flips the mode to offline instead of failing loudly;
// queued work survives for the next attempt.
func (a *App) Sync(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Println("Login first.")
		return nil
	}
	summary, err := a.orch.PerformSync(ctx)
	if err != nil {
		if errors.Is(err, common.ErrTransientNetwork) || errors.Is(err, common.ErrRetryBudgetExhausted) {
			a.setMode(ModeOffline)
			fmt.Println("Server unreachable, working offline.")
			return nil
		}
		fmt.Println(err.Error())
		return err
	}
	a.setMode(ModeOnline)

	fmt.Printf("Synced in %s: %d up, %d down, %d deleted, %d failed\n",
		summary.Duration.Round(time.Millisecond), summary.Uploaded, summary.Downloaded,
		summary.Deleted, summary.Failed)
	for _, serr := range summary.Errors {
		fmt.Println("  -", serr.Error())
	}
	return nil
}

// SyncOne synchronizes a single document by identifier, attachments
// included.
func (a *App) SyncOne(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Println("Login first.")
		return nil
	}
	id, err := getSimpleText(a.reader, "Enter document id", os.Stdout)
	if err != nil {
		return err
	}
	if err := a.orch.SyncDocument(ctx, id); err != nil {
		fmt.Println(err.Error())
		return err
	}
	fmt.Println("Done.")
	return nil
}
