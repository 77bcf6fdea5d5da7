package cli

import (
	"context"
	"fmt"
)

// List prints every document for the current owner, one per line.
func (a *App) List(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Println("Login first.")
		return nil
	}
	docs, err := a.svc.List(ctx)
	if err != nil {
		fmt.Println(err.Error())
		return err
	}
	if len(docs) == 0 {
		fmt.Println("No documents yet.")
		return nil
	}
	for _, d := range docs {
		id := d.SyncID
		if id == "" {
			id = fmt.Sprintf("local#%d", d.LocalID)
		}
		fmt.Printf("%-36s  v%-3d  %-15s  %-12s  %s\n",
			id, d.Version, d.SyncState, d.Category, d.Title)
	}
	return nil
}
