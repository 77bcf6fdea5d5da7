package cli

import (
	"context"
	"fmt"
	"os"
)

// Delete marks a document for deletion after an explicit confirmation. The
// remote copy goes away on the next sync; the identity is tombstoned so no
// replica can bring it back.
func (a *App) Delete(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Println("Login first.")
		return nil
	}
	id, err := getSimpleText(a.reader, "Enter document id", os.Stdout)
	if err != nil {
		return err
	}
	doc, err := a.svc.Get(ctx, id)
	if err != nil {
		fmt.Println(err.Error())
		return err
	}

	answer, err := getSimpleText(a.reader, fmt.Sprintf("Delete %q? (y/N)", doc.Title), os.Stdout)
	if err != nil {
		return err
	}
	if answer != "y" && answer != "yes" {
		fmt.Println("Cancelled.")
		return nil
	}

	if err := a.svc.Delete(ctx, doc.SyncID); err != nil {
		fmt.Println(err.Error())
		return err
	}
	fmt.Println("Marked for deletion.")
	return nil
}
