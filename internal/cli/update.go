package cli

import (
	"context"
	"fmt"
	"os"
)

// Update prompts for an identifier and replacement fields. An empty answer
// keeps the stored value.
func (a *App) Update(ctx context.Context) error {
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

	title, err := getSimpleText(a.reader, fmt.Sprintf("Title [%s]", doc.Title), os.Stdout)
	if err != nil {
		return err
	}
	if title != "" {
		doc.Title = title
	}
	category, err := getSimpleText(a.reader, fmt.Sprintf("Category [%s]", doc.Category), os.Stdout)
	if err != nil {
		return err
	}
	if category != "" {
		doc.Category = category
	}
	notes, err := getMultiline(a.reader, "Notes (empty to keep)", os.Stdout)
	if err != nil {
		return err
	}
	if notes != "" {
		doc.Notes = notes
	}

	if err := a.svc.Update(ctx, doc); err != nil {
		fmt.Println(err.Error())
		return err
	}
	fmt.Printf("Updated %s, now at version %d\n", doc.SyncID, doc.Version)
	return nil
}
