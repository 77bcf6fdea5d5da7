package cli

import (
	"context"
	"fmt"
	"os"
)

// Show prompts for an identifier and prints the full document, including
// its recorded attachments.
func (a *App) Show(ctx context.Context) error {
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

	fmt.Printf("Title:        %s\n", doc.Title)
	fmt.Printf("Category:     %s\n", doc.Category)
	fmt.Printf("Id:           %s\n", doc.SyncID)
	fmt.Printf("Version:      %d\n", doc.Version)
	fmt.Printf("State:        %s\n", doc.SyncState)
	fmt.Printf("Created:      %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Modified:     %s\n", doc.LastModified.Format("2006-01-02 15:04:05"))
	if doc.RenewalDate != nil {
		fmt.Printf("Renewal:      %s\n", doc.RenewalDate.Format("2006-01-02"))
	}
	if doc.Notes != "" {
		fmt.Printf("Notes:\n%s\n", doc.Notes)
	}

	atts, err := a.store.AttachmentsFor(ctx, doc.SyncID)
	if err != nil {
		fmt.Println(err.Error())
		return err
	}
	for _, att := range atts {
		fmt.Printf("Attachment:   %s (%d bytes) %s\n", att.FileName, att.Size, att.LocalPath)
	}
	return nil
}
