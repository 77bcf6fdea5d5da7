package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mkarpins/docsync/internal/models"
)

// getSimpleText and getMultiline are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getMultiline = GetMultiline

// Add prompts for document fields and stores a new document. The sync
// identifier is assigned immediately; the upload happens on the next sync.
func (a *App) Add(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Println("Login first.")
		return nil
	}
	title, err := getSimpleText(a.reader, "Enter title", os.Stdout)
	if err != nil {
		return err
	}
	category, err := getSimpleText(a.reader, "Enter category", os.Stdout)
	if err != nil {
		return err
	}
	notes, err := getMultiline(a.reader, "Enter notes", os.Stdout)
	if err != nil {
		return err
	}

	doc := &models.Document{Title: title, Category: category, Notes: notes}

	renewal, err := getSimpleText(a.reader, "Renewal date (YYYY-MM-DD, empty to skip)", os.Stdout)
	if err != nil {
		return err
	}
	if renewal != "" {
		parsed, perr := time.Parse("2006-01-02", renewal)
		if perr != nil {
			fmt.Println("Invalid date:", perr.Error())
			return perr
		}
		doc.RenewalDate = &parsed
	}

	attachment, err := getSimpleText(a.reader, "Attachment path (empty to skip)", os.Stdout)
	if err != nil {
		return err
	}
	if attachment != "" {
		if _, serr := os.Stat(attachment); serr != nil {
			fmt.Println("Cannot read attachment:", serr.Error())
			return serr
		}
		doc.AttachedFilePaths = []string{attachment}
	}

	if err := a.svc.Add(ctx, doc); err != nil {
		fmt.Println(err.Error())
		return err
	}

	fmt.Printf("Added %s (%s)\n", doc.Title, doc.SyncID)
	return nil
}
