package tui

import (
	"fmt"
	"strings"
)

// Canonical short status messages used across the app.
const (
	MsgLoading        = "Loading…"
	MsgLoadingMore    = "Loading more…"
	MsgNothingHere    = "Nothing here yet"
	MsgSigningIn      = "Signing in…"
	MsgRegistering    = "Creating account…"
	MsgPublishing     = "Publishing…"
	MsgDeleting       = "Deleting…"
	MsgLoadingItem    = "Loading…"
	MsgNoResults      = "No results"
	MsgSignedOut      = "Signed out"
	MsgDeleted        = "Deleted"
	MsgDraftSaved     = "Draft kept; fix the form and submit again"
	MsgLoginToSee     = "Log in to see posts from people you follow"
	MsgLoginToAct     = "Log in to like, bookmark or follow"
	MsgNoImage        = "No image for this item"
	MsgHistoryCleared = "History cleared"
	MsgBanned         = "User banned"
)

func MsgSignedIn(username string) string {
	return fmt.Sprintf("Signed in as %s", strings.TrimSpace(username))
}

func MsgPublished(kind, title string) string {
	return fmt.Sprintf("Published %s '%s'", kind, strings.TrimSpace(title))
}

func MsgResultsCount(n int) string {
	return countLabel(n, "result", "results")
}

func MsgHistorySummary(entries, docCount int) string {
	base := fmt.Sprintf("%d opened", entries)
	if docCount >= 0 {
		base += fmt.Sprintf(" • idx: %d docs", docCount)
	}
	return base
}
