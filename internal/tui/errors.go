package tui

import "fmt"

// wrapErr prefixes err with what the app was doing; nil stays nil.
func wrapErr(action string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", action, err)
}
