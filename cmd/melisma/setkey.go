package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/sydlexius/melisma/internal/provider"
)

// runSetKey stores an API key for a provider, prompting without echo.
func runSetKey(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: melisma set-key <provider>")
	}
	name := provider.ProviderName(strings.ToLower(args[0]))
	switch name {
	case provider.NameLastFM:
	default:
		return fmt.Errorf("provider %q does not take an API key", args[0])
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	fmt.Printf("Enter API key for %s: ", name.DisplayName())
	key, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("reading key: %w", err)
	}
	if len(key) == 0 {
		return fmt.Errorf("empty key")
	}

	if err := a.settings.SetAPIKey(context.Background(), name, string(key)); err != nil {
		return err
	}
	fmt.Printf("Stored API key for %s\n", name.DisplayName())
	return nil
}
