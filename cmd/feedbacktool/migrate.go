package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/soaringjerry/feedbacktool/internal/db"
	"github.com/soaringjerry/feedbacktool/internal/models"
)

// legacySession is the JSON file older releases kept the session in.
type legacySession struct {
	Token string       `json:"jwt_token"`
	User  *models.User `json:"user_data"`
}

// importLegacySession copies a legacy session file into an empty store once and renames it
// so it is not picked up again.
func importLegacySession(ctx context.Context, path string, store *db.SQLiteStore, log *slog.Logger) error {
	if path == "" {
		return nil
	}
	token, _, err := store.LoadSession(ctx)
	if err != nil {
		return fmt.Errorf("check stored session: %w", err)
	}
	if token != "" {
		return nil // already have one
	}
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from config
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read legacy session: %w", err)
	}
	var legacy legacySession
	if err := json.Unmarshal(data, &legacy); err != nil {
		log.Warn("legacy session file is unreadable, skipping", "path", path, "error", err)
		return nil
	}
	if strings.TrimSpace(legacy.Token) == "" {
		return nil
	}

	log.Info("importing legacy session", "path", path)
	if err := store.SaveToken(ctx, legacy.Token); err != nil {
		return fmt.Errorf("import legacy token: %w", err)
	}
	if legacy.User != nil {
		if err := store.SaveProfile(ctx, legacy.User); err != nil {
			return fmt.Errorf("import legacy profile: %w", err)
		}
	}
	if err := os.Rename(path, path+".imported"); err != nil {
		log.Warn("failed to rename legacy session file", "path", path, "error", err)
	}
	return nil
}
