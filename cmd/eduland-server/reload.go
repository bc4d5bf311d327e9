package main

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/eduland/eduland-server/internal/config"
	"github.com/eduland/eduland-server/internal/game/catalog"
	"github.com/eduland/eduland-server/internal/gameserver"
)

// watchReloads applies config edits to the running game and reloads the
// catalog when its file changes. A broken edit is logged and the previous
// values stay in effect.
func watchReloads(ctx context.Context, game *gameserver.Server) error {
	if config.ConfigFilePath() != "" {
		config.WatchConfig(func(name string, err error) {
			if err != nil {
				log.Warn().Err(err).Str("file", name).Msg("Ignoring invalid config change")
				return
			}
			game.ApplySettings(gameserver.SettingsFromConfig())
			if path := config.Get().Catalog.Path; path != "" {
				reloadCatalog(game, path)
			}
		})
	}

	path := config.Get().Catalog.Path
	if path == "" {
		<-ctx.Done()
		return nil
	}
	return watchCatalog(ctx, game, path)
}

func watchCatalog(ctx context.Context, game *gameserver.Server, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn().Err(err).Msg("Catalog hot reload disabled")
		<-ctx.Done()
		return nil
	}
	defer watcher.Close()

	// editors replace files, so watch the directory
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		log.Warn().Err(err).Str("file", path).Msg("Catalog hot reload disabled")
		<-ctx.Done()
		return nil
	}
	target := filepath.Clean(path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			reloadCatalog(game, path)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("Catalog watcher error")
		}
	}
}

func reloadCatalog(game *gameserver.Server, path string) {
	cat, err := catalog.LoadFile(path)
	if err != nil {
		log.Error().Err(err).Str("file", path).Msg("Catalog reload failed, keeping the previous one")
		return
	}
	game.ApplyCatalog(cat)
}
