// Package config loads the client configuration.
//
// Settings come from three places, later ones winning:
//
//   - the defaults returned by Default
//   - a TOML or YAML file, chosen by extension
//   - ANACLIENT_ environment variables, e.g. ANACLIENT_ENGINE_STOP_TIMEOUT=10s
//
// Durations are written as strings ("500ms", "2s"). A Watcher reloads the
// file when it changes:
//
//	cfg, err := config.Load("anaclient.toml")
//	if err != nil {
//	    return err
//	}
//	go config.Watch(ctx, "anaclient.toml", func(cfg *config.Config, err error) {
//	    if err != nil {
//	        return
//	    }
//	    if level, err := logging.ParseLevel(cfg.Logging.Level); err == nil {
//	        log.SetLevel(level)
//	    }
//	})
package config
