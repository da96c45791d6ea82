/*
Package log provides structured logging for Storefront built on zerolog.

A single global logger is initialized once at process start and shared by
all packages. Child loggers carry contextual fields so every line from a
given component or store lifecycle is correlatable.

# Usage

Initialization (done once, in cmd/storefront):

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: cfg.IsProduction(),
	})

Component loggers:

	logger := log.WithComponent("provisioner")
	logger.Info().Str("store_id", id).Msg("provisioning started")

Store-scoped loggers:

	logger := log.WithStoreID(store.ID)
	logger.Warn().Err(err).Msg("uninstall failed, continuing with namespace delete")

# Output Formats

Console output (development): human-readable, RFC3339 timestamps.
JSON output (production): one JSON object per line for log aggregation.

# Conventions

  - component: the emitting subsystem (api, provisioner, reconciler, registry)
  - store_id: present on every line about a specific store
  - request_id: present on API request logs
  - Err(err) for errors, never string-formatted into the message
*/
package log
