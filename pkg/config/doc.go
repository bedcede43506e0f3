// Package config loads, validates, and watches the gateway configuration.
//
// Configuration comes from a YAML file, with defaults applied for every
// omitted field and NEURONGATE_* environment variables taking precedence
// over the file. The limits section can be hot-reloaded at runtime via the
// file watcher, so budget changes do not require a restart.
package config
