// Package config loads typed configuration structs from environment
// variables using github.com/caarlos0/env field tags. A .env file is
// loaded once per process if present, so local development works without
// exporting variables by hand.
//
// Each package in this repository declares its own Config struct and the
// entrypoint loads them all during startup:
//
//	var cfg mongo.Config
//	config.MustLoad(&cfg)
//
// Missing required variables fail at startup rather than at first use.
package config
