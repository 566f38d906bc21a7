// Package config loads env-tagged configuration structs, optionally seeded
// from a .env file during local development. Each config type is parsed once
// per process and cached, so independent packages (pg, redis, wallet,
// billing) load their own Config without duplicating env parsing.
package config
