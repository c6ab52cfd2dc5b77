package config

// Build tool command the pipeline runs under.
// ENUM(build, serve)
type BuildCommand int
