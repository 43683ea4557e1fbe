// Package main hosts the reelfeed CLI entrypoint and command graph.
//
// The Cobra-based command tree surfaces the client engine on the terminal:
// catalog browsing, the episode watch loop driving an external player,
// unlocks, coin top-ups, and configuration scaffolding. It centralizes
// configuration resolution and logging setup so subcommands can focus on
// user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
