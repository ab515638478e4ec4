// Package xbps adapts the local XBPS package manager tooling
// (xbps-install, xbps-query, xbps-remove, xbps-uhelper) behind an
// injectable command runner.
//
// # Overview
//
// Two kinds of operations are exposed:
//
//   - Probes: architecture detection, installed checks, version lookups,
//     and version comparison. These capture command output and never touch
//     the system.
//   - Mutations: install, remove, and upgrade. These run interactively,
//     inheriting the caller's terminal so sudo and XBPS's own confirmation
//     prompts work as usual.
//
// # Testing
//
// All operations go through a [CommandFunc]. The default, [ExecCommand],
// shells out with os/exec; tests substitute a fake that returns canned
// [CommandResult] values, so no XBPS binaries are needed to exercise the
// resolver or planner.
package xbps
