// Package transaction turns a resolution into an ordered, executable
// plan and applies it against the system package manager.
//
// Planning is all or nothing: a resolution with missing packages is
// rejected outright, so nothing is installed when any part of the
// dependency graph cannot be satisfied.
//
// Execution is strictly sequential in item order and halts at the
// first failure. Completed steps are not rolled back; XBPS transactions
// are atomic per package, so a halted run leaves a prefix of the plan
// installed and nothing half done.
//
// Items default to discovery order, the target first. PlanOptions can
// request a topological reordering so dependencies install before
// their dependents.
package transaction
