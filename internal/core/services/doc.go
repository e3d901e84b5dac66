// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Scheduling is the one place a service reaches for third-party code:
// cron parsing uses gorhill/cronexpr and scheduled runs share an
// ants worker pool.
package services
