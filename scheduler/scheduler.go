package scheduler

// Package scheduler provides scheduled job management for the NSE
// screener backend. It handles:
// - Daily indicator refresh after market close
// - Archiving each day's snapshot to MongoDB
//
// The main scheduler is implemented in jobs.go
