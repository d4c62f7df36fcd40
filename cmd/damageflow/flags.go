package main

// Flag names for Viper binding
const (
	// Global flags
	FlagVerbose    = "verbose"
	FlagConfig     = "config"
	FlagLogFile    = "log-file"
	FlagSocketPath = "socket-path"
	FlagCatalog    = "catalog"

	// Run command flags
	FlagTUI          = "tui"
	FlagHeadless     = "headless"
	FlagCycles       = "cycles"
	FlagStepInterval = "step-interval"
	FlagSettleDelay  = "settle-delay"
	FlagLoopDelay    = "loop-delay"
	FlagBranch       = "branch"
	FlagPaused       = "paused"
	FlagSingleMarker = "single-marker"

	// Output format flags
	FlagJSON = "json"

	// Events command flags
	FlagFollow = "follow"
	FlagCount  = "count"
)
