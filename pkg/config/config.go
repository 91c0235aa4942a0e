package config

import "github.com/padqueue/padqueue/internal/testbench"

// Config is an alias for testbench.Config, exposing the load configuration
// outside the internal tree.
type Config = testbench.Config
