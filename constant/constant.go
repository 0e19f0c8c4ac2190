package constant

import "os"

// <NodeDir>/                 (e.g., /home/trevee/.tsupply)
// └── config/
//	└── tsupply_config.json

const (
	AppName = "tsupplyd"

	NodeDir = ".tsupply"

	ConfigSubdir   = "config"
	ConfigFileName = "tsupply_config.json"
)

// Version info, overridable at build time via -ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

var DefaultNodeHome = os.ExpandEnv("$HOME/") + NodeDir
