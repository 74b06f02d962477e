package errors

import (
	"sort"
	"sync"
)

// Template defines a registered error code.
type Template struct {
	Category Category
	Message  string
	Detail   string
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Template)
)

func init() {
	for code, t := range builtin {
		Register(code, t)
	}
}

var builtin = map[string]Template{
	// Configuration (SB100-SB199)
	"SB100": {
		Category: CategoryConfig,
		Message:  "Config file not found",
		Detail:   "No sliderbind.json, sliderbind.yaml or sliderbind.yml was found in the directory or any parent.",
	},
	"SB101": {
		Category: CategoryConfig,
		Message:  "Config file could not be parsed",
		Detail:   "The file is not valid JSON or YAML for its extension.",
	},
	"SB102": {
		Category: CategoryConfig,
		Message:  "Invalid config value",
		Detail:   "A field holds a value outside its allowed range.",
	},
	"SB103": {
		Category: CategoryConfig,
		Message:  "Config file could not be written",
	},
	"SB104": {
		Category: CategoryConfig,
		Message:  "Config file already exists",
		Detail:   "Refusing to overwrite an existing config file.",
	},

	// Command line (SB200-SB299)
	"SB200": {
		Category: CategoryCLI,
		Message:  "Invalid flag value",
	},
	"SB201": {
		Category: CategoryCLI,
		Message:  "Server request failed",
		Detail:   "The command could not reach a running sliderbind server or it answered with an error.",
	},
	"SB202": {
		Category: CategoryCLI,
		Message:  "Command failed",
		Detail:   "The command line could not be parsed or the command stopped with an error.",
	},

	// Server (SB300-SB399)
	"SB300": {
		Category: CategoryServer,
		Message:  "Server failed to start",
		Detail:   "The listen address may be in use or not permitted.",
	},
	"SB301": {
		Category: CategoryServer,
		Message:  "Unknown page",
		Detail:   "The configured default page is not registered with the server.",
	},
	"SB302": {
		Category: CategoryServer,
		Message:  "Shutdown timed out",
		Detail:   "Sessions were still open when the shutdown timeout expired.",
	},

	// Protocol (SB400-SB499)
	"SB400": {
		Category: CategoryProtocol,
		Message:  "Invalid input message",
		Detail:   "An input message must be a JSON object with an id and a message carrying label, value, min, max, step, round, format or locale.",
	},

	// Snapshots (SB500-SB599)
	"SB500": {
		Category: CategorySnapshot,
		Message:  "Snapshot store could not be created",
	},
	"SB501": {
		Category: CategorySnapshot,
		Message:  "Unknown snapshot store kind",
		Detail:   "snapshot.kind must be one of memory, disk, s3 or empty to disable snapshots.",
	},
}

// GetAllCodes returns every registered code, sorted.
func GetAllCodes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template registered for code.
func GetTemplate(code string) (Template, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	t, ok := registry[code]
	return t, ok
}

// Register adds or replaces a code.
func Register(code string, t Template) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[code] = t
}
