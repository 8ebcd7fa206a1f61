package commands

import (
	internalcmd "github.com/Nathan-Furnal/blog/internal/commands"
	"github.com/Nathan-Furnal/blog/pkg/interfaces"
)

// CommandLogger returns the module-scoped logger command handlers use.
func CommandLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	return internalcmd.CommandLogger(provider, module)
}
