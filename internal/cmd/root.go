// Package cmd wires the citymux CLI: a detachable terminal
// multiplexer server plus the client commands that talk to it.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/Gbr22/citymux/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "citymux",
	Short: "citymux - a detachable terminal multiplexer",
	Long: `# citymux

**A terminal multiplexer: panes, windows and sessions that survive disconnects.**

## Features

- **Split panes** vertically and horizontally inside resizable windows
- **Detach and re-attach** without interrupting the programs inside
- **Named sessions** managed by a background server
- **Configurable** prefix key, bindings, shell and colors

## Getting Started

Run **citymux attach -c main** to start a session named *main*,
launching the server if none is running.

Press **Ctrl-B %** to split, **Ctrl-B d** to detach.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default "+config.DefaultPath()+")")

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		renderMarkdownHelp(cmd)
	})
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

// renderMarkdownHelp renders command help with glamour, falling back
// to cobra's plain help when rendering fails.
func renderMarkdownHelp(cmd *cobra.Command) {
	var helpContent strings.Builder

	if cmd.Long != "" {
		helpContent.WriteString(cmd.Long)
		helpContent.WriteString("\n\n")
	} else if cmd.Short != "" {
		helpContent.WriteString("# " + cmd.Short)
		helpContent.WriteString("\n\n")
	}

	helpContent.WriteString("## Usage\n\n")
	helpContent.WriteString("```bash\n")
	helpContent.WriteString(cmd.UseLine())
	helpContent.WriteString("\n```\n\n")

	if cmd.HasAvailableSubCommands() {
		helpContent.WriteString("## Available Commands\n\n")
		for _, subCmd := range cmd.Commands() {
			if subCmd.IsAvailableCommand() {
				helpContent.WriteString(fmt.Sprintf("- **%s** - %s\n", subCmd.Name(), subCmd.Short))
			}
		}
		helpContent.WriteString("\n")
	}

	if cmd.HasAvailableFlags() {
		helpContent.WriteString("## Flags\n\n")
		flagUsages := cmd.Flags().FlagUsages()
		if flagUsages != "" {
			helpContent.WriteString("```\n")
			helpContent.WriteString(flagUsages)
			helpContent.WriteString("```\n\n")
		}
	}

	if cmd.HasParent() && cmd.InheritedFlags().HasFlags() {
		helpContent.WriteString("## Global Flags\n\n")
		inheritedUsages := cmd.InheritedFlags().FlagUsages()
		if inheritedUsages != "" {
			helpContent.WriteString("```\n")
			helpContent.WriteString(inheritedUsages)
			helpContent.WriteString("```\n\n")
		}
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		fmt.Print(helpContent.String())
		return
	}

	rendered, err := renderer.Render(helpContent.String())
	if err != nil {
		fmt.Print(helpContent.String())
		return
	}
	fmt.Print(rendered)
}
