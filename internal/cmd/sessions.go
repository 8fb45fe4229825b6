package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Gbr22/citymux/internal/client"
	"github.com/Gbr22/citymux/internal/logger"
)

var (
	nameStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	attachedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	detachedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	countStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
)

var listCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list-sessions"},
	Short:   "List sessions on the running server",
	RunE: func(cmd *cobra.Command, args []string) error {
		network, addr, err := endpoint()
		if err != nil {
			return err
		}
		sessions, err := client.ListSessions(network, addr)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Println("no sessions")
			return nil
		}
		for _, s := range sessions {
			state := detachedStyle.Render("detached")
			if s.Attached {
				state = attachedStyle.Render("attached")
			}
			fmt.Printf("%s: %s %s (created %s)\n",
				nameStyle.Render(s.Name),
				countStyle.Render(fmt.Sprintf("%d windows, %d panes", s.Windows, s.Panes)),
				state,
				s.Created.Format("2006-01-02 15:04:05"),
			)
		}
		return nil
	},
}

var newDetached bool

var newCmd = &cobra.Command{
	Use:   "new <session>",
	Short: "Create a session, attaching unless -d is given",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("session name required")
		}
		name := args[0]
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		network, addr := cfg.Endpoint()
		if err := ensureServer(network, addr); err != nil {
			return err
		}

		if newDetached {
			rows, cols := 24, 80
			if term.IsTerminal(int(os.Stdout.Fd())) {
				if c, r, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
					rows, cols = r, c
				}
			}
			info, err := client.CreateSession(network, addr, name, rows, cols)
			if err != nil {
				return err
			}
			fmt.Printf("created session %s\n", nameStyle.Render(info.Name))
			return nil
		}

		clientLogging(cfg)
		return client.Run(network, addr, name, true)
	},
}

var killCmd = &cobra.Command{
	Use:   "kill <session>",
	Short: "Kill a session and its processes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		network, addr, err := endpoint()
		if err != nil {
			return err
		}
		if err := client.KillSession(network, addr, args[0]); err != nil {
			return err
		}
		fmt.Printf("killed session %s\n", args[0])
		return nil
	},
}

var shutdownCmd = &cobra.Command{
	Use:   "shutdown",
	Short: "Stop the server, closing all sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		network, addr, err := endpoint()
		if err != nil {
			return err
		}
		return client.ShutdownServer(network, addr)
	},
}

func endpoint() (string, string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return "", "", err
	}
	logger.Discard()
	network, addr := cfg.Endpoint()
	return network, addr, nil
}

func init() {
	newCmd.Flags().BoolVarP(&newDetached, "detached", "d", false, "create without attaching")
	rootCmd.AddCommand(listCmd, newCmd, killCmd, shutdownCmd)
}
