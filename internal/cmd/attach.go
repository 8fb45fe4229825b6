package cmd

import (
	"fmt"
	"net"
	"os"
	"os/exec"
	"time"

	"github.com/spf13/cobra"

	"github.com/Gbr22/citymux/internal/client"
	"github.com/Gbr22/citymux/internal/config"
	"github.com/Gbr22/citymux/internal/logger"
)

var attachCreate bool

var attachCmd = &cobra.Command{
	Use:   "attach <session>",
	Short: "Attach this terminal to a session",
	Long: `# citymux attach

**Connects the current terminal to a session.**

With **--create** the session is created if it does not exist, and a
server is started in the background if none is running. Detach with
the prefix key followed by **d**; the session keeps running.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		clientLogging(cfg)

		network, addr := cfg.Endpoint()
		if attachCreate {
			if err := ensureServer(network, addr); err != nil {
				return err
			}
		}
		return client.Run(network, addr, args[0], attachCreate)
	},
}

// clientLogging keeps log output away from the raw-mode terminal.
func clientLogging(cfg *config.Config) {
	if cfg.LogFile != "" {
		if err := logger.ConfigureFile(logger.LevelFromEnv(), cfg.LogFile); err == nil {
			return
		}
	}
	logger.Discard()
}

// ensureServer starts a background server when the endpoint is not
// answering, then waits for it to come up.
func ensureServer(network, addr string) error {
	if conn, err := net.DialTimeout(network, addr, 500*time.Millisecond); err == nil {
		conn.Close()
		return nil
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate own binary: %w", err)
	}
	args := []string{"serve"}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	serve := exec.Command(exe, args...)
	serve.Stdout = nil
	serve.Stderr = nil
	detachProcess(serve)
	if err := serve.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	// The server must outlive this client process.
	_ = serve.Process.Release()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if conn, err := net.DialTimeout(network, addr, 200*time.Millisecond); err == nil {
			conn.Close()
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("server did not start listening on %s", addr)
}

func init() {
	attachCmd.Flags().BoolVarP(&attachCreate, "create", "c", false, "create the session if it does not exist")
	rootCmd.AddCommand(attachCmd)
}
