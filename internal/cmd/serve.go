package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Gbr22/citymux/internal/config"
	"github.com/Gbr22/citymux/internal/logger"
	"github.com/Gbr22/citymux/internal/server"
)

var servePersist bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the multiplexer server in the foreground",
	Long: `# citymux serve

**Runs the session server in the foreground.**

The server owns all sessions and their child processes. Clients attach
over the local endpoint; it exits when its last session closes unless
**--persist** is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.LogFile != "" {
			if err := logger.ConfigureFile(logger.LevelFromEnv(), cfg.LogFile); err != nil {
				return err
			}
		} else {
			logger.Configure(logger.LevelFromEnv(), os.Stderr, true)
		}

		srv := server.New(cfg, servePersist)

		stopWatch, err := config.Watch(configPath, srv.SetConfig)
		if err != nil {
			logger.Logger.Warn().Err(err).Msg("config watch unavailable")
		} else {
			defer stopWatch()
		}

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sig
			logger.Logger.Info().Msg("signal received, shutting down")
			srv.Shutdown()
		}()

		return srv.Run()
	},
}

func init() {
	serveCmd.Flags().BoolVar(&servePersist, "persist", false, "keep running after the last session closes")
	rootCmd.AddCommand(serveCmd)
}
