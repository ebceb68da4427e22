package main

import (
	"strconv"

	"github.com/TFMV/keydiff/api"
	"github.com/TFMV/keydiff/logger"
	"github.com/spf13/cobra"
)

// newServeCommand starts the HTTP API.
func newServeCommand(global *globalOptions) *cobra.Command {
	var port int
	var prefork bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the keydiff HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(global)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("prefork") {
				cfg.Server.Prefork = prefork
			}

			s := api.NewServer(api.ServerOptions{
				Port:    strconv.Itoa(cfg.Server.Port),
				Prefork: cfg.Server.Prefork,
				Logger:  logger.GetLogger(),
			})
			return s.Start()
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to listen on")
	cmd.Flags().BoolVar(&prefork, "prefork", false, "Use multiple OS processes")
	return cmd
}
