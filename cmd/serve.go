package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/scitags/nlcodec/api"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the decoding API until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConf()
		if err != nil {
			return err
		}
		slog.Debug("loaded the configuration", "conf", conf)

		codec, reg, err := createCodec(conf)
		if err != nil {
			return err
		}

		services := []service{api.New(&conf.Api, codec, reg)}
		if err := initServices(services); err != nil {
			return err
		}
		defer cleanupServices(services)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		doneChan := make(chan struct{})
		for _, s := range services {
			go s.Run(doneChan)
		}

		sig := <-sigChan
		slog.Info("caught a signal, exiting", "signal", sig)
		close(doneChan)

		return nil
	},
}
