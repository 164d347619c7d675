//go:build linux

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kelpdock/nsnet/api"
	"github.com/kelpdock/nsnet/watch"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the namespace watcher.",
	Run: func(cmd *cobra.Command, args []string) {
		conf, err := ReadConf(confFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "couldn't read the configuration: %v\n", err)
			os.Exit(1)
		}
		slog.Debug("parsed configuration", "conf", conf)

		if conf.PidPath != "" {
			if err := os.WriteFile(conf.PidPath, []byte(strconv.Itoa(os.Getpid())), 0644); err != nil {
				slog.Warn("couldn't write the pid file", "path", conf.PidPath, "err", err)
			}
			defer os.Remove(conf.PidPath)
		}

		done := make(chan struct{})

		if conf.Watch != nil {
			w := watch.New(conf.Watch)
			events := make(chan watch.Event, conf.Watch.Backlog)
			go w.Run(done, events)
			go func() {
				for ev := range events {
					slog.Info("namespace change", "type", ev.Type.String(),
						"name", ev.Name, "interfaces", len(ev.Interfaces))
				}
			}()
		}

		if conf.Api == nil {
			fmt.Fprintln(os.Stderr, "no api section in the configuration; nothing to serve")
			os.Exit(1)
		}

		server := api.New(conf.Api)
		if err := server.Init(); err != nil {
			fmt.Fprintf(os.Stderr, "couldn't initialise the API server: %v\n", err)
			os.Exit(1)
		}
		defer func() {
			if err := server.Cleanup(); err != nil {
				slog.Error("error cleaning up the API server", "err", err)
			}
		}()

		go server.Run(done)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		close(done)
	},
}
