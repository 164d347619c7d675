//go:build linux

package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/kelpdock/nsnet/watch"
)

var (
	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Follow named network namespaces as they come and go.",
		Run: func(cmd *cobra.Command, args []string) {
			w := watch.New(&watch.Config{
				Dir:       watchDirFlag,
				Backlog:   16,
				Enumerate: watchEnumerateFlag,
			})

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt)

			done := make(chan struct{})
			events := make(chan watch.Event, 16)
			go w.Run(done, events)

			for {
				select {
				case ev, ok := <-events:
					if !ok {
						fmt.Fprintln(os.Stderr, "the watcher gave up")
						os.Exit(1)
					}
					fmt.Printf("%s %s\n", ev.Type, ev.Name)
					for _, iface := range ev.Interfaces {
						fmt.Printf("    %d: %s mtu %d\n", iface.Index, iface.Name, iface.MTU)
					}
				case <-sigChan:
					close(done)
					return
				}
			}
		},
	}

	watchDirFlag       string
	watchEnumerateFlag bool
)

func init() {
	watchCmd.Flags().StringVar(&watchDirFlag, "dir", "/run/netns", "Directory of namespace bind mounts to follow.")
	watchCmd.Flags().BoolVar(&watchEnumerateFlag, "enumerate", true, "Enumerate each appearing namespace.")
}
