//go:build linux

package main

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kelpdock/nsnet/ifaddrs"
)

var (
	ifacesCmd = &cobra.Command{
		Use:   "ifaces",
		Short: "Enumerate network interfaces and their addresses.",
		Run: func(cmd *cobra.Command, args []string) {
			var ifaces []*ifaddrs.Interface
			var err error

			if netnsPathFlag != "" {
				ifaces, err = ifaddrs.EnumerateNamespace(netnsPathFlag)
			} else {
				ifaces, _, err = ifaddrs.EnumerateDefault()
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "enumeration failed: %v\n", err)
				os.Exit(1)
			}

			if jsonFlag {
				out, err := json.MarshalIndent(ifaces, "", "    ")
				if err != nil {
					fmt.Fprintf(os.Stderr, "couldn't marshal the interfaces: %v\n", err)
					os.Exit(1)
				}
				fmt.Println(string(out))
				return
			}

			for _, iface := range ifaces {
				fmt.Printf("%d: %s mtu %d hwaddr %s\n",
					iface.Index, iface.Name, iface.MTU, hwOrNone(iface.HardwareAddr))
				for _, ai := range iface.Addrs {
					line := fmt.Sprintf("    %s/%d", ai.Addr, ai.PrefixLen)
					if ai.Dst != nil {
						line += " peer " + ai.Dst.String()
					}
					if ai.Broadcast != nil {
						line += " brd " + ai.Broadcast.String()
					}
					if ai.Label != "" {
						line += " label " + ai.Label
					}
					if ai.ScopeID != 0 {
						line += fmt.Sprintf(" scopeid %d", ai.ScopeID)
					}
					fmt.Println(line)
				}
			}
		},
	}

	netnsPathFlag string
	jsonFlag      bool
)

func init() {
	ifacesCmd.Flags().StringVar(&netnsPathFlag, "netns-path", "", "Bind-mounted namespace to enumerate (e.g. /run/netns/blue).")
	ifacesCmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit JSON instead of a table.")
}

func hwOrNone(hw net.HardwareAddr) string {
	if len(hw) == 0 {
		return "none"
	}
	return strings.ToLower(hw.String())
}
