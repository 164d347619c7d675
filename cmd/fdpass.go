//go:build linux

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/kelpdock/nsnet/unixfd"
)

var (
	sendFdCmd = &cobra.Command{
		Use:   "send-fd FILE...",
		Short: "Pass open descriptors to a peer over a unix socket.",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			sock, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
			if err != nil {
				fmt.Fprintf(os.Stderr, "couldn't create the socket: %v\n", err)
				os.Exit(1)
			}
			defer unix.Close(sock)

			if err := unix.Connect(sock, &unix.SockaddrUnix{Name: socketFlag}); err != nil {
				fmt.Fprintf(os.Stderr, "couldn't connect to %q: %v\n", socketFlag, err)
				os.Exit(1)
			}

			if credsFlag {
				if err := unixfd.SendCreds(sock); err != nil {
					fmt.Fprintf(os.Stderr, "credential handshake failed: %v\n", err)
					os.Exit(1)
				}
			}

			fds := make([]int, 0, len(args))
			names := make([]string, 0, len(args))
			for _, path := range args {
				fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
				if err != nil {
					fmt.Fprintf(os.Stderr, "couldn't open %q: %v\n", path, err)
					os.Exit(1)
				}
				defer unix.Close(fd)
				fds = append(fds, fd)
				names = append(names, filepath.Base(path))
			}

			if err := unixfd.Send(sock, fds, []byte(strings.Join(names, ","))); err != nil {
				fmt.Fprintf(os.Stderr, "couldn't pass the descriptors: %v\n", err)
				os.Exit(1)
			}

			slog.Info("descriptors passed", "count", len(fds), "socket", socketFlag)
		},
	}

	recvFdCmd = &cobra.Command{
		Use:   "recv-fd",
		Short: "Receive descriptors from a peer over a unix socket.",
		Run: func(cmd *cobra.Command, args []string) {
			policy, err := parsePolicy(allowFlag)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}

			listener, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
			if err != nil {
				fmt.Fprintf(os.Stderr, "couldn't create the socket: %v\n", err)
				os.Exit(1)
			}
			defer unix.Close(listener)

			os.Remove(socketFlag)
			if err := unix.Bind(listener, &unix.SockaddrUnix{Name: socketFlag}); err != nil {
				fmt.Fprintf(os.Stderr, "couldn't bind %q: %v\n", socketFlag, err)
				os.Exit(1)
			}
			defer os.Remove(socketFlag)

			if err := unix.Listen(listener, 1); err != nil {
				fmt.Fprintf(os.Stderr, "couldn't listen on %q: %v\n", socketFlag, err)
				os.Exit(1)
			}

			sock, _, err := unix.Accept(listener)
			if err != nil {
				fmt.Fprintf(os.Stderr, "accept failed: %v\n", err)
				os.Exit(1)
			}
			defer unix.Close(sock)

			if credsFlag {
				if err := unixfd.EnableCredPassing(sock); err != nil {
					fmt.Fprintln(os.Stderr, err)
					os.Exit(1)
				}
				cred, err := unixfd.RecvCreds(sock)
				if err != nil {
					fmt.Fprintf(os.Stderr, "credential handshake failed: %v\n", err)
					os.Exit(1)
				}
				if err := unixfd.VerifyPeer(cred); err != nil {
					fmt.Fprintf(os.Stderr, "peer verification failed: %v\n", err)
					os.Exit(1)
				}
				slog.Info("peer verified", "pid", cred.Pid, "uid", cred.Uid, "gid", cred.Gid)
			}

			batch, err := unixfd.Receive(sock, countFlag, policy, make([]byte, 4096))
			if err != nil {
				fmt.Fprintf(os.Stderr, "couldn't receive the descriptors: %v\n", err)
				os.Exit(1)
			}
			defer batch.CloseAll()

			slog.Info("descriptors received", "count", batch.Count,
				"outcome", batch.Flag.String(), "payload", string(batch.Payload))

			if catFlag && batch.Count > 0 {
				files := batch.Files(strings.Split(string(batch.Payload), ",")...)
				defer func() {
					for _, f := range files {
						f.Close()
					}
				}()
				if _, err := io.Copy(os.Stdout, files[0]); err != nil {
					fmt.Fprintf(os.Stderr, "couldn't read through the descriptor: %v\n", err)
					os.Exit(1)
				}
			}
		},
	}

	socketFlag string
	credsFlag  bool
	allowFlag  string
	countFlag  int
	catFlag    bool
)

func init() {
	for _, cmd := range []*cobra.Command{sendFdCmd, recvFdCmd} {
		cmd.Flags().StringVar(&socketFlag, "socket", "/tmp/nsnet.sock", "Unix socket to meet the peer on.")
		cmd.Flags().BoolVar(&credsFlag, "creds", false, "Run the credential handshake before the transfer.")
	}
	recvFdCmd.Flags().IntVar(&countFlag, "count", 1, "How many descriptors to expect.")
	recvFdCmd.Flags().StringVar(&allowFlag, "allow", "", "Tolerated count deviations: comma-separated less, more, none.")
	recvFdCmd.Flags().BoolVar(&catFlag, "cat", false, "Copy the first received descriptor to stdout.")
}

func parsePolicy(allow string) (unixfd.Policy, error) {
	policy := unixfd.AcceptExact
	if allow == "" {
		return policy, nil
	}

	for _, tok := range strings.Split(allow, ",") {
		switch strings.TrimSpace(tok) {
		case "less":
			policy |= unixfd.AcceptLess
		case "more":
			policy |= unixfd.AcceptMore
		case "none":
			policy |= unixfd.AcceptNone
		default:
			return policy, fmt.Errorf("unknown deviation %q: pick from less, more and none", tok)
		}
	}

	return policy, nil
}
