//go:build linux

package unixfd

import (
	"fmt"

	"github.com/prometheus/procfs"
	"golang.org/x/sys/unix"
)

// EnableCredPassing turns on SO_PASSCRED so the kernel attaches the
// peer's verified credentials to incoming messages. Call it on the
// receiving end before the peer sends.
func EnableCredPassing(sock int) error {
	if err := unix.SetsockoptInt(sock, unix.SOL_SOCKET, unix.SO_PASSCRED, 1); err != nil {
		return fmt.Errorf("couldn't enable credential passing: %w", err)
	}
	return nil
}

// SendCreds ships the calling process's credentials as one message.
// The kernel rejects credentials the caller doesn't actually hold, so
// the peer can trust what arrives.
func SendCreds(sock int) error {
	cred := &unix.Ucred{
		Pid: int32(unix.Getpid()),
		Uid: uint32(unix.Getuid()),
		Gid: uint32(unix.Getgid()),
	}
	oob := unix.UnixCredentials(cred)

	for {
		_, err := unix.SendmsgN(sock, []byte{0}, oob, nil, unix.MSG_NOSIGNAL)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return fmt.Errorf("couldn't send credentials: %w", err)
		}
		return nil
	}
}

// RecvCreds reads one credentials message off a socket that had
// EnableCredPassing applied.
func RecvCreds(sock int) (*unix.Ucred, error) {
	buf := make([]byte, 1)
	oob := make([]byte, unix.CmsgSpace(unix.SizeofUcred))

	var oobn int
	var err error
	for {
		_, oobn, _, _, err = unix.Recvmsg(sock, buf, oob, 0)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("couldn't receive credentials: %w", err)
		}
		break
	}

	cmsgs, err := unix.ParseSocketControlMessage(oob[:oobn])
	if err != nil {
		return nil, fmt.Errorf("mangled credentials message: %w", err)
	}
	for _, m := range cmsgs {
		if m.Header.Level == unix.SOL_SOCKET && m.Header.Type == unix.SCM_CREDENTIALS {
			cred, err := unix.ParseUnixCredentials(&m)
			if err != nil {
				return nil, fmt.Errorf("mangled credentials block: %w", err)
			}
			return cred, nil
		}
	}

	return nil, fmt.Errorf("no credentials attached to message")
}

// VerifyPeer cross-checks received credentials against the peer
// process's /proc status. The kernel already vouched for the ucred;
// this catches a peer that died and had its pid recycled by a process
// under a different owner.
func VerifyPeer(cred *unix.Ucred) error {
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return fmt.Errorf("couldn't open procfs: %w", err)
	}

	proc, err := fs.Proc(int(cred.Pid))
	if err != nil {
		return fmt.Errorf("peer pid %d is gone: %w", cred.Pid, err)
	}

	status, err := proc.NewStatus()
	if err != nil {
		return fmt.Errorf("couldn't read status of pid %d: %w", cred.Pid, err)
	}

	if uint32(status.UIDs[1]) != cred.Uid {
		return fmt.Errorf("pid %d runs as uid %d, not the claimed %d",
			cred.Pid, status.UIDs[1], cred.Uid)
	}
	if uint32(status.GIDs[1]) != cred.Gid {
		return fmt.Errorf("pid %d runs as gid %d, not the claimed %d",
			cred.Pid, status.GIDs[1], cred.Gid)
	}

	return nil
}
