//go:build linux

package unixfd

import (
	"os"
	"testing"

	"golang.org/x/sys/unix"
)

func TestCredRoundTrip(t *testing.T) {
	a, b := pair(t)

	if err := EnableCredPassing(b); err != nil {
		t.Fatalf("enabling credential passing: %v", err)
	}
	if err := SendCreds(a); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	cred, err := RecvCreds(b)
	if err != nil {
		t.Fatalf("receive failed: %v", err)
	}

	if cred.Pid != int32(os.Getpid()) {
		t.Errorf("got pid %d; want our own %d", cred.Pid, os.Getpid())
	}
	if cred.Uid != uint32(os.Getuid()) {
		t.Errorf("got uid %d; want our own %d", cred.Uid, os.Getuid())
	}
	if cred.Gid != uint32(os.Getgid()) {
		t.Errorf("got gid %d; want our own %d", cred.Gid, os.Getgid())
	}
}

func TestVerifyPeerSelf(t *testing.T) {
	cred := &unix.Ucred{
		Pid: int32(os.Getpid()),
		Uid: uint32(os.Getuid()),
		Gid: uint32(os.Getgid()),
	}
	if err := VerifyPeer(cred); err != nil {
		t.Errorf("our own credentials failed verification: %v", err)
	}
}

func TestVerifyPeerMismatch(t *testing.T) {
	cred := &unix.Ucred{
		Pid: int32(os.Getpid()),
		Uid: uint32(os.Getuid()) + 1,
		Gid: uint32(os.Getgid()),
	}
	if err := VerifyPeer(cred); err == nil {
		t.Errorf("a wrong uid passed verification")
	}
}
