// Package unixfd moves open file descriptors between processes over a
// connected unix-domain socket using SCM_RIGHTS ancillary data.
//
// A sender ships up to MaxTransferFds descriptors together with an
// optional payload in one message. The receiver states how many
// descriptors it expects and, through a Policy, which deviations from
// that count it tolerates. Whatever the policy decides, no descriptor
// ever leaks: everything the kernel installed but the caller won't get
// is closed before Receive returns.
package unixfd
