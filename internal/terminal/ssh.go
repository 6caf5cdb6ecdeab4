package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// SSHConfig configures an SSH shell terminal.
type SSHConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Width    int
	Rows     int

	// KnownHostsFile verifies the server key. When empty,
	// InsecureIgnoreHostKey must be set.
	KnownHostsFile        string
	InsecureIgnoreHostKey bool

	DialTimeout time.Duration
}

// DialSSH returns a terminal over an interactive SSH shell. Attention is
// sent as ETX (Ctrl-C).
func DialSSH(cfg SSHConfig) *StreamTerminal {
	dial := func(ctx context.Context) (io.ReadWriteCloser, error) {
		return openSSHShell(ctx, cfg)
	}
	return NewStreamTerminal(dial, StreamOptions{
		Width:     cfg.Width,
		Newline:   []byte("\n"),
		Attention: []byte{0x03},
	})
}

func sshHostKeyCallback(cfg SSHConfig) (ssh.HostKeyCallback, error) {
	if cfg.KnownHostsFile != "" {
		cb, err := knownhosts.New(cfg.KnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load known hosts: %w", err)
		}
		return cb, nil
	}
	if cfg.InsecureIgnoreHostKey {
		return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec // explicitly requested
	}
	return nil, errors.New("ssh requires known_hosts_file or insecure_ignore_host_key")
}

func openSSHShell(ctx context.Context, cfg SSHConfig) (io.ReadWriteCloser, error) {
	hostKey, err := sshHostKeyCallback(cfg)
	if err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	d := net.Dialer{Timeout: cfg.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}

	clientConfig := &ssh.ClientConfig{
		User:            cfg.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(cfg.Password)},
		HostKeyCallback: hostKey,
		Timeout:         cfg.DialTimeout,
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, clientConfig)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ssh handshake failed: %w", err)
	}
	client := ssh.NewClient(c, chans, reqs)

	session, err := client.NewSession()
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to open ssh session: %w", err)
	}

	width, rows := cfg.Width, cfg.Rows
	if width <= 0 {
		width = DefaultWidth
	}
	if rows <= 0 {
		rows = 24
	}
	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 38400,
		ssh.TTY_OP_OSPEED: 38400,
	}
	if err := session.RequestPty("vt100", rows, width, modes); err != nil {
		_ = session.Close()
		_ = client.Close()
		return nil, fmt.Errorf("failed to request pty: %w", err)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		_ = session.Close()
		_ = client.Close()
		return nil, err
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		_ = session.Close()
		_ = client.Close()
		return nil, err
	}
	if err := session.Shell(); err != nil {
		_ = session.Close()
		_ = client.Close()
		return nil, fmt.Errorf("failed to start shell: %w", err)
	}

	return &sshStream{Reader: stdout, stdin: stdin, session: session, client: client}, nil
}

type sshStream struct {
	io.Reader
	stdin   io.WriteCloser
	session *ssh.Session
	client  *ssh.Client
}

func (s *sshStream) Write(p []byte) (int, error) {
	return s.stdin.Write(p)
}

func (s *sshStream) Close() error {
	_ = s.stdin.Close()
	_ = s.session.Close()
	return s.client.Close()
}
