package kiosk

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"picture-frame/internal/logging"
)

// DefaultDelay gives the HTTP server time to start listening before the
// browser requests the first page.
const DefaultDelay = time.Second

// stopTimeout bounds how long Stop waits for the killed browser to exit.
const stopTimeout = 5 * time.Second

// DefaultArgs open a full-screen private window without first-run prompts.
var DefaultArgs = []string{"--kiosk", "--incognito"}

// Config configures the kiosk browser.
type Config struct {
	Browser string
	URL     string
	// Args precede the URL. Nil uses DefaultArgs.
	Args  []string
	Delay time.Duration
}

// Launcher runs a full-screen browser pointed at the frame page and kills
// it on shutdown.
type Launcher struct {
	cfg Config

	mu      sync.Mutex
	cmd     *exec.Cmd
	exited  chan struct{}
	stopped bool
	stopCh  chan struct{}
	once    sync.Once
}

// New creates a Launcher. Nothing runs until Start.
func New(cfg Config) *Launcher {
	if cfg.Args == nil {
		cfg.Args = DefaultArgs
	}
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultDelay
	}
	return &Launcher{
		cfg:    cfg,
		stopCh: make(chan struct{}),
	}
}

// Command returns the command line the launcher runs.
func (l *Launcher) Command() []string {
	return append(append([]string{l.cfg.Browser}, l.cfg.Args...), l.cfg.URL)
}

// Start resolves the browser and launches it after the configured delay.
// It returns an error only when the browser cannot be found; launch
// failures are logged.
func (l *Launcher) Start(ctx context.Context) error {
	if l.cfg.Browser == "" {
		return errors.New("kiosk browser not configured")
	}
	path, err := exec.LookPath(l.cfg.Browser)
	if err != nil {
		return fmt.Errorf("kiosk browser %q not found: %w", l.cfg.Browser, err)
	}

	go func() {
		timer := time.NewTimer(l.cfg.Delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return
		case <-l.stopCh:
			return
		case <-timer.C:
		}

		if err := l.launch(path); err != nil {
			logging.Error("Failed to launch kiosk browser: %v", err)
		}
	}()
	return nil
}

func (l *Launcher) launch(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stopped {
		return nil
	}

	args := append(append([]string{}, l.cfg.Args...), l.cfg.URL)
	cmd := exec.Command(path, args...)
	if err := cmd.Start(); err != nil {
		return err
	}

	exited := make(chan struct{})
	l.cmd = cmd
	l.exited = exited
	logging.Info("Kiosk browser started (pid %d): %v", cmd.Process.Pid, l.Command())

	go func() {
		err := cmd.Wait()
		close(exited)

		l.mu.Lock()
		stopping := l.stopped
		if l.cmd == cmd {
			l.cmd = nil
		}
		l.mu.Unlock()

		if !stopping {
			logging.Warn("Kiosk browser exited: %v", err)
		}
	}()
	return nil
}

// Running reports whether the browser process is alive.
func (l *Launcher) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cmd != nil
}

// Stop cancels a pending launch and kills the browser if it is running.
func (l *Launcher) Stop() {
	l.once.Do(func() {
		close(l.stopCh)

		l.mu.Lock()
		l.stopped = true
		cmd, exited := l.cmd, l.exited
		l.mu.Unlock()

		if cmd == nil || cmd.Process == nil {
			return
		}

		logging.Info("Killing kiosk browser (pid %d)", cmd.Process.Pid)
		if err := cmd.Process.Kill(); err != nil {
			logging.Warn("failed to kill kiosk browser: %v", err)
		}

		select {
		case <-exited:
		case <-time.After(stopTimeout):
			logging.Warn("Kiosk browser did not exit within %v", stopTimeout)
		}
	})
}
