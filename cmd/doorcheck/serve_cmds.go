package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"doorway/dropfile"
	"doorway/internal/config"
	"doorway/internal/store"
	"doorway/network"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Accept telnet/websocket connections and launch the configured door",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := boot(false); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
	Run: runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	restartChan := make(chan struct{}, 1)
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt, syscall.SIGTERM)

	for {
		var watcher *fsnotify.Watcher
		if appConfig.HotReload {
			var err error
			watcher, err = fsnotify.NewWatcher()
			if err != nil {
				appLogger.Error("Failed to create watcher", "err", err)
			} else {
				for _, file := range appConfig.LoadedFiles {
					if err := watcher.Add(file); err != nil {
						appLogger.Error("Failed to watch config file", "file", file, "err", err)
					} else {
						appLogger.Debug("Watching config file", "file", file)
					}
				}

				go func(w *fsnotify.Watcher) {
					for {
						select {
						case event, ok := <-w.Events:
							if !ok {
								return
							}
							if event.Op&fsnotify.Write == fsnotify.Write {
								appLogger.Info("Config file modified, restarting listeners...", "file", event.Name)
								select {
								case restartChan <- struct{}{}:
								default:
									// restart pending
								}
							}
						case err, ok := <-w.Errors:
							if !ok {
								return
							}
							appLogger.Error("Watcher error", "err", err)
						}
					}
				}(watcher)
			}
		}

		var wg sync.WaitGroup
		var listeners []*hostListener

		if appConfig.Listeners.Telnet.Enabled {
			listeners = append(listeners, newHostListener(appConfig.Listeners.Telnet, dropfile.ComTelnet))
		}
		if appConfig.Listeners.WebSocket.Enabled {
			listeners = append(listeners, newHostListener(appConfig.Listeners.WebSocket, dropfile.ComWebSocket))
		}

		if len(listeners) == 0 {
			appLogger.Warn("No listeners enabled.")
			select {
			case <-stopChan:
				closeWatcher(watcher)
				return
			case <-restartChan:
				closeWatcher(watcher)
				reboot()
				continue
			}
		}

		for _, l := range listeners {
			wg.Add(1)
			go func(l *hostListener) {
				defer wg.Done()
				if err := l.listenAndServe(); err != nil {
					appLogger.Error("Listener stopped", "proto", l.comType.String(), "err", err)
				}
			}(l)
		}

		select {
		case <-stopChan:
			appLogger.Info("Shutting down...")
			for _, l := range listeners {
				l.stop()
			}
			closeWatcher(watcher)
			return

		case <-restartChan:
			for _, l := range listeners {
				l.stop()
			}
			closeWatcher(watcher)
			wg.Wait()
			reboot()
		}
	}
}

func closeWatcher(w *fsnotify.Watcher) {
	if w != nil {
		w.Close()
	}
}

func reboot() {
	if err := boot(false); err != nil {
		appLogger.Error("Failed to reload config", "err", err)
		// Keep serving; a config that fails to load is not swapped in.
	}
}

// hostListener accepts one protocol and launches the configured door per
// connection.
type hostListener struct {
	cfg     config.ListenerConfig
	comType dropfile.ComType
	ln      *network.Listener

	mu       sync.Mutex
	nextNode int
}

func newHostListener(cfg config.ListenerConfig, comType dropfile.ComType) *hostListener {
	return &hostListener{cfg: cfg, comType: comType, nextNode: 1}
}

func (l *hostListener) listenAndServe() error {
	appLogger.Info("Listener up", "proto", l.comType.String(), "addr", l.cfg.Addr, "port", l.cfg.Port)

	var err error
	l.ln, err = network.Listen(l.cfg.Addr, l.cfg.Port)
	if err != nil {
		return err
	}
	defer l.ln.Close()

	for {
		transport, err := l.ln.Accept()
		if err != nil {
			if strings.Contains(err.Error(), "use of closed network connection") {
				return nil
			}
			appLogger.Error("Accept error", "err", err)
			continue
		}
		go l.handle(transport)
	}
}

func (l *hostListener) stop() {
	if l.ln != nil {
		l.ln.Close()
	}
}

func (l *hostListener) node() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := l.nextNode
	l.nextNode++
	return n
}

// handle performs the host side of the protocol (telnet negotiation or
// the WebSocket upgrade), writes a DOOR32.SYS, and hands the socket to
// the door command.
func (l *hostListener) handle(transport *network.Transport) {
	node := l.node()
	logger := appLogger.With("node", node, "proto", l.comType.String())
	remote := transport.RemoteAddr()

	logger.Info("Connection accepted", "addr", remote)
	started := time.Now()

	framer, err := dropfileFramer(l.comType)
	if err != nil {
		logger.Error("No framer", "err", err)
		transport.Close()
		return
	}

	conn := network.NewConn(transport, framer, logger)
	if err := conn.Open(); err != nil {
		logger.Warn("Handshake failed", "err", err)
		return
	}

	if tf, ok := framer.(*network.TelnetFramer); ok {
		if err := tf.Announce(conn); err != nil {
			logger.Warn("Negotiation failed", "err", err)
			return
		}
	}

	reason, err := l.launchDoor(transport, node, logger)
	if err != nil {
		logger.Error("Door launch failed", "err", err)
		conn.WriteLine("Sorry, the door did not open.")
		reason = "launch failed"
	}
	conn.Close()

	if appStore != nil {
		rec := &store.SessionRecord{
			Node:       node,
			Alias:      "caller",
			Protocol:   l.comType.String(),
			StartedAt:  started,
			EndedAt:    time.Now(),
			ExitReason: reason,
		}
		if remote != nil {
			rec.RemoteAddr = remote.String()
		}
		if err := appStore.RecordSession(rec); err != nil {
			logger.Error("Failed to record session", "err", err)
		}
	}
	logger.Info("Connection finished", "reason", reason)
}

// launchDoor writes the dropfile and runs the door with the socket as an
// inherited descriptor (fd 3 on unix-likes).
func (l *hostListener) launchDoor(transport *network.Transport, node int, logger *slog.Logger) (string, error) {
	doorCfg := appConfig.Door
	if doorCfg.Command == "" {
		return "", fmt.Errorf("no door command configured")
	}

	file, err := transport.File()
	if err != nil {
		return "", fmt.Errorf("socket not inheritable: %w", err)
	}
	defer file.Close()

	dropDir := doorCfg.Dropfile
	if dropDir == "" {
		dropDir = filepath.Join(appConfig.Paths.Data, "node"+strconv.Itoa(node))
	}
	if err := os.MkdirAll(dropDir, 0o755); err != nil {
		return "", err
	}
	dropPath := filepath.Join(dropDir, "door32.sys")

	maxTime := doorCfg.MaxTime
	if maxTime <= 0 {
		maxTime = 60
	}

	// The child sees the dup at fd 3 (after stdin/stdout/stderr).
	contents := fmt.Sprintf("%d\r\n3\r\n115200\r\ndoorcheck\r\n1\r\nCaller\r\nCaller\r\n255\r\n%d\r\n1\r\n%d\r\n",
		int(l.comType), maxTime, node)
	if err := os.WriteFile(dropPath, []byte(contents), 0o644); err != nil {
		return "", err
	}

	args := make([]string, 0, len(doorCfg.Args)+1)
	for _, a := range doorCfg.Args {
		a = strings.ReplaceAll(a, "{{dropfile}}", dropPath)
		a = strings.ReplaceAll(a, "{{node}}", strconv.Itoa(node))
		args = append(args, a)
	}
	if len(args) == 0 {
		args = []string{"-D" + dropPath, "-N" + strconv.Itoa(node)}
	}

	cmd := exec.Command(doorCfg.Command, args...)
	cmd.ExtraFiles = []*os.File{file}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	logger.Info("Launching door", "command", doorCfg.Command, "dropfile", dropPath)
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitReasonFromCode(exitErr.ExitCode()), nil
		}
		return "", err
	}
	return "clean exit", nil
}

func exitReasonFromCode(code int) string {
	switch code {
	case 0:
		return "clean exit"
	case 1:
		return "usage"
	case 2:
		return "dropfile missing"
	case 3:
		return "no carrier"
	case 4:
		return "hangup"
	case 5:
		return "time up"
	case 6:
		return "idle"
	}
	return "exit " + strconv.Itoa(code)
}

func dropfileFramer(comType dropfile.ComType) (network.Framer, error) {
	// The host side differs from the door side in one way: the WebSocket
	// upgrade has not happened yet, so the framer owes the client a
	// handshake.
	if comType == dropfile.ComWebSocket {
		return network.NewWebSocketFramer(true, appLogger), nil
	}
	if comType == dropfile.ComTelnet {
		return network.NewTelnetFramer(appLogger), nil
	}
	return nil, fmt.Errorf("unsupported listener protocol %s", comType)
}
