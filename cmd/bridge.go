// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	bridgeAddr     string
	bridgeAuthUser string
)

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Fan out decoded packets over a read-only WebSocket for debugging",
	Long: `Open the serial port, continuously call Receive, and push each
successfully decoded payload to every connected WebSocket client as a
text frame holding the Unix time in microseconds, a space, and the
hex-encoded payload bytes.

This is a debug observability surface over one transport instance; it
does not add any new transport semantics and clients cannot write back
through it.

If --basic-auth-user is set, clients must authenticate with HTTP basic
auth; the password is read from $BRIDGE_PASSWORD or, if unset, prompted
for interactively with echo disabled.`,
	RunE: runBridge,
}

func init() {
	rootCmd.AddCommand(bridgeCmd)
	bridgeCmd.Flags().StringVar(&bridgeAddr, "addr", "127.0.0.1:8787", "Address to listen on for WebSocket clients")
	bridgeCmd.Flags().StringVar(&bridgeAuthUser, "basic-auth-user", "", "Require HTTP basic auth for this username before upgrading to WebSocket")
}

// getBridgePassword retrieves the basic-auth password from the environment
// or prompts for it with echo disabled, matching the teacher's GetPassword.
func getBridgePassword() (string, error) {
	if pw := os.Getenv("BRIDGE_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %v", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}
	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// requireBasicAuth wraps h so requests must present HTTP basic auth
// matching user/pass before reaching it; constant-time compared to avoid
// leaking password length/prefix via timing.
func requireBasicAuth(user, pass string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, ok := r.BasicAuth()
		userMatch := subtle.ConstantTimeCompare([]byte(gotUser), []byte(user)) == 1
		passMatch := subtle.ConstantTimeCompare([]byte(gotPass), []byte(pass)) == 1
		if !ok || !userMatch || !passMatch {
			w.Header().Set("WWW-Authenticate", `Basic realm="bridge"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		h(w, r)
	}
}

var bridgeUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// bridgeHub fans decoded payloads out to every connected client. Each write
// has a one-second deadline; a client whose write fails is disconnected
// and removed.
type bridgeHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func newBridgeHub() *bridgeHub {
	return &bridgeHub{clients: make(map[*websocket.Conn]struct{})}
}

func (h *bridgeHub) add(c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *bridgeHub) remove(c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
	c.Close()
}

func (h *bridgeHub) broadcast(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	msg := []byte(fmt.Sprintf("%d %s", time.Now().UnixMicro(), hex.EncodeToString(payload)))
	for c := range h.clients {
		c.SetWriteDeadline(time.Now().Add(time.Second))
		if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Printf("bridge: dropping slow/closed client: %v", err)
			go h.remove(c)
		}
	}
}

func runBridge(cmd *cobra.Command, args []string) error {
	tr, endpoint, err := openTransport()
	if err != nil {
		return err
	}
	defer endpoint.Close()

	hub := newBridgeHub()

	upgrade := func(w http.ResponseWriter, r *http.Request) {
		conn, err := bridgeUpgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("bridge: upgrade failed: %v", err)
			return
		}
		hub.add(conn)
		log.Printf("bridge: client connected from %s", r.RemoteAddr)

		// Drain and discard anything the client sends; this bridge is
		// read-only, but the handshake requires someone to keep reading
		// so close/ping control frames are still processed.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					hub.remove(conn)
					return
				}
			}
		}()
	}

	mux := http.NewServeMux()
	if bridgeAuthUser != "" {
		password, err := getBridgePassword()
		if err != nil {
			return fmt.Errorf("reading basic-auth password: %w", err)
		}
		mux.HandleFunc("/", requireBasicAuth(bridgeAuthUser, password, upgrade))
	} else {
		mux.HandleFunc("/", upgrade)
	}

	go func() {
		for {
			ok, err := tr.Receive()
			switch {
			case err != nil:
				log.Printf("bridge: receive error: %v", err)
			case ok:
				hub.broadcast(tr.RxPayload())
			default:
				time.Sleep(time.Millisecond)
			}
		}
	}()

	fmt.Printf("bridge listening on ws://%s\n", bridgeAddr)
	return http.ListenAndServe(bridgeAddr, mux)
}
