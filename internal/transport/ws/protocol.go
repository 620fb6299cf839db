// Package ws carries git commands over a websocket. The client side is a
// git.Runner that sends each argv as one quoted shell command string; the
// server side splits it again and runs it locally.
package ws

import "errors"

// ActionExec is the only action the server accepts.
const ActionExec = "exec"

// ErrTransportClosed is returned for requests pending or issued after the
// connection closed.
var ErrTransportClosed = errors.New("transport closed")

// Request asks the remote end to run Command in Path.
type Request struct {
	RequestID string `json:"request_id"`
	ID        string `json:"id"` // workspace id
	Path      string `json:"path"`
	Action    string `json:"action"`
	Command   string `json:"command"`
}

// Response answers the Request with the same RequestID. A non-empty
// Stderr means the command failed.
type Response struct {
	RequestID string `json:"request_id"`
	Stdout    string `json:"stdout"`
	Stderr    string `json:"stderr"`
}
