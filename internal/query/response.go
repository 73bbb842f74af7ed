package query

import (
	"encoding/json"
	"fmt"

	"github.com/cwlacewe/vdms-go/internal/domain"
)

// CommandResult is the per-command section of a server response.
type CommandResult struct {
	Status   int              `json:"status"`
	Returned int              `json:"returned"`
	Info     string           `json:"info"`
	Entities []map[string]any `json:"entities"`
}

// Response is the server's reply: one {command: result} object per command.
type Response []map[string]CommandResult

// ParseResponse decodes the JSON portion of a server reply.
// The server answers a single command with a bare object rather than an array.
func ParseResponse(data []byte) (Response, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err == nil {
		return resp, nil
	}
	var single map[string]CommandResult
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return Response{single}, nil
}

// First returns the result of the named command in the first response object.
func (r Response) First(cmd string) (CommandResult, bool) {
	if len(r) == 0 {
		return CommandResult{}, false
	}
	res, ok := r[0][cmd]
	return res, ok
}

// Failed reports whether any command in the response failed.
func (r Response) Failed() bool {
	for _, obj := range r {
		if _, ok := obj[CmdFailed]; ok {
			return true
		}
		for _, res := range obj {
			if res.Status != 0 {
				return true
			}
		}
	}
	return false
}

// Err returns a wrapped server error when the response carries a failure.
func (r Response) Err() error {
	for _, obj := range r {
		if res, ok := obj[CmdFailed]; ok {
			return fmt.Errorf("failed command: %s: %w", res.Info, domain.ErrServerError)
		}
		for cmd, res := range obj {
			if res.Status != 0 {
				return fmt.Errorf("%s: status %d: %s: %w", cmd, res.Status, res.Info, domain.ErrServerError)
			}
		}
	}
	return nil
}

// Entities collects the entities of every occurrence of cmd across the
// response, keeping only entities that carry the document id property.
func (r Response) Entities(cmd string) []map[string]any {
	var out []map[string]any
	for _, obj := range r {
		res, ok := obj[cmd]
		if !ok {
			continue
		}
		for _, ent := range res.Entities {
			if _, ok := ent[domain.IDProperty]; ok {
				out = append(out, ent)
			}
		}
	}
	return out
}
