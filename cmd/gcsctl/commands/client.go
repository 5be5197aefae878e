package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// client is a thin wrapper over the orchestrator HTTP API.
type client struct {
	base string
	http *http.Client
}

func newClient(server string) *client {
	return &client{
		base: strings.TrimRight(server, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

type apiError struct {
	Error struct {
		Kind   string `json:"kind"`
		Entity string `json:"entity"`
		ID     string `json:"id"`
		Reason string `json:"reason"`
	} `json:"error"`
}

func (c *client) get(path string, out any) error {
	resp, err := c.http.Get(c.base + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		var ae apiError
		if json.Unmarshal(body, &ae) == nil && ae.Error.Reason != "" {
			return fmt.Errorf("%s: %s", ae.Error.Kind, ae.Error.Reason)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return json.Unmarshal(body, out)
}
