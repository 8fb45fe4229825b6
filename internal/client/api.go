package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/Gbr22/citymux/internal/server"
)

const apiBase = "http://citymux/v1"

// ListSessions fetches the server's session table.
func ListSessions(network, addr string) ([]server.SessionInfo, error) {
	hc := httpClient(network, addr)
	resp, err := hc.Get(apiBase + "/sessions")
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}
	var out []server.SessionInfo
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return out, nil
}

// CreateSession makes a detached session on the server.
func CreateSession(network, addr, name string, rows, cols int) (*server.SessionInfo, error) {
	body, err := json.Marshal(server.CreateRequest{Name: name, Rows: rows, Cols: cols})
	if err != nil {
		return nil, err
	}
	hc := httpClient(network, addr)
	resp, err := hc.Post(apiBase+"/sessions", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return nil, apiError(resp)
	}
	var info server.SessionInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &info, nil
}

// KillSession closes a session and its children.
func KillSession(network, addr, name string) error {
	req, err := http.NewRequest(http.MethodDelete, apiBase+"/sessions/"+name, nil)
	if err != nil {
		return err
	}
	resp, err := httpClient(network, addr).Do(req)
	if err != nil {
		return fmt.Errorf("kill session: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		return apiError(resp)
	}
	return nil
}

// ShutdownServer asks the server to exit, closing all sessions.
func ShutdownServer(network, addr string) error {
	resp, err := httpClient(network, addr).Post(apiBase+"/shutdown", "application/json", nil)
	if err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		return apiError(resp)
	}
	return nil
}

func apiError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var msg server.ServerMessage
	if json.Unmarshal(data, &msg) == nil && msg.Error != "" {
		return &AttachError{Code: msg.Error, Detail: msg.Detail}
	}
	return fmt.Errorf("server returned %s", resp.Status)
}
