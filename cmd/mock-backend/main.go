// Command mock-backend is a canned Chat Completions server for local
// development and end-to-end testing without a real model. It answers every
// /chat/completions request with a deterministic artifact derived from the
// task text:
//
//   - tasks containing "shell" get a bash artifact
//   - tasks containing "fail once" get broken python on the first attempt
//     and a fixed version when the retry feedback marker is present
//   - everything else gets a python artifact echoing the task
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
)

const retryMarker = "The previous attempt failed"

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8090"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat/completions", handleCompletion)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok\n"))
	})

	log.Printf("mock backend listening on :%s", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func handleCompletion(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": {"message": "invalid request body"}}`, http.StatusBadRequest)
		return
	}

	task := ""
	for _, m := range req.Messages {
		if m.Role == "user" {
			task = m.Content
		}
	}

	artifact := artifactFor(task)
	content, _ := json.Marshal(artifact)

	reply := map[string]any{
		"id":     "chatcmpl-mock",
		"object": "chat.completion",
		"model":  req.Model,
		"choices": []map[string]any{
			{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]string{
					"role":    "assistant",
					"content": string(content),
				},
			},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(reply)
}

func artifactFor(task string) map[string]string {
	lower := strings.ToLower(task)
	switch {
	case strings.Contains(task, retryMarker):
		return map[string]string{
			"application_type": "script",
			"code":             "print('recovered after retry')",
		}
	case strings.Contains(lower, "fail once"):
		return map[string]string{
			"application_type": "script",
			"code":             "raise RuntimeError('planted failure')",
		}
	case strings.Contains(lower, "shell"):
		return map[string]string{
			"application_type": "shell",
			"code":             fmt.Sprintf("echo %q", firstLine(task)),
		}
	default:
		return map[string]string{
			"application_type": "script",
			"code":             fmt.Sprintf("print(%q)", "done: "+firstLine(task)),
		}
	}
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}
