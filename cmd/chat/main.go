package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "Gym advisor server URL")
	trace := flag.Bool("trace", false, "Print the tool trace for each answer")
	flag.Parse()

	fmt.Println("Gym Advisor CLI Chat")
	fmt.Printf("Server: %s\n", *server)
	fmt.Println("Type 'exit' or 'quit' to leave.")
	fmt.Println("Commands: /health, /history")
	fmt.Println("---")

	fetchHealth(*server)

	sessionID := ""
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Println("Bye!")
			return
		}
		if input == "/health" {
			fetchHealth(*server)
			continue
		}
		if input == "/history" {
			fetchHistory(*server)
			continue
		}

		sessionID = ask(*server, sessionID, input, *trace)
	}
}

func fetchHealth(server string) {
	resp, err := http.Get(server + "/api/health")
	if err != nil {
		printError("Failed to reach server: %v", err)
		return
	}
	defer resp.Body.Close()

	var health struct {
		Status     string `json:"status"`
		Documents  int    `json:"documents"`
		GraphNodes int    `json:"graph_nodes"`
		GraphEdges int    `json:"graph_edges"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		printError("Failed to parse health: %v", err)
		return
	}
	fmt.Printf("Server %s: %d documents, %d graph nodes, %d graph edges\n",
		health.Status, health.Documents, health.GraphNodes, health.GraphEdges)
}

func fetchHistory(server string) {
	resp, err := http.Get(server + "/api/history")
	if err != nil {
		printError("Failed to fetch history: %v", err)
		return
	}
	defer resp.Body.Close()

	var events []struct {
		TS   string `json:"ts"`
		Type string `json:"type"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		printError("Failed to parse history: %v", err)
		return
	}
	if len(events) == 0 {
		fmt.Println("No history yet.")
		return
	}
	fmt.Println("Recent events:")
	for _, e := range events {
		fmt.Printf("  %s %s\n", e.TS, e.Type)
	}
}

// ask sends one question and returns the (possibly server-assigned) session id.
func ask(server, sessionID, question string, trace bool) string {
	body, _ := json.Marshal(map[string]string{
		"question":   question,
		"session_id": sessionID,
	})

	client := &http.Client{Timeout: 120 * time.Second}
	resp, err := client.Post(server+"/api/ask", "application/json", bytes.NewReader(body))
	if err != nil {
		printError("Request failed: %v", err)
		return sessionID
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		printError("Server error (%d): %s", resp.StatusCode, string(data))
		return sessionID
	}

	var result struct {
		SessionID string `json:"session_id"`
		Answer    string `json:"answer"`
		Trace     []struct {
			Step       int    `json:"step"`
			Tool       string `json:"tool"`
			ToolInput  string `json:"tool_input"`
			Reflection string `json:"reflection"`
		} `json:"trace"`
		PlanParseFailed bool `json:"plan_parse_failed"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		printError("Failed to parse response: %v", err)
		return sessionID
	}

	if trace {
		for _, s := range result.Trace {
			fmt.Printf("\033[33m[step %d] %s(%s) — %s\033[0m\n", s.Step, s.Tool, s.ToolInput, s.Reflection)
		}
	}
	if result.PlanParseFailed {
		fmt.Println("\033[31m(routing failed, raw model output follows)\033[0m")
	}
	fmt.Printf("\033[36m[advisor]\033[0m %s\n", result.Answer)
	return result.SessionID
}

func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "\033[31m"+format+"\033[0m\n", args...)
}
