package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/zhouzirui/z-scheduler/backend/internal/model/chat"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] could not load .env, using system environment: %v", err)
	}

	server := flag.String("server", defaultServer(), "scheduler backend base URL")
	message := flag.String("message", "", "send one message and exit; empty starts an interactive session")
	session := flag.String("session", "", "session id, generated when empty")
	timeout := flag.Duration("timeout", 15*time.Second, "per-request timeout")

	flag.Parse()

	sessionID := *session
	if sessionID == "" {
		sessionID = "manual-" + uuid.NewString()
	}

	client := &chatClient{
		baseURL: strings.TrimRight(*server, "/"),
		http:    &http.Client{Timeout: *timeout},
	}

	ctx := context.Background()
	if err := client.health(ctx); err != nil {
		log.Fatalf("backend not healthy at %s: %v", client.baseURL, err)
	}

	if *message != "" {
		reply, err := client.send(ctx, sessionID, *message)
		if err != nil {
			log.Fatalf("chat request failed: %v", err)
		}
		printReply(os.Stdout, reply)
		return
	}

	log.Printf("interactive session=%s, type a message or \"quit\"", sessionID)
	if err := repl(ctx, client, sessionID, os.Stdin, os.Stdout); err != nil {
		log.Fatalf("session ended with error: %v", err)
	}
}

func defaultServer() string {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return "http://localhost" + port
	}
	if strings.Contains(port, ":") {
		return "http://" + port
	}
	return "http://localhost:" + port
}

type chatClient struct {
	baseURL string
	http    *http.Client
}

func (c *chatClient) health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode health response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || body.Status != "healthy" {
		return fmt.Errorf("unexpected health status %d %q", resp.StatusCode, body.Status)
	}
	return nil
}

func (c *chatClient) send(ctx context.Context, sessionID, message string) (chat.Reply, error) {
	payload, err := json.Marshal(chat.Request{Message: message, SessionID: sessionID})
	if err != nil {
		return chat.Reply{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return chat.Reply{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return chat.Reply{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return chat.Reply{}, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var reply chat.Reply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return chat.Reply{}, fmt.Errorf("decode reply: %w", err)
	}
	return reply, nil
}

func repl(ctx context.Context, client *chatClient, sessionID string, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return nil
		}

		reply, err := client.send(ctx, sessionID, line)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		printReply(out, reply)
	}
}

func printReply(out io.Writer, reply chat.Reply) {
	fmt.Fprintln(out, reply.Response)
	if reply.BookingConfirmed {
		fmt.Fprintln(out, "[booking confirmed]")
	}
}
