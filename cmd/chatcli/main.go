// File: cmd/chatcli/main.go
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/iyunix/go-docchat/internal/client"
	"github.com/iyunix/go-docchat/internal/conversation"
)

func main() {
	serverURL := flag.String("server", envOr("DOCCHAT_SERVER", "http://localhost:8001"), "docchat server URL")
	flag.Parse()

	store, err := client.DefaultTokenStore()
	if err != nil {
		fatalf("session store: %v", err)
	}
	api := client.New(*serverURL, store)
	ctx := context.Background()

	switch flag.Arg(0) {
	case "register":
		runRegister(ctx, api)
		return
	case "logout":
		if err := api.Logout(ctx); err != nil {
			fatalf("logout: %v", err)
		}
		fmt.Println("Signed out.")
		return
	case "", "chat":
	default:
		fatalf("unknown command %q (expected register, logout, or chat)", flag.Arg(0))
	}

	if !api.SignedIn() {
		runLogin(ctx, api)
	}

	workspace := conversation.NewWorkspace(api, api)
	if err := workspace.Init(ctx); err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == 401 {
			// Stored session expired; sign in again and retry.
			runLogin(ctx, api)
			err = workspace.Init(ctx)
		}
		if err != nil {
			fatalf("load chats: %v", err)
		}
	}

	runChatLoop(ctx, api, workspace)
}

func runRegister(ctx context.Context, api *client.APIClient) {
	reader := bufio.NewReader(os.Stdin)
	username := prompt(reader, "Username: ")
	email := prompt(reader, "Email: ")
	password := promptPassword("Password: ")

	if err := api.Register(ctx, username, email, password); err != nil {
		fatalf("register: %v", err)
	}
	fmt.Println("Account created. Run again to sign in.")
}

func runLogin(ctx context.Context, api *client.APIClient) {
	reader := bufio.NewReader(os.Stdin)
	username := prompt(reader, "Username: ")
	password := promptPassword("Password: ")

	profile, err := api.Login(ctx, username, password)
	if err != nil {
		fatalf("login: %v", err)
	}
	fmt.Printf("Signed in as %s.\n", profile.Username)
}

func runChatLoop(ctx context.Context, api *client.APIClient, workspace *conversation.Workspace) {
	session := workspace.Session()
	printChats(workspace, session.ChatID())
	printTranscript(session.Messages())

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := runCommand(ctx, api, workspace, line); quit {
				return
			}
			continue
		}

		reply, err := workspace.Send(ctx, line)
		if err != nil {
			if errors.Is(err, conversation.ErrExchangeSuperseded) {
				continue
			}
			if banner := session.Banner(); banner != "" {
				fmt.Printf("! %s\n", banner)
				session.DismissError()
			}
		}
		if reply.Content != "" {
			printReply(reply)
		}
	}
}

// runCommand handles slash commands. It returns true when the loop
// should exit.
func runCommand(ctx context.Context, api *client.APIClient, workspace *conversation.Workspace, line string) bool {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/quit", "/exit":
		return true

	case "/chats":
		printChats(workspace, workspace.Session().ChatID())

	case "/new":
		title := strings.Join(args, " ")
		if _, err := workspace.NewChat(ctx, title); err != nil {
			fmt.Printf("! %v\n", err)
			break
		}
		printChats(workspace, workspace.Session().ChatID())

	case "/select":
		id, err := parseChatID(args)
		if err != nil {
			fmt.Printf("! %v\n", err)
			break
		}
		if err := workspace.Select(ctx, id); err != nil {
			fmt.Printf("! %v\n", err)
			break
		}
		printTranscript(workspace.Session().Messages())

	case "/rename":
		if len(args) < 2 {
			fmt.Println("! usage: /rename <id> <title>")
			break
		}
		id, err := parseChatID(args[:1])
		if err != nil {
			fmt.Printf("! %v\n", err)
			break
		}
		if err := workspace.Rename(ctx, id, strings.Join(args[1:], " ")); err != nil {
			fmt.Printf("! %v\n", err)
		}

	case "/delete":
		id, err := parseChatID(args)
		if err != nil {
			fmt.Printf("! %v\n", err)
			break
		}
		if err := workspace.Delete(ctx, id); err != nil {
			fmt.Printf("! %v\n", err)
			break
		}
		printChats(workspace, workspace.Session().ChatID())

	case "/upload":
		if len(args) == 0 {
			fmt.Println("! usage: /upload <file> [file...]")
			break
		}
		results, err := api.UploadFiles(ctx, args)
		if err != nil {
			fmt.Printf("! %v\n", err)
			break
		}
		for _, r := range results {
			if r.Accepted {
				fmt.Printf("  uploaded %s (%s)\n", r.Filename, r.FileID)
			} else {
				fmt.Printf("  rejected %s: %s\n", r.Filename, r.Error)
			}
		}

	default:
		fmt.Println("! commands: /chats /new /select /rename /delete /upload /quit")
	}
	return false
}

func parseChatID(args []string) (uint, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("chat id required")
	}
	id, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid chat id %q", args[0])
	}
	return uint(id), nil
}

func printChats(workspace *conversation.Workspace, selected uint) {
	fmt.Println("Chats:")
	for _, c := range workspace.Chats() {
		marker := " "
		if c.ID == selected {
			marker = "*"
		}
		fmt.Printf(" %s [%d] %s (%d messages)\n", marker, c.ID, c.Title, c.MessageCount)
	}
}

func printTranscript(messages []conversation.Message) {
	for _, m := range messages {
		printReply(m)
	}
}

func printReply(m conversation.Message) {
	label := "you"
	if m.Role == conversation.RoleAssistant {
		label = "assistant"
	}
	fmt.Printf("[%s] %s\n", label, m.Content)
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func promptPassword(label string) string {
	fmt.Print(label)
	data, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fatalf("read password: %v", err)
	}
	return strings.TrimSpace(string(data))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
