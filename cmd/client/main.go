package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"Gestora/Client"
	"Gestora/Sync"

	"github.com/joho/godotenv"
)

// Console client for the task API: logs in, keeps an optimistic local
// working set and shows the activity and notification feeds.

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment defaults")
	}

	baseURL := os.Getenv("GESTORA_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:3001"
	}
	cacheDir := os.Getenv("GESTORA_CACHE_DIR")
	if cacheDir == "" {
		cacheDir = ".gestora"
	}

	cache, err := Sync.NewCache(cacheDir)
	if err != nil {
		log.Fatalf("Failed to open local cache: %v", err)
	}

	reader := bufio.NewReader(os.Stdin)
	session := Client.NewSession(baseURL)
	if lang := os.Getenv("GESTORA_LANG"); lang != "" {
		session.Language = lang
	}
	api := Client.NewAPI(session)

	if err := login(reader, api, cache); err != nil {
		log.Fatalf("Login failed: %v", err)
	}

	confirm := func(prompt string) bool {
		fmt.Printf("%s [y/N] ", prompt)
		answer, _ := reader.ReadString('\n')
		return strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y")
	}

	ctrl := Sync.NewController(session, api, cache, confirm)
	if err := ctrl.LoadFromRemote(); err != nil {
		log.Printf("Working offline: %v", err)
	}

	fmt.Printf("Signed in as %s (%s). Type 'help' for commands.\n", session.User.Name, session.User.Role)
	repl(reader, ctrl, api)
}

func login(reader *bufio.Reader, api *Client.API, cache *Sync.Cache) error {
	email := os.Getenv("GESTORA_EMAIL")
	password := os.Getenv("GESTORA_PASSWORD")

	if email == "" {
		remembered := cache.LoadRememberedEmail()
		if remembered != "" {
			fmt.Printf("Email [%s]: ", remembered)
		} else {
			fmt.Print("Email: ")
		}
		line, _ := reader.ReadString('\n')
		email = strings.TrimSpace(line)
		if email == "" {
			email = remembered
		}
	}
	if password == "" {
		fmt.Print("Password: ")
		line, _ := reader.ReadString('\n')
		password = strings.TrimSpace(line)
	}

	if _, err := api.Login(email, password); err != nil {
		return err
	}
	if err := cache.SaveRememberedEmail(email); err != nil {
		log.Printf("Failed to remember email: %v", err)
	}
	return nil
}

func repl(reader *bufio.Reader, ctrl *Sync.Controller, api *Client.API) {
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "help":
			printHelp()
		case "tasks":
			printTasks(ctrl.Tasks())
		case "refresh":
			if err := ctrl.LoadFromRemote(); err != nil {
				fmt.Printf("Refresh failed, keeping local state: %v\n", err)
			}
			printTasks(ctrl.Tasks())
		case "create":
			createTask(reader, ctrl)
		case "update":
			if len(args) != 1 {
				fmt.Println("usage: update <task-id>")
				continue
			}
			updateTask(reader, ctrl, args[0])
		case "advance":
			if len(args) != 1 {
				fmt.Println("usage: advance <task-id>")
				continue
			}
			report(ctrl.Advance(args[0]))
		case "comment":
			if len(args) < 2 {
				fmt.Println("usage: comment <task-id> <text>")
				continue
			}
			_, outcome := ctrl.AddComment(args[0], strings.Join(args[1:], " "))
			report(outcome)
		case "delete":
			if len(args) != 1 {
				fmt.Println("usage: delete <task-id>")
				continue
			}
			report(ctrl.Delete(args[0]))
		case "remind":
			if len(args) != 1 {
				fmt.Println("usage: remind <task-id>")
				continue
			}
			if !ctrl.Remind(args[0]) {
				fmt.Println("No reminder sent")
			}
		case "activity":
			for _, e := range ctrl.Activities() {
				fmt.Printf("%s  %s\n", e.Timestamp.Format("15:04:05"), Sync.Describe(e))
			}
		case "notifications":
			for _, n := range ctrl.Notifications() {
				marker := " "
				if !n.IsRead {
					marker = "*"
				}
				fmt.Printf("%s [%s] %s\n", marker, n.Type, n.Message)
			}
		case "read":
			ctrl.MarkAllNotificationsRead()
		case "logout", "quit", "exit":
			api.Logout()
			return
		default:
			fmt.Printf("Unknown command %q, type 'help'\n", cmd)
		}
	}
}

func printHelp() {
	fmt.Println(`Commands:
  tasks                 list the working set
  refresh               reload from the server
  create                create a task (interactive)
  update <id>           edit a task (interactive)
  advance <id>          move a task to its next status
  comment <id> <text>   add a comment
  delete <id>           delete a task (asks for confirmation)
  remind <id>           queue a reminder for the responsible party
  activity              show the activity log
  notifications         show notifications (* = unread)
  read                  mark all notifications read
  quit                  log out and exit`)
}

func printTasks(tasks []Client.Task) {
	if len(tasks) == 0 {
		fmt.Println("No tasks")
		return
	}
	for _, t := range tasks {
		marker := ""
		if t.Ref == Client.Provisional {
			marker = " (not synced)"
		}
		fmt.Printf("%-10s %-12s due %s  %s%s\n",
			t.ID, t.Status, t.DeliveryDate.Format("2006-01-02 15:04"), t.Title, marker)
	}
}

func createTask(reader *bufio.Reader, ctrl *Sync.Controller) {
	ask := func(prompt string) string {
		fmt.Print(prompt)
		line, _ := reader.ReadString('\n')
		return strings.TrimSpace(line)
	}

	draft := Sync.TaskDraft{
		Title:       ask("Title: "),
		Description: ask("Description: "),
		StartDate:   time.Now(),
	}
	if raw := ask("Start date (YYYY-MM-DD, empty = today): "); raw != "" {
		if parsed, err := time.Parse("2006-01-02", raw); err == nil {
			draft.StartDate = parsed
		}
	}
	draft.DeadlineValue, _ = strconv.Atoi(ask("Deadline value: "))
	draft.DeadlineType = ask("Deadline unit (days/hours): ")
	for _, id := range strings.Fields(ask("Assignee ids (first is responsible): ")) {
		draft.AssigneeIDs = append(draft.AssigneeIDs, id)
	}

	task, outcome := ctrl.Create(draft)
	if outcome.Err != nil {
		fmt.Printf("Not created: %v\n", outcome.Err)
		return
	}
	fmt.Printf("Created %s\n", task.ID)
	report(outcome)
}

func updateTask(reader *bufio.Reader, ctrl *Sync.Controller, id string) {
	ask := func(prompt string) string {
		fmt.Print(prompt)
		line, _ := reader.ReadString('\n')
		return strings.TrimSpace(line)
	}

	draft := Sync.TaskDraft{
		Title:       ask("Title (empty keeps current): "),
		Description: ask("Description: "),
	}
	if raw := ask("Start date (YYYY-MM-DD, empty keeps current): "); raw != "" {
		if parsed, err := time.Parse("2006-01-02", raw); err == nil {
			draft.StartDate = parsed
		}
	}
	if raw := ask("Deadline value (empty keeps current): "); raw != "" {
		draft.DeadlineValue, _ = strconv.Atoi(raw)
	}
	draft.DeadlineType = ask("Deadline unit (days/hours, empty keeps current): ")
	for _, aid := range strings.Fields(ask("Assignee ids (empty keeps current): ")) {
		draft.AssigneeIDs = append(draft.AssigneeIDs, aid)
	}

	report(ctrl.Update(id, draft))
}

func report(outcome Sync.Outcome) {
	if outcome.Err != nil && !outcome.Applied {
		fmt.Printf("Error: %v\n", outcome.Err)
		return
	}
	if !outcome.Applied {
		fmt.Println("Nothing to do")
		return
	}
	switch outcome.Remote {
	case Sync.RemoteOK:
		fmt.Println("Done, synced")
	case Sync.RemoteSkipped:
		fmt.Println("Done locally")
	case Sync.RemoteFailed:
		fmt.Printf("Done locally, sync failed: %v\n", outcome.Err)
	}
}
