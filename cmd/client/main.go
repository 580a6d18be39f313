// Terminal lobby client: joins the shared room, shows who is around, and
// drives the invite/accept/decline flow from stdin. UI is plain line
// output; everything interesting happens in internal/lobby.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"matchlobby/internal/lobby"
	"matchlobby/internal/prefs"
	"matchlobby/internal/relay/wsconn"
)

func main() {
	_ = godotenv.Load()

	log := zap.NewNop()
	if os.Getenv("CLIENT_LOG") == "dev" {
		log, _ = zap.NewDevelopment()
	}

	url := os.Getenv("RELAY_URL")
	if url == "" {
		url = "ws://localhost:8080/ws"
	}

	prefsPath, err := prefs.DefaultPath()
	if err != nil {
		fmt.Fprintln(os.Stderr, "no config dir:", err)
		os.Exit(1)
	}
	name := prefs.LoadName(prefsPath)

	ctx := context.Background()
	conn, err := wsconn.Dial(ctx, url, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect failed:", err)
		os.Exit(1)
	}
	defer conn.Close()

	fmt.Printf("connected as %q (id %d)\n", name, conn.LocalID())
	fmt.Println("commands: name <display-name> | invite <id> | accept | decline | leave | quit")

	sess := lobby.New(ctx, conn, name, log)

	// Closed when the session's outbox drains out, so the main goroutine
	// can return and close the connection instead of exiting mid-defer.
	done := make(chan struct{})

	go func() {
		defer close(done)
		for n := range sess.Outbox() {
			switch notice := n.(type) {
			case lobby.RosterChanged:
				fmt.Println("players here:")
				for _, p := range notice.Players {
					marker := ""
					if p.ID == conn.LocalID() {
						marker = " (you)"
					}
					fmt.Printf("  [%d] %s%s\n", p.ID, p.Name, marker)
				}
			case lobby.InviteReceived:
				fmt.Printf("%s (id %d) invites you to a match! accept / decline\n", notice.Name, notice.ID)
			case lobby.DeclineReceived:
				fmt.Printf("%s declined your invite\n", notice.Name)
			case lobby.MatchReady:
				fmt.Printf("match ready in %s:\n", notice.Room)
				for _, p := range notice.Players {
					fmt.Printf("  [%d] %s\n", p.ID, p.Name)
				}
			case lobby.ReturnedToLobby:
				fmt.Printf("in %s\n", notice.Room)
			}
		}
		fmt.Println("connection closed")
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		var line string
		select {
		case <-done:
			return
		case l, ok := <-lines:
			if !ok {
				return
			}
			line = l
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "name":
			if len(fields) < 2 {
				fmt.Println("usage: name <display-name>")
				continue
			}
			newName := strings.Join(fields[1:], " ")
			sess.Inbox() <- lobby.SetName{Name: newName}
			if err := prefs.SaveName(prefsPath, newName); err != nil {
				fmt.Fprintln(os.Stderr, "could not save name:", err)
			}
		case "invite":
			if len(fields) < 2 {
				fmt.Println("usage: invite <id>")
				continue
			}
			id, err := strconv.Atoi(fields[1])
			if err != nil {
				fmt.Println("bad id:", fields[1])
				continue
			}
			sess.Inbox() <- lobby.Invite{TargetID: id}
		case "accept":
			sess.Inbox() <- lobby.Accept{}
		case "decline":
			sess.Inbox() <- lobby.Decline{}
		case "leave":
			sess.Inbox() <- lobby.LeaveMatch{}
		case "quit":
			sess.Inbox() <- lobby.Shutdown{}
			<-done
			return
		default:
			fmt.Println("unknown command:", fields[0])
		}
	}
}
