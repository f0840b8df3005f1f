package runtime

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/harunnryd/deskflow/internal/guided"
	"github.com/harunnryd/deskflow/internal/preview"

	"charm.land/lipgloss/v2"
	"github.com/google/shlex"
	"github.com/oklog/ulid/v2"
)

var (
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true)
	optionStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
)

const replHelp = `Commands:
  /user <id>       act as another requester
  /session [id]    switch to a session (a new one when id is omitted)
  /lang <en|fr>    set the reply language of the current user
  /pending         list pending actions of the session
  /reset           drop the conversation and its pending actions
  /help            show this help
  /exit            quit`

type REPL struct {
	components *RuntimeComponents
	reader     *bufio.Reader
	out        io.Writer
	sessionID  string
	userID     string
}

func NewREPL(components *RuntimeComponents, in io.Reader, out io.Writer, userID string) *REPL {
	if userID == "" {
		userID = "cli-user"
	}
	return &REPL{
		components: components,
		reader:     bufio.NewReader(in),
		out:        out,
		sessionID:  newSessionID(),
		userID:     userID,
	}
}

func (r *REPL) SessionID() string { return r.sessionID }

func (r *REPL) Start() error {
	fmt.Fprintf(r.out, "Deskflow session %s as %s\n", r.sessionID, r.userID)
	fmt.Fprintln(r.out, "Describe what you need, or type /help.")

	for {
		select {
		case <-r.components.Ctx.Done():
			return nil
		default:
		}

		fmt.Fprint(r.out, promptStyle.Render("> "))
		line, err := r.reader.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			if exit := r.handle(line); exit {
				return nil
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

func (r *REPL) handle(line string) bool {
	if strings.HasPrefix(line, "/") {
		return r.command(line)
	}

	resp := r.components.Orchestrator.Process(r.components.Ctx, r.sessionID, r.userID, line)
	r.render(resp)
	return false
}

func (r *REPL) command(line string) bool {
	args, err := shlex.Split(line)
	if err != nil || len(args) == 0 {
		fmt.Fprintln(r.out, errorStyle.Render("Could not parse command: "+line))
		return false
	}

	switch args[0] {
	case "/exit", "/quit":
		return true
	case "/help":
		fmt.Fprintln(r.out, replHelp)
	case "/user":
		if len(args) < 2 {
			fmt.Fprintf(r.out, "Current user: %s\n", r.userID)
			return false
		}
		r.userID = args[1]
		r.sessionID = newSessionID()
		fmt.Fprintf(r.out, "Now acting as %s in session %s\n", r.userID, r.sessionID)
	case "/session":
		if len(args) < 2 {
			r.sessionID = newSessionID()
		} else {
			r.sessionID = args[1]
		}
		fmt.Fprintf(r.out, "Session %s\n", r.sessionID)
	case "/lang":
		if len(args) < 2 {
			fmt.Fprintln(r.out, errorStyle.Render("Usage: /lang <en|fr>"))
			return false
		}
		r.components.Users.SetLanguage(r.userID, args[1])
		user, _ := r.components.Users.Lookup(r.components.Ctx, r.userID)
		fmt.Fprintf(r.out, "Language set to %s\n", user.Language)
	case "/pending":
		r.pending()
	case "/reset":
		r.reset()
		fmt.Fprintln(r.out, "Conversation reset.")
	default:
		fmt.Fprintln(r.out, errorStyle.Render("Unknown command "+args[0]+", try /help"))
	}
	return false
}

func (r *REPL) pending() {
	list := r.components.Actions.PendingForSession(r.components.Ctx, r.sessionID)
	if len(list) == 0 {
		fmt.Fprintln(r.out, "No pending actions.")
		return
	}
	for _, a := range list {
		left := time.Until(a.ExpiresAt).Round(time.Second)
		fmt.Fprintf(r.out, "- %s %s (expires in %s)\n  %s\n", a.ID, a.Type, left, preview.Truncate(firstLine(a.Preview), 60))
	}
}

func (r *REPL) reset() {
	ctx := r.components.Ctx
	for _, a := range r.components.Actions.PendingForSession(ctx, r.sessionID) {
		r.components.Actions.Cancel(ctx, a.ID, r.sessionID, a.UserID)
	}
	unlock := r.components.Dialogs.Lock(r.sessionID)
	r.components.Dialogs.Delete(r.sessionID)
	unlock()
}

func (r *REPL) render(resp guided.Response) {
	switch {
	case resp.Error:
		fmt.Fprintln(r.out, errorStyle.Render(resp.Text))
	case resp.Submitted:
		fmt.Fprintln(r.out, successStyle.Render(resp.Text))
	default:
		fmt.Fprintln(r.out, resp.Text)
	}
	if len(resp.Options) > 0 {
		fmt.Fprintln(r.out, optionStyle.Render("["+strings.Join(resp.Options, " | ")+"]"))
	}
}

func newSessionID() string {
	return "cli-" + strings.ToLower(ulid.Make().String())
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
