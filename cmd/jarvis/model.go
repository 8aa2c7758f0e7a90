package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"jarvis/internal/assistant"
	"jarvis/internal/auth"
	"jarvis/internal/session"
)

const panelWidth = 44

type loginStep int

const (
	stepNone loginStep = iota
	stepEmail
	stepPassword
)

type (
	// changedMsg is sent from assistant goroutines whenever the session moves.
	changedMsg struct{}
	replyMsg   struct{ err error }
	statusMsg  struct {
		text string
		err  error
	}
	authMsg struct {
		signup bool
		err    error
	}
)

type model struct {
	ctx context.Context
	as  *assistant.Assistant

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer
	styles   styles
	theme    session.Theme

	snap   session.Snapshot
	width  int
	height int
	busy   bool
	status string
	err    error
	help   bool

	step   loginStep
	signup bool
	email  string
}

func newModel(ctx context.Context, as *assistant.Assistant) model {
	ti := textinput.New()
	ti.Prompt = "› "
	ti.CharLimit = 2048
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := model{
		ctx:      ctx,
		as:       as,
		input:    ti,
		viewport: viewport.New(80, 20),
		spinner:  sp,
		snap:     as.Snapshot(),
	}
	m.applyTheme(m.snap.Theme, 80)
	m.syncLogin()
	return m
}

func (m *model) applyTheme(t session.Theme, wrap int) {
	m.theme = t
	m.styles = newStyles(t)
	m.spinner.Style = m.styles.indicator
	m.input.PromptStyle = m.styles.title

	style := "dark"
	if !m.styles.dark {
		style = "light"
	}
	r, err := glamour.NewTermRenderer(glamour.WithStylePath(style), glamour.WithWordWrap(max(wrap, 20)))
	if err == nil {
		m.renderer = r
	}
}

// syncLogin begins the login prompt when nobody is signed in.
func (m *model) syncLogin() {
	if m.snap.User != nil {
		m.step = stepNone
		m.input.EchoMode = textinput.EchoNormal
		m.input.Placeholder = "Speak your command, sir... (/help)"
		return
	}
	if m.step == stepNone {
		m.step = stepEmail
		m.input.Placeholder = "Email (/signup to register)"
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, func() tea.Msg {
		m.as.Start(m.ctx)
		return changedMsg{}
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()

	case changedMsg:
		m.snap = m.as.Snapshot()
		if m.snap.Theme != m.theme {
			m.applyTheme(m.snap.Theme, m.transcriptWidth())
		}
		m.syncLogin()
		m.layout()

	case replyMsg:
		m.busy = false
		m.err = msg.err

	case statusMsg:
		m.busy = false
		m.status, m.err = msg.text, msg.err
		if errors.Is(msg.err, errQuit) {
			return m, tea.Quit
		}

	case authMsg:
		m.busy = false
		m.err = msg.err
		switch {
		case msg.err != nil:
			m.step = stepEmail
			m.input.EchoMode = textinput.EchoNormal
		case msg.signup:
			m.status = "Registration received. Check your inbox, then sign in."
			m.signup = false
			m.step = stepEmail
			m.input.EchoMode = textinput.EchoNormal
		}
		m.snap = m.as.Snapshot()
		m.syncLogin()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "ctrl+r":
			if m.step == stepNone {
				cmds = append(cmds, m.run(command{name: "listen"}))
			}
			return m, tea.Batch(cmds...)
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case "enter":
			line := m.input.Value()
			m.input.SetValue("")
			if cmd := m.submit(line); cmd != nil {
				cmds = append(cmds, cmd)
			}
			m.layout()
			return m, tea.Batch(cmds...)
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *model) submit(line string) tea.Cmd {
	if m.step != stepNone {
		return m.login(line)
	}
	if strings.TrimSpace(line) == "" || m.busy {
		return nil
	}

	m.err, m.help = nil, false
	if c, ok := parseCommand(line); ok {
		if c.name == "help" {
			m.help = true
			return nil
		}
		return m.run(c)
	}

	m.busy = true
	ctx, as := m.ctx, m.as
	return func() tea.Msg {
		_, err := as.Send(ctx, line)
		return replyMsg{err: err}
	}
}

func (m *model) run(c command) tea.Cmd {
	m.busy = true
	ctx, as := m.ctx, m.as
	return func() tea.Msg {
		text, err := execute(ctx, as, c)
		return statusMsg{text: text, err: err}
	}
}

func (m *model) login(line string) tea.Cmd {
	line = strings.TrimSpace(line)
	switch m.step {
	case stepEmail:
		if line == "/signup" {
			m.signup = !m.signup
			m.status = "Signing in."
			if m.signup {
				m.status = "Registering a new operator."
			}
			return nil
		}
		if line == "" {
			return nil
		}
		m.email = line
		m.step = stepPassword
		m.input.EchoMode = textinput.EchoPassword
		m.input.Placeholder = "Passcode"
		return nil

	case stepPassword:
		m.busy, m.err = true, nil
		ctx, as, email, signup := m.ctx, m.as, m.email, m.signup
		return func() tea.Msg {
			if signup {
				return authMsg{signup: true, err: as.SignUp(ctx, email, line)}
			}
			return authMsg{err: as.SignIn(ctx, email, line)}
		}
	}
	return nil
}

func (m *model) transcriptWidth() int {
	w := m.width
	if w >= 100 && m.snap.Panel != session.PanelNone {
		w -= panelWidth + 2
	}
	return max(w-2, 20)
}

func (m *model) layout() {
	if m.width == 0 {
		return
	}
	m.viewport.Width = m.transcriptWidth()
	m.viewport.Height = max(m.height-6, 3)
	m.input.Width = m.width - 4
	m.viewport.SetContent(m.transcript())
	m.viewport.GotoBottom()
}

func (m *model) transcript() string {
	var b strings.Builder
	for _, u := range m.snap.Transcript {
		if u.Role == session.RoleUser {
			b.WriteString(m.styles.user.Render("YOU") + "\n" + u.Text + "\n\n")
			continue
		}
		text := u.Text
		if m.renderer != nil {
			if out, err := m.renderer.Render(text); err == nil {
				text = strings.Trim(out, "\n")
			}
		}
		b.WriteString(m.styles.jarvis.Render("J.A.R.V.I.S.") + "\n" + text + "\n\n")
	}
	if m.help && m.renderer != nil {
		if out, err := m.renderer.Render(helpText()); err == nil {
			b.WriteString(out)
		}
	}
	return b.String()
}

func (m model) View() string {
	st := m.styles

	flags := []string{}
	if m.snap.Listening {
		flags = append(flags, st.indicator.Render("● LISTENING"))
	}
	if m.snap.Speaking {
		flags = append(flags, st.indicator.Render("◆ SPEAKING"))
	}
	if m.snap.Scanning {
		flags = append(flags, st.indicator.Render("◌ SCANNING"))
	}
	met := m.snap.Metrics
	flags = append(flags, st.muted.Render(fmt.Sprintf("CPU %d%% · RAM %d%% · %.0f°C", met.CPU, met.RAM, met.Temp)))
	header := st.header.Width(max(m.width-2, 0)).Render(st.title.Render("J.A.R.V.I.S.") + "  " + strings.Join(flags, "  "))

	if m.step != stepNone {
		return lipgloss.JoinVertical(lipgloss.Left, header, m.loginView(), m.footer())
	}

	body := m.viewport.View()
	if p := renderPanel(st, m.snap, panelWidth); p != "" {
		if m.width >= 100 {
			body = lipgloss.JoinHorizontal(lipgloss.Top, body, " ", p)
		} else {
			body = lipgloss.JoinVertical(lipgloss.Left, p, body)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, st.input.Render(m.input.View()), m.footer())
}

func (m model) loginView() string {
	st := m.styles
	title := "AUTHENTICATION REQUIRED"
	if m.signup {
		title = "OPERATOR REGISTRATION"
	}
	lines := []string{"", st.panelHead.Render(title), ""}
	if m.step == stepPassword {
		lines = append(lines, st.muted.Render("Operator: ")+m.email)
	}
	lines = append(lines, m.input.View())
	return st.panel.Render(strings.Join(lines, "\n"))
}

func (m model) footer() string {
	st := m.styles
	var left string
	switch {
	case m.err != nil:
		left = st.warn.Render(errText(m.err))
	case m.busy:
		left = m.spinner.View() + " processing"
	case m.status != "":
		left = m.status
	}
	return st.footer.Render(left + st.muted.Render("   enter send · ctrl+r talk · pgup/pgdn scroll · ctrl+c quit"))
}

// errText prefers the friendly auth message.
func errText(err error) string {
	var ae *auth.Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}
