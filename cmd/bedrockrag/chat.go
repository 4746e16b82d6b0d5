package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/a-h/bedrockrag/kb"
	"github.com/a-h/bedrockrag/models"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

type ChatCommand struct {
	KB       KnowledgeBaseFlags `embed:""`
	Server   ServerFlags        `embed:""`
	LogLevel string             `help:"The log level to use." env:"LOG_LEVEL" default:"error"`
}

// askFunc sends one turn of the conversation. The session ID is empty for
// the first turn, and the response carries the ID to use for the next.
type askFunc func(ctx context.Context, text, sessionID string) (models.QueryResponse, error)

func (c ChatCommand) Run(ctx context.Context) (err error) {
	log := getLogger(c.LogLevel)

	var ask askFunc
	if rsc, ok := c.Server.Client(); ok {
		ask = func(ctx context.Context, text, sessionID string) (models.QueryResponse, error) {
			return rsc.QueryPost(ctx, models.QueryPostRequest{
				Text:                  text,
				ResultCount:           c.KB.ResultCount,
				UseQueryDecomposition: &c.KB.QueryDecomposition,
				SessionID:             sessionID,
			})
		}
	} else {
		cfg := c.KB.Config()
		if err = cfg.Validate(); err != nil {
			return err
		}
		awsCfg, err := cfg.LoadAWSConfig(ctx)
		if err != nil {
			return err
		}
		if err = cfg.ValidateGeneration(); err != nil {
			return err
		}
		svc := kb.NewBedrock(log, bedrockagentruntime.NewFromConfig(awsCfg), cfg)
		ask = func(ctx context.Context, text, sessionID string) (resp models.QueryResponse, err error) {
			req, err := cfg.NewRequest(text)
			if err != nil {
				return resp, err
			}
			req.SessionID = sessionID
			return svc.Query(ctx, req)
		}
	}

	log.Debug("starting chat")
	p := tea.NewProgram(newModel(ctx, ask))
	if _, err = p.Run(); err != nil {
		return err
	}
	return nil
}

// Dracula color scheme.
var (
	Background  = lipgloss.Color("#282a36")
	CurrentLine = lipgloss.Color("#44475a")
	Foreground  = lipgloss.Color("#f8f8f2")
	Comment     = lipgloss.Color("#6272a4")
	Cyan        = lipgloss.Color("#8be9fd")
	Green       = lipgloss.Color("#50fa7b")
	Orange      = lipgloss.Color("#ffb86c")
	Pink        = lipgloss.Color("#ff79c6")
	Purple      = lipgloss.Color("#bd93f9")
	Red         = lipgloss.Color("#ff5555")
)

var headerStyle = lipgloss.NewStyle().Background(CurrentLine).Foreground(Orange).Bold(true).Margin(1).Padding(1).PaddingTop(0)

var header = `
 _              _                _
| |__  ___ __ _| |_ _ ___  __ __| |__  _ _ __ _ __ _
| '_ \/ -_) _' | '_/ _ \/ _|| / /| '_|| '_/ _' / _' |
|_.__/\___\__,_|_| \___/\__||_\_\|_|  |_| \__,_\__, |
                                               |___/
`

type chatMessageType string

const (
	chatMessageTypeHuman   chatMessageType = "human"
	chatMessageTypeAI      chatMessageType = "ai"
	chatMessageTypeSources chatMessageType = "sources"
	chatMessageTypeError   chatMessageType = "error"
)

type chatMessage struct {
	Type    chatMessageType
	Content string
}

// answerMsg is the result of a single turn.
type answerMsg struct {
	resp models.QueryResponse
	err  error
}

type model struct {
	viewport viewport.Model
	textarea textarea.Model
	ctx      context.Context
	ask      askFunc

	messages  []chatMessage
	sessionID string
	waiting   bool
}

func newModel(ctx context.Context, ask askFunc) model {
	ta := textarea.New()
	ta.Placeholder = "Ask the knowledge base..."
	ta.Focus()

	ta.Prompt = "┃ "
	ta.CharLimit = 1000

	ta.SetHeight(3)

	// Remove cursor line styling
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()

	ta.ShowLineNumbers = false

	vp := viewport.New(80, 20)
	vp.SetContent(headerStyle.Render(header))

	ta.KeyMap.InsertNewline.SetEnabled(false)

	return model{
		ctx:      ctx,
		ask:      ask,
		textarea: ta,
		viewport: vp,
	}
}

func (m model) Init() tea.Cmd {
	return textarea.Blink
}

func (m model) send(text string) tea.Cmd {
	ctx, ask, sessionID := m.ctx, m.ask, m.sessionID
	return func() tea.Msg {
		resp, err := ask(ctx, text, sessionID)
		return answerMsg{resp: resp, err: err}
	}
}

var messageTypeToStyle = map[chatMessageType]lipgloss.Style{
	chatMessageTypeHuman:   lipgloss.NewStyle().Padding(1).Margin(1).MarginBottom(0).Background(Background).Foreground(Pink),
	chatMessageTypeAI:      lipgloss.NewStyle().Padding(1).Margin(1).MarginBottom(0).Background(Background).Foreground(Cyan),
	chatMessageTypeSources: lipgloss.NewStyle().PaddingLeft(2).Margin(1).MarginTop(0).MarginBottom(0).Foreground(Comment),
	chatMessageTypeError:   lipgloss.NewStyle().Padding(1).Margin(1).MarginBottom(0).Background(Background).Foreground(Red),
}

var messageTypeToIcon = map[chatMessageType]string{
	chatMessageTypeHuman:   "🥷",
	chatMessageTypeAI:      "✨",
	chatMessageTypeSources: "📚",
	chatMessageTypeError:   "💥",
}

func formatMessage(msg chatMessage) string {
	style, ok := messageTypeToStyle[msg.Type]
	if !ok {
		return msg.Content
	}
	icon, ok := messageTypeToIcon[msg.Type]
	if !ok {
		icon = "🤷"
	}
	wrapped := wordwrap.String(strings.TrimSpace(icon+" "+msg.Content), 80)
	return style.Render(wrapped)
}

// formatSources lists the distinct citation locations in the order they
// were returned.
func formatSources(citations []models.Citation) string {
	if len(citations) == 0 {
		return "No sources."
	}
	seen := make(map[string]struct{}, len(citations))
	var sb strings.Builder
	sb.WriteString("Sources:")
	for _, c := range citations {
		loc := c.Location.String()
		if _, ok := seen[loc]; ok {
			continue
		}
		seen[loc] = struct{}{}
		fmt.Fprintf(&sb, "\n%d. %s", len(seen), loc)
	}
	return sb.String()
}

func (m *model) render() {
	var sb strings.Builder
	sb.WriteString(headerStyle.Render(header))
	sb.WriteString("\n")
	for _, cm := range m.messages {
		sb.WriteString(formatMessage(cm))
		sb.WriteString("\n")
	}
	if m.waiting {
		sb.WriteString(formatMessage(chatMessage{Type: chatMessageTypeAI, Content: "..."}))
		sb.WriteString("\n")
	}
	m.viewport.SetContent(sb.String())
	m.viewport.GotoBottom()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case answerMsg:
		m.waiting = false
		if msg.err != nil {
			m.messages = append(m.messages, chatMessage{Type: chatMessageTypeError, Content: msg.err.Error()})
			m.render()
			return m, nil
		}
		m.sessionID = msg.resp.SessionID
		m.messages = append(m.messages,
			chatMessage{Type: chatMessageTypeAI, Content: msg.resp.Answer},
			chatMessage{Type: chatMessageTypeSources, Content: formatSources(msg.resp.Citations)},
		)
		m.render()
		return m, nil
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - m.textarea.Height() - 3
		m.textarea.SetWidth(msg.Width)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+c":
			return m, tea.Quit
		case "enter":
			v := strings.TrimSpace(m.textarea.Value())
			if v == "" || m.waiting {
				return m, nil
			}
			m.textarea.Reset()
			m.messages = append(m.messages, chatMessage{Type: chatMessageTypeHuman, Content: v})
			m.waiting = true
			m.render()
			return m, m.send(v)
		default:
			// Send all other keypresses to the textarea.
			var cmd tea.Cmd
			m.textarea, cmd = m.textarea.Update(msg)
			return m, cmd
		}

	case cursor.BlinkMsg:
		// Textarea should also process cursor blinks.
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		return m, cmd

	default:
		return m, nil
	}
}

func (m model) View() string {
	return fmt.Sprintf("%s\n\n%s",
		m.viewport.View(),
		m.textarea.View(),
	) + "\n\n"
}
