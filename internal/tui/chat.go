// Package tui is the terminal conversation screen: a viewport over the
// reconciled render list, a composer textarea, and key-driven history
// pagination.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/czefenglim/bluecollar-chat/internal/session"
	"github.com/czefenglim/bluecollar-chat/internal/storage"
	"github.com/czefenglim/bluecollar-chat/internal/view"
)

type refreshMsg time.Time

type sentMsg struct{ err error }

type olderMsg struct{ err error }

// ChatModel drives one open conversation.
type ChatModel struct {
	sess   *session.Session
	device *storage.Device
	userID int64

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	width   int
	height  int
	sending bool
	errText string
}

func NewChatModel(sess *session.Session, device *storage.Device, userID int64) ChatModel {
	s := spinner.New()
	s.Spinner = spinner.Dot

	vp := viewport.New(80, 20)

	ta := textarea.New()
	ta.Placeholder = "Type your message..."
	ta.CharLimit = 2000
	ta.SetHeight(3)
	ta.ShowLineNumbers = false
	ta.Focus()

	m := ChatModel{
		sess:     sess,
		device:   device,
		userID:   userID,
		viewport: vp,
		textarea: ta,
		spinner:  s,
		width:    80,
		height:   30,
	}

	if device != nil {
		if draft, err := device.LoadDraft(sess.Conversation().ID); err == nil && draft != "" {
			m.textarea.SetValue(draft)
		}
	}
	return m
}

func (m ChatModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, refreshCmd())
}

func refreshCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

func (m ChatModel) sendCmd(text string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, err := m.sess.Send(ctx, text)
		return sentMsg{err: err}
	}
}

func (m ChatModel) loadOlderCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return olderMsg{err: m.sess.LoadOlder(ctx)}
	}
}

func (m ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerHeight := 3
		composerHeight := 5
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - headerHeight - composerHeight
		m.textarea.SetWidth(msg.Width - 2)
		m.refresh()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.saveDraft()
			m.sess.Close()
			return m, tea.Quit

		case tea.KeyEnter:
			text := strings.TrimSpace(m.textarea.Value())
			if text == "" || m.sending {
				return m, nil
			}
			m.sending = true
			m.errText = ""
			return m, m.sendCmd(text)

		case tea.KeyPgUp:
			if m.sess.HasOlder() {
				return m, m.loadOlderCmd()
			}
			return m, nil

		default:
			m.sess.NotifyTyping()
		}

	case sentMsg:
		m.sending = false
		if msg.err != nil {
			// The composer keeps its text so the user can retry.
			m.errText = "Send failed: " + msg.err.Error()
		} else {
			m.textarea.Reset()
			if m.device != nil {
				m.device.DeleteDraft(m.sess.Conversation().ID)
			}
		}
		m.refresh()
		m.viewport.GotoBottom()

	case olderMsg:
		if msg.err != nil {
			m.errText = "Could not load older messages: " + msg.err.Error()
		}
		m.refresh()

	case refreshMsg:
		m.refresh()
		cmds = append(cmds, refreshCmd())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	var taCmd tea.Cmd
	m.textarea, taCmd = m.textarea.Update(msg)
	cmds = append(cmds, taCmd)

	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	cmds = append(cmds, vpCmd)

	return m, tea.Batch(cmds...)
}

func (m *ChatModel) refresh() {
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderRows())
	if atBottom {
		m.viewport.GotoBottom()
	}
}

func (m *ChatModel) saveDraft() {
	if m.device == nil {
		return
	}
	m.device.SaveDraft(m.sess.Conversation().ID, strings.TrimSpace(m.textarea.Value()))
}

func (m *ChatModel) renderRows() string {
	rows := m.sess.Rows()
	conv := m.sess.Conversation()

	var b strings.Builder
	for _, r := range rows {
		switch r.Kind {
		case view.RowDateSeparator:
			b.WriteString(separatorStyle.Width(m.viewport.Width).Render("── " + r.Day.Format("Mon, 2 Jan 2006") + " ──"))
			b.WriteString("\n")

		case view.RowMessage:
			b.WriteString(m.renderMessage(r))
			b.WriteString("\n")

		case view.RowTyping:
			name := conv.Other(m.userID).Name
			b.WriteString(typingStyle.Render(name + " is typing…"))
			b.WriteString("\n")
		}
	}

	for _, p := range m.sess.Pending() {
		b.WriteString(metaStyle.Render(fmt.Sprintf("%s (sending…)", p.Text)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *ChatModel) renderMessage(r view.Row) string {
	msg := r.Message

	nameStyle := theirsStyle
	if r.Mine {
		nameStyle = mineStyle
	}
	header := nameStyle.Render(msg.Sender.Name) + " " + metaStyle.Render(msg.CreatedAt.Local().Format("15:04"))

	var body string
	switch {
	case msg.IsDeleted:
		body = deletedStyle.Render("message deleted")
	case msg.Attachment != nil:
		body = fmt.Sprintf("📎 %s (%d bytes)", msg.Attachment.Name, msg.Attachment.Size)
	default:
		body = msg.Text()
	}

	if msg.IsEdited && !msg.IsDeleted {
		body += metaStyle.Render(" (edited)")
	}
	if r.Mine && msg.IsRead {
		body += metaStyle.Render(" ✓✓")
	}
	return header + "\n" + body
}

func (m ChatModel) View() string {
	conv := m.sess.Conversation()
	other := conv.Other(m.userID)

	header := headerStyle.Render(other.Name) + " " + jobStyle.Render("· "+conv.Job.Title)
	if m.sending {
		header += " " + m.spinner.View()
	}

	status := helpStyle.Render("enter: send · pgup: older messages · esc: quit")
	if m.errText != "" {
		status = errorStyle.Render(m.errText)
	}

	return header + "\n" + m.viewport.View() + "\n" + m.textarea.View() + "\n" + status
}
