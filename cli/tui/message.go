package tui

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/pws/fsm"
	"github.com/pithecene-io/pws/osc"
	"github.com/pithecene-io/pws/types"
)

// MessageView is the decode payload shared by every output format.
type MessageView struct {
	From    string    `json:"from,omitempty" yaml:"from,omitempty"`
	Address string    `json:"address" yaml:"address"`
	Tags    string    `json:"tags" yaml:"tags"`
	Args    []ArgView `json:"args" yaml:"args"`
	Size    int       `json:"size" yaml:"size"`
	Event   string    `json:"event" yaml:"event"`
	Raw     []byte    `json:"-" yaml:"-"`
}

// ArgView is one decoded argument.
type ArgView struct {
	Type  string `json:"type" yaml:"type"`
	Value any    `json:"value" yaml:"value"`
	text  string
}

func (a ArgView) String() string { return a.text }

// NewMessageView describes msg as decoded from raw.
func NewMessageView(msg *osc.Message, raw []byte) *MessageView {
	v := &MessageView{
		Address: msg.Address,
		Tags:    msg.TypeTags(),
		Args:    make([]ArgView, 0, len(msg.Args)),
		Size:    len(raw),
		Event:   "none",
		Raw:     raw,
	}
	for _, a := range msg.Args {
		v.Args = append(v.Args, ArgView{Type: a.Type.String(), Value: a.Value(), text: a.String()})
	}
	if ev, _ := fsm.Classify(msg); ev != types.EventNone {
		v.Event = ev.String()
	}
	return v
}

// MessageModel shows one decoded datagram.
type MessageModel struct {
	view     *MessageView
	width    int
	quitting bool
}

// NewMessageModel creates a message model for a *MessageView.
func NewMessageModel(data any) (MessageModel, error) {
	view, ok := data.(*MessageView)
	if !ok {
		return MessageModel{}, fmt.Errorf("decode view needs *MessageView, got %T", data)
	}
	return MessageModel{view: view}, nil
}

// Init implements tea.Model.
func (m MessageModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m MessageModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m MessageModel) View() string {
	if m.quitting {
		return ""
	}
	v := m.view

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Datagram"))
	b.WriteString("\n\n")

	field := func(label, value string) {
		fmt.Fprintf(&b, "%s %s\n", LabelStyle.Render(label+":"), ValueStyle.Render(value))
	}
	field("Address", v.Address)
	field("Tags", ","+v.Tags)
	field("Size", fmt.Sprintf("%d bytes", v.Size))

	event := MutedStyle.Render(v.Event)
	if v.Event != "none" {
		event = SelectedStyle.Render(v.Event)
	}
	fmt.Fprintf(&b, "%s %s\n", LabelStyle.Render("Event:"), event)

	if len(v.Args) > 0 {
		b.WriteString("\n")
		for i, a := range v.Args {
			fmt.Fprintf(&b, "%s %s\n", LabelStyle.Render(fmt.Sprintf("Arg %d:", i)), ValueStyle.Render(a.String()))
		}
	}

	content := BoxStyle.Render(b.String())
	if len(v.Raw) > 0 {
		dump := MutedStyle.Render(strings.TrimRight(hex.Dump(v.Raw), "\n"))
		content = lipgloss.JoinVertical(lipgloss.Left, content, dump)
	}
	return content + "\n" + HelpStyle.Render(keys.Quit.Help().Key+" quit")
}
