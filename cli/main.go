package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Styling
var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#2d6cdf")).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#30d158"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff453a"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7f7f7f"))
)

type viewState int

const (
	stateEmail viewState = iota
	statePassword
	stateItems
	stateTasks
	stateDeduct
)

type model struct {
	client *ApiClient
	state  viewState

	input     textinput.Model
	email     string
	itemTable table.Model
	taskTable table.Model
	items     []Item
	taskList  []Task
	status    string
	err       string
}

type itemsMsg []Item
type tasksMsg []Task
type loggedInMsg struct{}
type deductedMsg *HistoryEntry
type completedMsg string
type errMsg string

func newModel() model {
	input := textinput.New()
	input.Placeholder = "email"
	input.Focus()

	itemTable := table.New(
		table.WithColumns([]table.Column{
			{Title: "Name", Width: 28},
			{Title: "Category", Width: 14},
			{Title: "Stock", Width: 8},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	taskTable := table.New(
		table.WithColumns([]table.Column{
			{Title: "Title", Width: 36},
			{Title: "Status", Width: 12},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	return model{
		client:    NewApiClient(),
		state:     stateEmail,
		input:     input,
		itemTable: itemTable,
		taskTable: taskTable,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) loadItems() tea.Cmd {
	return func() tea.Msg {
		items, err := m.client.ListItems()
		if err != nil {
			return errMsg(err.Error())
		}
		return itemsMsg(items)
	}
}

func (m model) loadTasks() tea.Cmd {
	return func() tea.Msg {
		tasks, err := m.client.ListTasks()
		if err != nil {
			return errMsg(err.Error())
		}
		return tasksMsg(tasks)
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case loggedInMsg:
		m.err = ""
		m.status = "logged in as " + m.email
		m.state = stateItems
		return m, m.loadItems()

	case itemsMsg:
		m.items = msg
		rows := make([]table.Row, len(msg))
		for i, item := range msg {
			rows[i] = table.Row{item.Name, item.Category, strconv.Itoa(item.Stock)}
		}
		m.itemTable.SetRows(rows)
		return m, nil

	case tasksMsg:
		m.taskList = msg
		rows := make([]table.Row, len(msg))
		for i, task := range msg {
			rows[i] = table.Row{task.Title, task.Status}
		}
		m.taskTable.SetRows(rows)
		return m, nil

	case deductedMsg:
		m.err = ""
		m.status = fmt.Sprintf("deducted %d (stock %d -> %d)", msg.Qty, msg.StockBefore, msg.StockAfter)
		m.state = stateItems
		return m, m.loadItems()

	case completedMsg:
		m.err = ""
		m.status = string(msg)
		return m, m.loadTasks()

	case errMsg:
		m.err = string(msg)
		if m.state == stateDeduct {
			m.state = stateItems
		}
		return m, nil
	}

	var cmd tea.Cmd
	switch m.state {
	case stateItems:
		m.itemTable, cmd = m.itemTable.Update(msg)
	case stateTasks:
		m.taskTable, cmd = m.taskTable.Update(msg)
	default:
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	}

	switch m.state {
	case stateEmail:
		if msg.String() == "enter" {
			m.email = m.input.Value()
			m.input.Reset()
			m.input.Placeholder = "password"
			m.input.EchoMode = textinput.EchoPassword
			m.state = statePassword
			return m, nil
		}

	case statePassword:
		if msg.String() == "enter" {
			password := m.input.Value()
			m.input.Reset()
			m.input.EchoMode = textinput.EchoNormal
			email := m.email
			client := m.client
			return m, func() tea.Msg {
				if err := client.Login(email, password); err != nil {
					return errMsg(err.Error())
				}
				return loggedInMsg{}
			}
		}

	case stateItems:
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "r":
			return m, m.loadItems()
		case "t":
			m.state = stateTasks
			return m, m.loadTasks()
		case "d":
			if len(m.items) > 0 {
				m.input.Reset()
				m.input.Placeholder = "quantity to deduct"
				m.input.Focus()
				m.state = stateDeduct
			}
			return m, nil
		}

	case stateTasks:
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "r":
			return m, m.loadTasks()
		case "i":
			m.state = stateItems
			return m, m.loadItems()
		case "c":
			if task := m.selectedTask(); task != nil {
				client := m.client
				id := task.ID
				return m, func() tea.Msg {
					if err := client.CheckTask(id); err != nil {
						return errMsg(err.Error())
					}
					return completedMsg("task checked")
				}
			}
		case "x":
			if task := m.selectedTask(); task != nil {
				client := m.client
				id := task.ID
				return m, func() tea.Msg {
					if err := client.CompleteTask(id); err != nil {
						return errMsg(err.Error())
					}
					return completedMsg("task completed")
				}
			}
		}

	case stateDeduct:
		switch msg.String() {
		case "esc":
			m.state = stateItems
			return m, nil
		case "enter":
			qty, err := strconv.Atoi(m.input.Value())
			if err != nil {
				m.err = "quantity must be a whole number"
				return m, nil
			}
			item := m.selectedItem()
			if item == nil {
				m.state = stateItems
				return m, nil
			}
			client := m.client
			id := item.ID
			return m, func() tea.Msg {
				entry, err := client.RecordDeduct(id, qty)
				if err != nil {
					return errMsg(err.Error())
				}
				return deductedMsg(entry)
			}
		}
	}
	return m.passthrough(msg)
}

func (m model) passthrough(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.state {
	case stateItems:
		m.itemTable, cmd = m.itemTable.Update(msg)
	case stateTasks:
		m.taskTable, cmd = m.taskTable.Update(msg)
	default:
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m model) selectedItem() *Item {
	idx := m.itemTable.Cursor()
	if idx < 0 || idx >= len(m.items) {
		return nil
	}
	return &m.items[idx]
}

func (m model) selectedTask() *Task {
	idx := m.taskTable.Cursor()
	if idx < 0 || idx >= len(m.taskList) {
		return nil
	}
	return &m.taskList[idx]
}

func (m model) View() string {
	var body string
	switch m.state {
	case stateEmail, statePassword:
		body = titleStyle.Render("storekeep login") + "\n\n" + m.input.View()
	case stateItems:
		body = titleStyle.Render("items") + "\n\n" + m.itemTable.View() + "\n" +
			helpStyle.Render("d deduct · t tasks · r refresh · q quit")
	case stateTasks:
		body = titleStyle.Render("tasks") + "\n\n" + m.taskTable.View() + "\n" +
			helpStyle.Render("c check · x complete · i items · r refresh · q quit")
	case stateDeduct:
		item := m.selectedItem()
		name := ""
		if item != nil {
			name = item.Name
		}
		body = titleStyle.Render("deduct from "+name) + "\n\n" + m.input.View() + "\n" +
			helpStyle.Render("enter confirm · esc cancel")
	}

	if m.err != "" {
		body += "\n\n" + errorStyle.Render(m.err)
	} else if m.status != "" {
		body += "\n\n" + statusStyle.Render(m.status)
	}
	return docStyle.Render(body)
}

func main() {
	client := NewApiClient()
	if !client.ping() {
		fmt.Printf("Warning: API server at %s is not available.\n", client.BaseURL)
	}

	if _, err := tea.NewProgram(newModel()).Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
