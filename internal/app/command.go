package app

import "fmt"

// CommandKind команда CLI, определяется один раз на входе
type CommandKind int

const (
	CommandFindAppointment CommandKind = iota + 1
	CommandBookAppointment
	CommandAddWatch
	CommandEditWatch
	CommandRemoveWatch
	CommandListWatches
	CommandListAppointments
	CommandCancelAppointment
	CommandListFilters
	CommandListAccounts
	CommandStart
	CommandMigrate
)

var commandNames = map[CommandKind]string{
	CommandFindAppointment:   "find-appointment",
	CommandBookAppointment:   "book-appointment",
	CommandAddWatch:          "add-watch",
	CommandEditWatch:         "edit-watch",
	CommandRemoveWatch:       "remove-watch",
	CommandListWatches:       "list-watches",
	CommandListAppointments:  "list-appointments",
	CommandCancelAppointment: "cancel-appointment",
	CommandListFilters:       "list-filters",
	CommandListAccounts:      "list-accounts",
	CommandStart:             "start",
	CommandMigrate:           "migrate",
}

func (k CommandKind) String() string {
	if name, ok := commandNames[k]; ok {
		return name
	}
	return fmt.Sprintf("command(%d)", int(k))
}

func ParseCommandKind(name string) (CommandKind, error) {
	for kind, n := range commandNames {
		if n == name {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("unknown command %q", name)
}

// Requirements что нужно поднять для команды
type Requirements struct {
	Database   bool
	Migrations bool
	Provider   bool
	Notifier   bool
	Daemon     bool
}

func (k CommandKind) Requirements() Requirements {
	switch k {
	case CommandStart:
		return Requirements{Database: true, Migrations: true, Provider: true, Notifier: true, Daemon: true}
	case CommandMigrate:
		return Requirements{Database: true, Migrations: true}
	case CommandFindAppointment, CommandBookAppointment, CommandListWatches:
		return Requirements{Database: true, Provider: true, Notifier: true}
	case CommandAddWatch, CommandEditWatch, CommandRemoveWatch,
		CommandListAppointments, CommandCancelAppointment:
		return Requirements{Database: true, Provider: true}
	case CommandListFilters:
		return Requirements{Provider: true}
	default:
		return Requirements{}
	}
}
