package state

import "time"

// UserState текущий шаг диалога
type UserState string

const (
	StateNone UserState = ""

	// пошаговое добавление watch
	StateAddWatchRegion     UserState = "add_watch_region"
	StateAddWatchCity       UserState = "add_watch_city"
	StateAddWatchSpecialty  UserState = "add_watch_specialty"
	StateAddWatchClinic     UserState = "add_watch_clinic"
	StateAddWatchDoctor     UserState = "add_watch_doctor"
	StateAddWatchStartDate  UserState = "add_watch_start_date"
	StateAddWatchEndDate    UserState = "add_watch_end_date"
	StateAddWatchTimeRange  UserState = "add_watch_time_range"
	StateAddWatchAutoBook   UserState = "add_watch_autobook"
	StateAddWatchExclusions UserState = "add_watch_exclusions"
	StateAddWatchType       UserState = "add_watch_type"
)

// DefaultDialogTTL брошенный диалог забывается через это время
const DefaultDialogTTL = 30 * time.Minute

// Dialog шаг и собранные ответы key=value
type Dialog struct {
	State     UserState
	Answers   map[string]string
	UpdatedAt time.Time
}
