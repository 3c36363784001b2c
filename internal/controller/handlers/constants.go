package handlers

const (
	// LogTailLines сколько строк лога отдаёт /logs
	LogTailLines = 30

	// кнопок в ряду клавиатуры /watch_remove
	removeButtonsPerRow = 4

	RemoveCallbackPrefix = "watch_remove:"
	removeCallbackCancel = RemoveCallbackPrefix + "cancel"

	abortWord = "abort"
	skipWord  = "skip"
)
