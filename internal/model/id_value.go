package model

import "strconv"

// IDValue ссылка на сущность провайдера (регион, клиника, врач, специальность).
// Сравнение всегда только по ID, Label - кэш для отображения.
type IDValue struct {
	ID    int64  `json:"id"`
	Label string `json:"label,omitempty"`
}

// NewIDValue создаёт ссылку без подписи
func NewIDValue(id int64) IDValue {
	return IDValue{ID: id}
}

// Same сообщает, ссылаются ли два значения на одну сущность
func (v IDValue) Same(other IDValue) bool {
	return v.ID == other.ID
}

// Display возвращает "label (id)" или просто id, если подписи нет
func (v IDValue) Display() string {
	if v.Label == "" {
		return strconv.FormatInt(v.ID, 10)
	}
	return v.Label + " (" + strconv.FormatInt(v.ID, 10) + ")"
}

// IDsString склеивает id через запятую, так они хранятся в БД
func IDsString(values []IDValue) string {
	buf := make([]byte, 0, len(values)*6)
	for i, v := range values {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendInt(buf, v.ID, 10)
	}
	return string(buf)
}
