package medicover

import (
	"strconv"

	"github.com/Freeeeeet/medicony/internal/model"
)

// FilterItem элемент каталога фильтров
type FilterItem struct {
	ID    model.FlexString `json:"id"`
	Value string           `json:"value"`
}

// Filters каталог регионов, специальностей, клиник и врачей
type Filters struct {
	Regions     []FilterItem `json:"regions"`
	Specialties []FilterItem `json:"specialties"`
	Clinics     []FilterItem `json:"clinics"`
	Doctors     []FilterItem `json:"doctors"`
}

// FilterParams параметры запроса каталога, нулевые значения не передаются
type FilterParams struct {
	Region    int64
	Specialty int64
	Type      model.WatchType
}

// Label ищет подпись по id
func Label(items []FilterItem, id int64) (string, bool) {
	want := strconv.FormatInt(id, 10)
	for _, it := range items {
		if string(it.ID) == want {
			return it.Value, true
		}
	}
	return "", false
}

// IDValues переводит элементы каталога в IDValue, нечисловые id пропускаются
func IDValues(items []FilterItem) []model.IDValue {
	out := make([]model.IDValue, 0, len(items))
	for _, it := range items {
		id, err := strconv.ParseInt(string(it.ID), 10, 64)
		if err != nil {
			continue
		}
		out = append(out, model.IDValue{ID: id, Label: it.Value})
	}
	return out
}
