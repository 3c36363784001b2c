package model

import (
	"fmt"
	"slices"
	"strings"
)

const (
	ExclusionDoctor = "doctor"
	ExclusionClinic = "clinic"
)

// ExclusionGroup список исключённых id одной категории
type ExclusionGroup struct {
	Category string
	IDs      []string
}

// Exclusions упорядоченный набор исключений: "doctor:1,2;clinic:3".
// Порядок категорий сохраняется, чтобы Flatten был обратен ParseExclusions.
type Exclusions []ExclusionGroup

// ParseExclusions разбирает строку формата "cat:id1,id2;cat2:id3".
// Пустая строка даёт nil.
func ParseExclusions(s string) (Exclusions, error) {
	if s == "" {
		return nil, nil
	}

	var result Exclusions
	for _, part := range strings.Split(s, ";") {
		pieces := strings.Split(part, ":")
		if len(pieces) != 2 {
			return nil, fmt.Errorf("invalid exclusion %q, expected category:id1,id2", part)
		}
		category, values := pieces[0], pieces[1]
		if category == "" {
			continue
		}
		ids := []string{}
		if values != "" {
			ids = strings.Split(values, ",")
		}
		result = result.with(category, ids)
	}

	if len(result) == 0 {
		return nil, nil
	}
	return result, nil
}

func (e Exclusions) with(category string, ids []string) Exclusions {
	for i := range e {
		if e[i].Category == category {
			e[i].IDs = ids
			return e
		}
	}
	return append(e, ExclusionGroup{Category: category, IDs: ids})
}

// Flatten сериализует исключения для хранения в БД
func (e Exclusions) Flatten() string {
	parts := make([]string, 0, len(e))
	for _, g := range e {
		parts = append(parts, g.Category+":"+strings.Join(g.IDs, ","))
	}
	return strings.Join(parts, ";")
}

// Contains проверяет наличие id в категории
func (e Exclusions) Contains(category, id string) bool {
	for _, g := range e {
		if g.Category == category {
			return slices.Contains(g.IDs, id)
		}
	}
	return false
}

// Map представление исключений в виде map
func (e Exclusions) Map() map[string][]string {
	if len(e) == 0 {
		return nil
	}
	m := make(map[string][]string, len(e))
	for _, g := range e {
		m[g.Category] = g.IDs
	}
	return m
}
