package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/medicony/internal/model"
)

var (
	ErrBadArgument   = errors.New("bad argument")
	ErrUnknownKey    = errors.New("unknown key")
	ErrMissingRegion = errors.New("region is required")
)

// parseArgs разбирает "key=value key2=value2", ключи в нижнем регистре
func parseArgs(text string) (map[string]string, error) {
	args := make(map[string]string)
	for _, field := range strings.Fields(text) {
		key, value, ok := strings.Cut(field, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q, expected key=value", ErrBadArgument, field)
		}
		args[strings.ToLower(key)] = value
	}
	return args, nil
}

// commandArgs текст после команды, "/watch_edit@bot 5 a=b" -> "5 a=b"
func commandArgs(text string) string {
	_, rest, _ := strings.Cut(strings.TrimSpace(text), " ")
	return strings.TrimSpace(rest)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q is not a positive id", ErrBadArgument, s)
	}
	return id, nil
}

func parseIDs(s string) ([]model.IDValue, error) {
	var out []model.IDValue
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		id, err := parseID(part)
		if err != nil {
			return nil, err
		}
		out = append(out, model.NewIDValue(id))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: empty id list", ErrBadArgument)
	}
	return out, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "1", "y":
		return true, nil
	case "no", "false", "0", "n":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q is not yes/no", ErrBadArgument, s)
	}
}

func parseDate(s string) (time.Time, error) {
	d, err := model.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not YYYY-MM-DD", ErrBadArgument, s)
	}
	return d, nil
}

// watchFromArgs собирает watch для /watch_add
func watchFromArgs(args map[string]string) (*model.Watch, error) {
	w := &model.Watch{}
	for key, value := range args {
		var err error
		switch key {
		case "region":
			var id int64
			id, err = parseID(value)
			w.Region = model.NewIDValue(id)
		case "city":
			w.City = value
		case "specialty":
			if strings.EqualFold(value, "gp") {
				for _, id := range model.GeneralPractitionerSpecialties {
					w.Specialties = append(w.Specialties, model.NewIDValue(id))
				}
				continue
			}
			w.Specialties, err = parseIDs(value)
		case "clinic":
			var id int64
			if id, err = parseID(value); err == nil {
				v := model.NewIDValue(id)
				w.Clinic = &v
			}
		case "doctor":
			var id int64
			if id, err = parseID(value); err == nil {
				v := model.NewIDValue(id)
				w.Doctor = &v
			}
		case "start":
			w.StartDate, err = parseDate(value)
		case "end":
			w.EndDate, err = parseDate(value)
		case "time":
			w.TimeRange, err = model.ParseTimeRange(value)
		case "autobook":
			w.AutoBook, err = parseBool(value)
		case "exclusions":
			w.Exclusions, err = model.ParseExclusions(value)
		case "type":
			w.Type, err = model.ParseWatchType(value)
		case "account":
			w.Account = value
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
	}
	if w.Region.ID == 0 {
		return nil, ErrMissingRegion
	}
	return w, nil
}

// updateFromArgs собирает частичное изменение для /watch_edit
func updateFromArgs(args map[string]string) (model.WatchUpdate, error) {
	var u model.WatchUpdate
	for key, value := range args {
		switch key {
		case "city":
			city := value
			u.City = &city
		case "clinic":
			id, err := parseID(value)
			if err != nil {
				return u, fmt.Errorf("%s: %w", key, err)
			}
			u.Clinic = &id
		case "start", "end":
			d, err := parseDate(value)
			if err != nil {
				return u, fmt.Errorf("%s: %w", key, err)
			}
			if key == "start" {
				u.StartDate = &d
			} else {
				u.EndDate = &d
			}
		case "time":
			tr, err := model.ParseTimeRange(value)
			if err != nil {
				return u, fmt.Errorf("%s: %w", key, err)
			}
			u.TimeRange = &tr
		case "autobook":
			b, err := parseBool(value)
			if err != nil {
				return u, fmt.Errorf("%s: %w", key, err)
			}
			u.AutoBook = &b
		case "exclusions":
			ex, err := model.ParseExclusions(value)
			if err != nil {
				return u, fmt.Errorf("%s: %w", key, err)
			}
			u.Exclusions = &ex
		case "account":
			account := value
			u.Account = &account
		default:
			return u, fmt.Errorf("%w: %s", ErrUnknownKey, key)
		}
	}
	return u, nil
}
