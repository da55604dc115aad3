package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/pt_scheduler/internal/model"
	"github.com/Freeeeeet/pt_scheduler/internal/service"
)

const (
	dateLayout = "02.01.2006"
	timeLayout = "15:04"

	// DefaultScheduleDays сколько дней показывает /schedule без аргументов
	DefaultScheduleDays = 7
)

var errBadArgs = errors.New("bad arguments")

// commandArgs аргументы команды без самой команды ("/apply@bot 12" -> ["12"])
func commandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	return fields[1:]
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id %q", errBadArgs, s)
	}
	return id, nil
}

// parseIDs "12 13 #14" или "12,13"
func parseIDs(args []string) ([]int64, error) {
	var ids []int64
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			if part == "" {
				continue
			}
			id, err := parseID(part)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no ids", errBadArgs)
	}
	return ids, nil
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", errBadArgs, s)
	}
	return t, nil
}

// parseDateTimes "01.02.2024 10:00 11:00" -> время начала слотов в часовом поясе loc
func parseDateTimes(args []string, loc *time.Location) ([]time.Time, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("%w: need date and at least one time", errBadArgs)
	}

	date, err := parseDate(args[0], loc)
	if err != nil {
		return nil, err
	}

	times := make([]time.Time, 0, len(args)-1)
	for _, arg := range args[1:] {
		clock, err := time.Parse(timeLayout, arg)
		if err != nil {
			return nil, fmt.Errorf("%w: time %q", errBadArgs, arg)
		}
		times = append(times, time.Date(date.Year(), date.Month(), date.Day(), clock.Hour(), clock.Minute(), 0, 0, loc))
	}
	return times, nil
}

// parseRange "[дата] [дней]" -> [from, to] включительно; по умолчанию неделя от today.
// Больше service.MaxQueryDays дней - ErrQueryRangeTooLong.
func parseRange(args []string, today time.Time, loc *time.Location) (from, to time.Time, err error) {
	from = today
	days := DefaultScheduleDays

	if len(args) > 0 {
		from, err = parseDate(args[0], loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if len(args) > 1 {
		days, err = strconv.Atoi(args[1])
		if err != nil || days <= 0 {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: days %q", errBadArgs, args[1])
		}
		if days > service.MaxQueryDays {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: %d days", model.ErrQueryRangeTooLong, days)
		}
	}

	return from, from.AddDate(0, 0, days-1), nil
}

// parseDelta "+5", "-2", "5"
func parseDelta(s string) (int, error) {
	delta, err := strconv.Atoi(strings.TrimPrefix(s, "+"))
	if err != nil || delta == 0 {
		return 0, fmt.Errorf("%w: delta %q", errBadArgs, s)
	}
	return delta, nil
}

func parseCount(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: count %q", errBadArgs, s)
	}
	return n, nil
}

func isUsername(s string) bool {
	return strings.HasPrefix(s, "@") && len(s) > 1
}
