package conversation

import (
	"strings"
	"time"

	conversationerrors "line-leave/internal/conversation/errors"
	"line-leave/internal/workhours"
)

var dateLayouts = []string{"2006-01-02", "2006/01/02"}

const clockLayout = "15:04"

type ParsedRequest struct {
	LeaveType string
	StartTime time.Time
	EndTime   time.Time
	Reason    string
}

// Parser reads a request line. Two shapes are accepted, both led by one
// of Keywords:
//
//	<kw> <date> <type> <reason...>                                full day
//	<kw> <startDate> <HH:MM> <endDate> <HH:MM> <type> [reason...]  timed
//
// A line is full-day when its third token is not a clock time.
type Parser struct {
	Keywords []string
	Location *time.Location
}

func (p Parser) Parse(text string) (ParsedRequest, error) {
	tokens := strings.Fields(text)
	if len(tokens) < 4 || !p.IsKeyword(tokens[0]) {
		return ParsedRequest{}, conversationerrors.ErrParse
	}

	if !isClockTime(tokens[2]) {
		day, err := p.parseDate(tokens[1])
		if err != nil {
			return ParsedRequest{}, err
		}
		start, end := workhours.FullDay(day)
		return ParsedRequest{
			LeaveType: tokens[2],
			StartTime: start,
			EndTime:   end,
			Reason:    strings.Join(tokens[3:], " "),
		}, nil
	}

	if len(tokens) < 6 {
		return ParsedRequest{}, conversationerrors.ErrParse
	}
	start, err := p.parseDateTime(tokens[1], tokens[2])
	if err != nil {
		return ParsedRequest{}, err
	}
	end, err := p.parseDateTime(tokens[3], tokens[4])
	if err != nil {
		return ParsedRequest{}, err
	}
	return ParsedRequest{
		LeaveType: tokens[5],
		StartTime: start,
		EndTime:   end,
		Reason:    strings.Join(tokens[6:], " "),
	}, nil
}

func (p Parser) IsKeyword(token string) bool {
	for _, kw := range p.Keywords {
		if strings.EqualFold(token, kw) {
			return true
		}
	}
	return false
}

func (p Parser) location() *time.Location {
	if p.Location == nil {
		return time.Local
	}
	return p.Location
}

func (p Parser) parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, p.location()); err == nil {
			return t, nil
		}
	}
	return time.Time{}, conversationerrors.ErrParse
}

func (p Parser) parseDateTime(date, clock string) (time.Time, error) {
	day, err := p.parseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	if !isClockTime(clock) {
		return time.Time{}, conversationerrors.ErrParse
	}
	c, _ := time.Parse(clockLayout, clock)
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour(), c.Minute(), 0, 0, day.Location()), nil
}

func isClockTime(s string) bool {
	_, err := time.Parse(clockLayout, s)
	return err == nil
}
