// Package cronplan converts between the structured schedule shape stored on
// backup tasks and standard five-field cron expressions. Only the four
// schedule kinds the service supports are representable; anything else is
// rejected rather than approximated.
package cronplan

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type Kind string

const (
	Minutely Kind = "minutely"
	Hourly   Kind = "hourly"
	Daily    Kind = "daily"
	Weekly   Kind = "weekly"
)

var ErrUnsupported = errors.New("cronplan: expression is not a supported schedule shape")

// Plan is the structured form of a schedule. Hour and Minute are meaningful
// per kind: Minutely uses neither, Hourly uses Minute, Daily uses both, and
// Weekly additionally uses DayOfWeek (0 = Sunday .. 6 = Saturday).
type Plan struct {
	Kind      Kind
	Minute    int
	Hour      int
	DayOfWeek int
}

// ToCron renders a plan as a five-field cron expression.
func ToCron(p Plan) (string, error) {
	switch p.Kind {
	case Minutely:
		return "* * * * *", nil
	case Hourly:
		if err := checkRange("minute", p.Minute, 59); err != nil {
			return "", err
		}
		return fmt.Sprintf("%d * * * *", p.Minute), nil
	case Daily:
		if err := checkRange("minute", p.Minute, 59); err != nil {
			return "", err
		}
		if err := checkRange("hour", p.Hour, 23); err != nil {
			return "", err
		}
		return fmt.Sprintf("%d %d * * *", p.Minute, p.Hour), nil
	case Weekly:
		if err := checkRange("minute", p.Minute, 59); err != nil {
			return "", err
		}
		if err := checkRange("hour", p.Hour, 23); err != nil {
			return "", err
		}
		if err := checkRange("day of week", p.DayOfWeek, 6); err != nil {
			return "", err
		}
		return fmt.Sprintf("%d %d * * %d", p.Minute, p.Hour, p.DayOfWeek), nil
	}
	return "", errors.Wrapf(ErrUnsupported, "unknown kind %q", p.Kind)
}

// FromCron classifies a five-field cron expression back into a plan. The
// expression must match one of the four shapes exactly; ranges, steps, lists
// and fixed days of month all return ErrUnsupported.
func FromCron(expr string) (Plan, error) {
	fields := strings.Fields(strings.TrimSpace(expr))
	if len(fields) != 5 {
		return Plan{}, errors.Wrapf(ErrUnsupported, "%q has %d fields", expr, len(fields))
	}
	minute, hour, dom, month, dow := fields[0], fields[1], fields[2], fields[3], fields[4]

	if dom != "*" || month != "*" {
		return Plan{}, errors.Wrapf(ErrUnsupported, "%q fixes day of month or month", expr)
	}

	switch {
	case minute == "*" && hour == "*" && dow == "*":
		return Plan{Kind: Minutely}, nil

	case hour == "*" && dow == "*":
		m, err := fieldValue(minute, 59)
		if err != nil {
			return Plan{}, errors.Wrapf(ErrUnsupported, "%q: %v", expr, err)
		}
		return Plan{Kind: Hourly, Minute: m}, nil

	case dow == "*":
		m, err := fieldValue(minute, 59)
		if err != nil {
			return Plan{}, errors.Wrapf(ErrUnsupported, "%q: %v", expr, err)
		}
		h, err := fieldValue(hour, 23)
		if err != nil {
			return Plan{}, errors.Wrapf(ErrUnsupported, "%q: %v", expr, err)
		}
		return Plan{Kind: Daily, Minute: m, Hour: h}, nil

	default:
		m, err := fieldValue(minute, 59)
		if err != nil {
			return Plan{}, errors.Wrapf(ErrUnsupported, "%q: %v", expr, err)
		}
		h, err := fieldValue(hour, 23)
		if err != nil {
			return Plan{}, errors.Wrapf(ErrUnsupported, "%q: %v", expr, err)
		}
		d, err := fieldValue(dow, 6)
		if err != nil {
			return Plan{}, errors.Wrapf(ErrUnsupported, "%q: %v", expr, err)
		}
		return Plan{Kind: Weekly, Minute: m, Hour: h, DayOfWeek: d}, nil
	}
}

// fieldValue parses a single plain numeric cron field. Anything with cron
// syntax beyond a bare number fails.
func fieldValue(field string, max int) (int, error) {
	n, err := strconv.Atoi(field)
	if err != nil {
		return 0, fmt.Errorf("field %q is not a plain number", field)
	}
	if n < 0 || n > max {
		return 0, fmt.Errorf("field %q out of range 0..%d", field, max)
	}
	return n, nil
}

func checkRange(name string, v, max int) error {
	if v < 0 || v > max {
		return errors.Errorf("cronplan: %s %d out of range 0..%d", name, v, max)
	}
	return nil
}
