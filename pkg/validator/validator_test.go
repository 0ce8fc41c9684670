package validator

import (
	"testing"
)

type shiftForm struct {
	ShiftID      string `validate:"required"`
	StartTime    string `validate:"required,iso8601"`
	ScheduleType string `validate:"omitempty,schedule"`
	TrafficCount int    `validate:"gte=0"`
}

func TestValidate(t *testing.T) {
	v := New()

	ok := shiftForm{ShiftID: "S-1", StartTime: "2024-01-15T06:00:00Z", ScheduleType: "2-2-1"}
	if err := v.Validate(ok); err != nil {
		t.Fatalf("expected valid form got %v", err)
	}

	for _, schedule := range []string{"Night", "5-2", "rotating"} {
		form := ok
		form.ScheduleType = schedule
		if err := v.Validate(form); err != nil {
			t.Errorf("schedule %q rejected: %v", schedule, err)
		}
	}

	bad := shiftForm{StartTime: "tomorrow", ScheduleType: "whenever", TrafficCount: -1}
	msgs := Messages(v.Validate(bad))
	want := map[string]string{
		"shift_id":      "is required",
		"start_time":    "must be an ISO-8601 timestamp",
		"schedule_type": "must be a rotation like 2-2-1 or a named schedule",
		"traffic_count": "must be at least 0",
	}
	for field, msg := range want {
		if msgs[field] != msg {
			t.Errorf("%s: got %q want %q (all: %v)", field, msgs[field], msg, msgs)
		}
	}
}
