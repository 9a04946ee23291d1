package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		message string
		want    intent
	}{
		{"hello", intentGreeting},
		{"Hi there!", intentGreeting},
		{"good morning", intentGreeting},
		{"hi, schedule a daily sync of raw_orders", intentSchedule},
		{"hey, can you clean raw_orders?", intentTransform},

		{"help", intentHelp},
		{"What can you do?", intentHelp},
		{"?", intentHelp},

		{"status", intentStatus},
		{"jobs", intentStatus},
		{"list jobs", intentStatus},
		{"show my jobs please", intentStatus},

		{"schedule a nightly clean of raw_orders", intentSchedule},
		{"refresh revenue daily", intentSchedule},
		{"run this every morning at 6", intentSchedule},

		{"yes", intentConfirm},
		{"Yes.", intentConfirm},
		{"ok", intentConfirm},
		{"go ahead", intentConfirm},
		{"run it", intentConfirm},

		{"no", intentCancel},
		{"nope", intentCancel},
		{"cancel that", intentCancel},
		{"never mind", intentCancel},

		// Anything else is a transform request. Tricky negatives: "higher"
		// must not read as the greeting "hi", "normalize" must not read as
		// the cancel "no".
		{"build a revenue summary by region", intentTransform},
		{"clean raw_customers", intentTransform},
		{"higher revenue by region", intentTransform},
		{"normalize the orders feed", intentTransform},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, classify(tc.message), "message %q", tc.message)
	}
}
