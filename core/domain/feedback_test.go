package domain

import (
	"errors"
	"testing"
)

func TestFeedbackValidate(t *testing.T) {
	cases := []struct {
		name     string
		feedback Feedback
		wantErr  error
	}{
		{"edit without rating", Feedback{Type: FeedbackEdit}, nil},
		{"edit with rating", Feedback{Type: FeedbackEdit, Rating: 4}, nil},
		{"approve with rating", Feedback{Type: FeedbackApprove, Rating: 5}, nil},
		{"reject with rating", Feedback{Type: FeedbackReject, Rating: 1}, nil},
		{"approve without rating", Feedback{Type: FeedbackApprove}, ErrRatingRequired},
		{"reject without rating", Feedback{Type: FeedbackReject}, ErrRatingRequired},
		{"rating too high", Feedback{Type: FeedbackApprove, Rating: 6}, ErrRatingOutOfRange},
		{"rating too low", Feedback{Type: FeedbackEdit, Rating: -1}, ErrRatingOutOfRange},
		{"unknown type", Feedback{Type: "shrug"}, ErrInvalidFeedbackType},
		{"empty type", Feedback{}, ErrInvalidFeedbackType},
	}

	for _, tc := range cases {
		err := tc.feedback.Validate()
		if !errors.Is(err, tc.wantErr) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.wantErr, err)
		}
	}
}

func TestFeedbackIsPositive(t *testing.T) {
	if !(&Feedback{Type: FeedbackApprove}).IsPositive() {
		t.Error("approve must be positive")
	}
	if (&Feedback{Type: FeedbackReject}).IsPositive() {
		t.Error("reject must not be positive")
	}
	if (&Feedback{Type: FeedbackEdit}).IsPositive() {
		t.Error("edit must not be positive")
	}
}
