package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/dalemusser/cmsdesk/internal/app/system/apperr"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", apperr.Validation("bad"), http.StatusBadRequest},
		{"duplicate", fmt.Errorf("create user: %w", apperr.Duplicate("email taken")), http.StatusBadRequest},
		{"not found", fmt.Errorf("update: %w", apperr.NotFound("task not found")), http.StatusNotFound},
		{"forbidden", fmt.Errorf("join: %w", apperr.Forbidden("not your room")), http.StatusForbidden},
		{"store", errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := apperr.Status(tt.err); got != tt.want {
				t.Errorf("Status(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestKindsMatchSentinels(t *testing.T) {
	err := fmt.Errorf("create: %w", apperr.Validation("content is required"))
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatal("expected wrapped validation error to match ErrValidation")
	}
	if errors.Is(err, apperr.ErrNotFound) {
		t.Fatal("validation error must not match ErrNotFound")
	}
	if got := apperr.Message(err, "oops"); got != "content is required" {
		t.Errorf("Message = %q", got)
	}
}

func TestMessageHidesStoreDetail(t *testing.T) {
	err := errors.New("dial tcp 10.0.0.1:27017: i/o timeout")
	if got := apperr.Message(err, "Failed to save message"); got != "Failed to save message" {
		t.Errorf("Message = %q", got)
	}
}
