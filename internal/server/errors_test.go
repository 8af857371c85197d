package server

import (
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "run not found", err: &ErrRunNotFound{RunID: uuid.New()}, want: http.StatusNotFound},
		{name: "validation", err: &ErrValidation{Field: "jobs", Message: "required"}, want: http.StatusBadRequest},
		{name: "store unavailable", err: &ErrStoreUnavailable{}, want: http.StatusServiceUnavailable},
		{name: "unknown", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	id := uuid.New()
	assert.Contains(t, (&ErrRunNotFound{RunID: id}).Error(), id.String())
	assert.Contains(t, (&ErrValidation{Field: "profile", Message: "missing"}).Error(), "profile")
}
