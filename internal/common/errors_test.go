package common

import (
	"errors"
	"io"
	"testing"
)

func TestAppErrorSentinels(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"malformed", MalformedAnnotation("record %d", 3), ErrMalformedAnnotation},
		{"alignment", AlignmentInconsistency("labels=%d ids=%d", 3, 4), ErrAlignment},
		{"extraction", ExtractionFailure("a.pdf", io.ErrUnexpectedEOF), ErrExtraction},
		{"database", DatabaseFailure("upsert mention", io.ErrClosedPipe), ErrDatabase},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.want) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.want)
			}
		})
	}
	if !errors.Is(ExtractionFailure("a.pdf", io.ErrUnexpectedEOF), io.ErrUnexpectedEOF) {
		t.Error("extraction failure should keep its cause")
	}
}

func TestWrapErrorNil(t *testing.T) {
	if WrapError(nil, "ctx") != nil {
		t.Fatal("WrapError(nil) should be nil")
	}
	if DatabaseFailure("op", nil) != nil {
		t.Fatal("DatabaseFailure(nil) should be nil")
	}
}
