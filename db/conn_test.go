package db

import (
	"context"
	"testing"
)

func TestNewPool_RejectsEmptyConnString(t *testing.T) {
	if _, err := NewPool(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty connection string")
	}
}

func TestNewPool_RejectsMalformedConnString(t *testing.T) {
	if _, err := NewPool(context.Background(), "://not-a-dsn"); err == nil {
		t.Fatal("expected error for malformed connection string")
	}
}
