package logger

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func TestFormat_KeyValuePairs(t *testing.T) {
	got := format("transfer applied", []interface{}{"tx_id", "abc", "amount", 20})
	want := "transfer applied tx_id=abc amount=20"
	if got != want {
		t.Fatalf("format() = %q, want %q", got, want)
	}
}

func TestFormat_NoPairs(t *testing.T) {
	if got := format("plain", nil); got != "plain" {
		t.Fatalf("format() = %q, want %q", got, "plain")
	}
}

func TestFormat_OddTrailingKey(t *testing.T) {
	got := format("msg", []interface{}{"dangling"})
	if got != "msg dangling" {
		t.Fatalf("format() = %q", got)
	}
}

func TestInfo_WritesToConfiguredLogger(t *testing.T) {
	Init()
	var buf bytes.Buffer
	InfoLogger = log.New(&buf, "INFO: ", 0)

	Info("ledger ready", "assets", 3)

	if !strings.Contains(buf.String(), "ledger ready assets=3") {
		t.Fatalf("unexpected log output: %q", buf.String())
	}
}
