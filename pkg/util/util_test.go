// pkg/util/util_test.go
// Copyright(c) 2024 trajcore contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"strings"
	"testing"
)

func TestSortedMapKeys(t *testing.T) {
	m := map[string]int{"FLT3": 3, "FLT1": 1, "FLT2": 2}
	keys := SortedMapKeys(m)
	if len(keys) != 3 || keys[0] != "FLT1" || keys[1] != "FLT2" || keys[2] != "FLT3" {
		t.Errorf("got %v", keys)
	}
}

func TestMapSlice(t *testing.T) {
	doubled := MapSlice([]int{1, 2, 3}, func(v int) int { return 2 * v })
	if len(doubled) != 3 || doubled[0] != 2 || doubled[1] != 4 || doubled[2] != 6 {
		t.Errorf("got %v", doubled)
	}
}

func TestUnmarshalJSONErrorPosition(t *testing.T) {
	var out struct {
		FlightID string `json:"flight_id"`
	}
	// The syntax error sits on the second line; the error must say so.
	bad := "{\n  \"flight_id\": }\n"
	err := UnmarshalJSONBytes([]byte(bad), &out)
	if err == nil {
		t.Fatalf("expected an error")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error should report line 2: %v", err)
	}
}

func TestUnmarshalJSONValid(t *testing.T) {
	var out struct {
		FlightID string `json:"flight_id"`
	}
	if err := UnmarshalJSONBytes([]byte(`{"flight_id": "FLT1"}`), &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.FlightID != "FLT1" {
		t.Errorf("got %q", out.FlightID)
	}
}

func TestErrorLogger(t *testing.T) {
	var e ErrorLogger
	e.Push("collection")
	e.Push("FLT1")
	e.ErrorString("bad time order")
	e.Pop()
	e.Pop()

	if !e.HaveErrors() {
		t.Fatalf("expected errors")
	}
	if got := e.String(); !strings.Contains(got, "collection / FLT1: bad time order") {
		t.Errorf("got %q", got)
	}
}
