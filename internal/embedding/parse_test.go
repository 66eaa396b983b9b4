package embedding

import (
	"errors"
	"testing"
)

func TestParseOutput(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []float32
	}{
		{"plain", `{"embedding": [0.5, 1, -2]}`, []float32{0.5, 1, -2}},
		{"leading noise", "WARNING: cuda not found\n1/1 [====] - 0s\n{\"embedding\": [1, 2]}\n", []float32{1, 2}},
		{"trailing noise", `{"embedding": [3]} done`, []float32{3}},
		{"log object first", `{"level": "info"} {"embedding": [4, 5]}`, []float32{4, 5}},
		{"numeric strings", `{"embedding": ["1.5", "2"]}`, []float32{1.5, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOutput([]byte(tt.raw))
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseOutput_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"whitespace", "  \n"},
		{"no json", "Traceback (most recent call last):"},
		{"non-numeric", `{"embedding": ["abc", 1]}`},
		{"empty embedding", `{"embedding": []}`},
		{"no embedding key", `{"result": [1, 2]}`},
		{"truncated", `{"embedding": [1, 2`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, err := ParseOutput([]byte(tt.raw)); err == nil {
				t.Errorf("expected error, got %v", got)
			}
		})
	}
}

func TestParseOutput_ReportedError(t *testing.T) {
	_, err := ParseOutput([]byte(`{"error": "cannot identify image file"}`))
	var re *ReportedError
	if !errors.As(err, &re) {
		t.Fatalf("expected *ReportedError, got %v", err)
	}
	if re.Message != "cannot identify image file" {
		t.Errorf("message = %q", re.Message)
	}
}
