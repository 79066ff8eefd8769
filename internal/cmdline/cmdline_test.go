package cmdline

import (
	"reflect"
	"testing"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"plain words", "mark-done 3", []string{"mark-done", "3"}},
		{"double quotes", `add "buy milk"`, []string{"add", "buy milk"}},
		{"single quotes", `add 'buy milk'`, []string{"add", "buy milk"}},
		{"extra spaces", "  list   done  ", []string{"list", "done"}},
		{"backslashes in double quotes", `add "C:\temp\notes"`, []string{"add", `C:\temp\notes`}},
		{"backslashes in a bare word", `add C:\temp\notes`, []string{"add", `C:\temp\notes`}},
		{"backslashes in single quotes", `add 'C:\temp'`, []string{"add", `C:\temp`}},
		{"escaped quote", `add "say \"hi\""`, []string{"add", `say "hi"`}},
		{"hash word is kept", `update 1 "fix" #2`, []string{"update", "1", "fix", "#2"}},
		{"hash inside quotes", `add "issue #12"`, []string{"add", "issue #12"}},
		{"trailing backslash", `add dir\`, []string{"add", `dir\`}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Split(tt.line)
			if err != nil {
				t.Fatalf("Split(%q) failed: %v", tt.line, err)
			}
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Split(%q): got %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestSplitUnterminatedQuote(t *testing.T) {
	for _, line := range []string{`add "buy milk`, `add 'buy milk`} {
		if _, err := Split(line); err == nil {
			t.Errorf("Split(%q): expected an error", line)
		}
	}
}
