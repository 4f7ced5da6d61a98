package entries

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

func TestCatalog(t *testing.T) {
	want := []string{
		"beautiful", "desktop", "directoryA", "directoryB", "directoryC",
		"hello", "photos", "testDocument", "testSharedDocument", "unsupported", "world",
	}
	if diff := cmp.Diff(want, Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
}

func TestSets(t *testing.T) {
	testcases := []struct {
		name string
		set  []Entry
		want []string
	}{
		{"local", BasicLocal, []string{"hello.txt", "world.ogv", "My Desktop Background.png", "Beautiful Song.ogg", "photos"}},
		{"fake", BasicFake, []string{"hello.txt", "A"}},
		{"shared", SharedWithMe, []string{"Test Shared Document.gdoc"}},
		{"offline", Offline, []string{"Test Document.gdoc", "Test Shared Document.gdoc"}},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			var got []string
			for _, row := range Rows(tc.set) {
				got = append(got, FileName(row))
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("names mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRecentHasNoDirectories(t *testing.T) {
	for _, e := range Recent {
		if e.Type == Directory {
			t.Errorf("%s is a directory", e.NameText)
		}
	}
}

func TestRow(t *testing.T) {
	row := MustGet("hello").Row()
	if diff := cmp.Diff([]string{"hello.txt", "51 bytes", "Plain text", "Sep 4, 1998 12:34 PM"}, row); diff != "" {
		t.Errorf("Row() mismatch (-want +got):\n%s", diff)
	}
	if FileSize(row) != "51 bytes" || FileType(row) != "Plain text" {
		t.Errorf("unexpected accessors for %v", row)
	}
	if FileType(nil) != "" {
		t.Error("expected an empty column for a short row")
	}
}

func TestWithout(t *testing.T) {
	got := Without(BasicLocal, "hello.txt")
	if len(got) != len(BasicLocal)-1 {
		t.Fatalf("expected %d entries, got %d", len(BasicLocal)-1, len(got))
	}
	for _, e := range got {
		if e.NameText == "hello.txt" {
			t.Error("hello.txt was not removed")
		}
	}
}

func TestParseErrors(t *testing.T) {
	testcases := []struct {
		input   string
		wantErr string
	}{
		{input: "x:\n  type: symlink\n", wantErr: `entry x: unexpected type "symlink"`},
		{input: "x:\n  type: file\n  colour: red\n", wantErr: "parsing entry catalog"},
	}

	for i, tc := range testcases {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			_, err := Parse([]byte(tc.input))
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected %q, got %v", tc.wantErr, err)
			}
			if _, ok := err.(interface{ StackTrace() errors.StackTrace }); !ok {
				t.Errorf("expected an error with a stack trace, got %T", err)
			}
		})
	}
}
