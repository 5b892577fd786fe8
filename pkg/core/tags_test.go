package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestExtractTags(t *testing.T) {
	testCases := []struct {
		name string
		text string
		want []string
	}{
		{"none", "plain text", nil},
		{"single", "hello #r1", []string{"#r1"}},
		{"duplicates collapse", "x #a #a", []string{"#a"}},
		{"first appearance order", "#b then #a then #b", []string{"#b", "#a"}},
		{"dash and underscore", "#row-1 #my_tag", []string{"#row-1", "#my_tag"}},
		{"unicode letters", "café #résumé", []string{"#résumé"}},
		{"bare hash is not a tag", "# heading", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractTags(tc.text))
		})
	}
}

func TestIsTag(t *testing.T) {
	assert.True(t, IsTag("#a"))
	assert.True(t, IsTag("#row-1f"))
	assert.False(t, IsTag("a"))
	assert.False(t, IsTag("#a #b"))
	assert.False(t, IsTag(" #a"))
	assert.False(t, IsTag("#"))
}

func TestDeriveTags(t *testing.T) {
	t.Run("empty title gets one synthesized tag", func(t *testing.T) {
		title, tags := DeriveTags("", "#row-", seqIDs("x"))
		require.Len(t, tags, 1)
		assert.Equal(t, "#row-x1", tags[0])
		assert.Equal(t, "#row-x1", title)
	})

	t.Run("duplicates collapse and title is unchanged", func(t *testing.T) {
		title, tags := DeriveTags("x #a #a", "#row-", seqIDs("x"))
		assert.Equal(t, "x #a #a", title)
		assert.Equal(t, []string{"#a"}, tags)
	})

	t.Run("untagged title gets tag appended", func(t *testing.T) {
		title, tags := DeriveTags("  Topic 1 ", "#col-", seqIDs("x"))
		assert.Equal(t, "Topic 1 #col-x1", title)
		assert.Equal(t, []string{"#col-x1"}, tags)
		assert.Equal(t, "Topic 1", DisplayText(title))
	})

	t.Run("uuid suffix loses hyphens", func(t *testing.T) {
		_, tags := DeriveTags("", "#row-", NewID)
		require.Len(t, tags, 1)
		assert.True(t, IsTag(tags[0]))
		assert.Equal(t, len("#row-")+32, len(tags[0]))
	})
}

func TestDeriveTags_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		title := rapid.StringMatching(`[A-Za-z0-9 ]{0,30}`).Draw(t, "title")
		got, tags := DeriveTags(title, "#row-", NewID)
		if len(tags) != 1 {
			t.Fatalf("expected exactly one tag, got %v", tags)
		}
		if strings.TrimSpace(got) == "" {
			t.Fatalf("derived title is empty")
		}
		if !sameTags(ExtractTags(got), tags) {
			t.Fatalf("title %q does not carry tags %v", got, tags)
		}
	})
}

func TestRemoveTags(t *testing.T) {
	testCases := []struct {
		name string
		text string
		tags []string
		want string
	}{
		{"whole token only", "x #a #ab", []string{"#a"}, "x #ab"},
		{"all occurrences", "#a x #a y", []string{"#a"}, "x y"},
		{"keeps newlines", "line one #a\nline two", []string{"#a"}, "line one\nline two"},
		{"nothing to remove", "x  y", nil, "x  y"},
		{"leading token takes the following space", "#a #b rest", []string{"#a", "#b"}, "rest"},
		{"only tags", "#a #b", []string{"#a", "#b"}, ""},
		{"body layout untouched",
			"Plan #r1 #c1\n\n    code block\n\tindented\n- a  b",
			[]string{"#r1", "#c1"},
			"Plan\n\n    code block\n\tindented\n- a  b"},
		{"one blank per token", "x  #a  y", []string{"#a"}, "x   y"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RemoveTags(tc.text, tc.tags))
		})
	}
}

func TestAppendTags(t *testing.T) {
	assert.Equal(t, "x #a #b", AppendTags("x #a", []string{"#a", "#b"}))
	assert.Equal(t, "#a #b", AppendTags("", []string{"#a", "#b", "#a"}))
	assert.Equal(t, "x #a", AppendTags("x #a", []string{"#a"}))
	assert.Equal(t, "x", AppendTags("x", nil))
	assert.Equal(t, "x\n#r2", AppendTags("x\n", []string{"#r2"}))
	assert.Equal(t, "x\n#r2", AppendTags("x\n \t", []string{"#r2"}))
}

func TestDisplayText(t *testing.T) {
	assert.Equal(t, "hello", DisplayText("hello #r1 #c1"))
	assert.Equal(t, "buy milk", DisplayText("#todo buy   milk"))
	assert.Equal(t, "", DisplayText("#r1 #c1"))
}

func TestTagSetHelpers(t *testing.T) {
	assert.True(t, containsAll([]string{"#a", "#b"}, []string{"#b"}))
	assert.True(t, containsAll(nil, nil))
	assert.False(t, containsAll([]string{"#a"}, []string{"#a", "#b"}))
	assert.Equal(t, []string{"#a", "#b", "#c"}, unionTags([]string{"#a", "#b"}, []string{"#b", "#c"}))
	assert.Equal(t, []string{"#a"}, minusTags([]string{"#a", "#b"}, []string{"#b"}))
	assert.True(t, sameTags([]string{"#a", "#b"}, []string{"#b", "#a"}))
}
