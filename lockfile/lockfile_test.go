package lockfile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minios-linux/i18nsync/jsontree"
)

func doc(t *testing.T, s string) *jsontree.Node {
	t.Helper()
	d, err := jsontree.Parse([]byte(s))
	require.NoError(t, err)
	return d
}

func TestHashDeterministic(t *testing.T) {
	assert.Equal(t, Hash("hello world"), Hash("hello world"))
	assert.NotEqual(t, Hash("hello world"), Hash("different"))
}

func TestLoadNonExistent(t *testing.T) {
	assert.Nil(t, Load(t.TempDir(), nil))
}

func TestLoadCorruptIsAbsent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("{not json"), 0644))
	assert.Nil(t, Load(dir, nil))
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	c := New("en", doc(t, `{"greet":"Hello","count":3,"nested":{"a":true}}`), now)
	require.NoError(t, c.Save(dir))

	raw, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"lastSync": "2025-03-01T12:00:00Z"`)
	assert.Contains(t, string(raw), `"sourceLang": "en"`)

	back := Load(dir, nil)
	require.NotNil(t, back)
	assert.Equal(t, "en", back.SourceLang)
	assert.True(t, now.Equal(back.LastSync))
	assert.Equal(t, map[string]string{
		"greet":    "Hello",
		"count":    "3",
		"nested.a": "true",
	}, back.SourceData)
}

func TestModifiedKeysWithoutCache(t *testing.T) {
	var c *Cache
	src := doc(t, `{"a":{"b":"x"},"c":"y"}`)
	assert.Equal(t, []string{"a.b", "c"}, c.ModifiedKeys(src, "en"))
}

func TestModifiedKeysSourceSwitch(t *testing.T) {
	c := &Cache{SourceLang: "de", SourceData: map[string]string{"a.b": "x", "c": "y"}}
	src := doc(t, `{"a":{"b":"x"},"c":"y"}`)
	assert.Equal(t, []string{"a.b", "c"}, c.ModifiedKeys(src, "en"), "cache for another source is ignored")
}

func TestModifiedKeysDetectsChanges(t *testing.T) {
	c := &Cache{SourceLang: "en", SourceData: map[string]string{
		"a.b":     "hello",
		"same":    "kept",
		"removed": "gone",
	}}
	src := doc(t, `{"a":{"b":"hi"},"same":"kept","new":"fresh"}`)

	assert.Equal(t, []string{"a.b", "new"}, c.ModifiedKeys(src, "en"))
}

func TestModifiedKeysStringCoercion(t *testing.T) {
	// A number and its decimal string are the same cached value.
	c := &Cache{SourceLang: "en", SourceData: map[string]string{"n": "1", "b": "true", "z": "null"}}
	src := doc(t, `{"n":1,"b":true,"z":null}`)
	assert.Empty(t, c.ModifiedKeys(src, "en"))

	src = doc(t, `{"n":"1","b":"true","z":"null"}`)
	assert.Empty(t, c.ModifiedKeys(src, "en"))
}

func TestModifiedKeysNumberAndArrayForms(t *testing.T) {
	c := &Cache{SourceLang: "en", SourceData: map[string]string{"a": "1", "b": "100", "c": "1,2"}}
	src := doc(t, `{"a":1.0,"b":1e2,"c":[1,2]}`)
	assert.Empty(t, c.ModifiedKeys(src, "en"))

	fresh := New("en", src, time.Now())
	assert.Equal(t, map[string]string{"a": "1", "b": "100", "c": "1,2"}, fresh.SourceData)
}

func TestUsable(t *testing.T) {
	var nilCache *Cache
	assert.False(t, nilCache.Usable("en"))
	assert.True(t, (&Cache{SourceLang: "en"}).Usable("en"))
	assert.False(t, (&Cache{SourceLang: "en"}).Usable("fr"))
}

func TestFingerprintStable(t *testing.T) {
	a := &Cache{SourceData: map[string]string{"x": "1", "y": "2"}}
	b := &Cache{SourceData: map[string]string{"y": "2", "x": "1"}}
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	b.SourceData["y"] = "3"
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

func TestSummary(t *testing.T) {
	var c *Cache
	assert.Equal(t, "no sync cache", c.Summary())

	c = &Cache{SourceLang: "en", SourceData: map[string]string{"k": "v"}, LastSync: time.Unix(0, 0).UTC()}
	assert.Contains(t, c.Summary(), "source en, 1 keys")
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Remove(dir), "missing file is fine")

	require.NoError(t, New("en", jsontree.NewObject(), time.Now()).Save(dir))
	require.NoError(t, Remove(dir))
	assert.Nil(t, Load(dir, nil))
}
