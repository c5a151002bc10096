package evaluator

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinCatalog(t *testing.T) {
	catalog, err := BuiltinCatalog()
	require.NoError(t, err)

	en := catalog.ForLanguage("en")
	require.Len(t, en, 2)
	assert.Equal(t, "anc-visit", en[0].ID)
	assert.Equal(t, "child-diarrhea", en[1].ID)
	assert.Equal(t, 5, en[0].EstimatedMinutes)

	hi := catalog.ForLanguage("hi")
	require.Len(t, hi, 1)
	assert.Equal(t, "प्रसवपूर्व देखभाल गृह भेंट", hi[0].Title)

	assert.Empty(t, catalog.ForLanguage("ta"))
}

func TestScenario_NextNodeKey(t *testing.T) {
	catalog, err := BuiltinCatalog()
	require.NoError(t, err)
	s, _ := catalog.Get("child-diarrhea")

	assert.Equal(t, "feeding", s.NextNodeKey("start"))
	assert.Equal(t, EndNodeKey, s.NextNodeKey("feeding"))
	assert.Equal(t, EndNodeKey, s.NextNodeKey("missing"))
}

func TestLocalized_In(t *testing.T) {
	l := Localized{"en": "Hello", "hi": "नमस्ते"}
	assert.Equal(t, "नमस्ते", l.In("hi"))
	assert.Equal(t, "Hello", l.In("ta"))
}

func TestScenario_Meta_Defaults(t *testing.T) {
	s := &Scenario{ID: "x", Title: Localized{"en": "X"}}
	meta := s.Meta("en")
	assert.Equal(t, "beginner", meta.Difficulty)
	assert.Equal(t, 10, meta.EstimatedMinutes)
	assert.Equal(t, 8, s.TurnsEstimate())
}

func TestLoadCatalog_Invalid(t *testing.T) {
	fsys := fstest.MapFS{
		"broken.yaml": {Data: []byte(`
id: broken
title: {en: Broken}
supported_languages: [en]
nodes:
  start:
    patient_text: {en: Hi}
    expected_checklist:
      - item: Greet
        type: normal
    transitions:
      - condition: default
        next_node_key: nowhere
  orphan:
    patient_text: {en: Bye}
`)},
		"README.md": {Data: []byte("ignored")},
	}

	_, err := LoadCatalog(fsys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `transitions to unknown node "nowhere"`)
	assert.Contains(t, err.Error(), `checklist item "Greet" has no keywords`)
	assert.Contains(t, err.Error(), `node "orphan" has no transitions`)
}

func TestLoadCatalog_Duplicate(t *testing.T) {
	doc := []byte(`
id: dup
title: {en: Dup}
supported_languages: [en]
nodes:
  start:
    patient_text: {en: Hi}
    transitions:
      - condition: default
        next_node_key: __end__
`)
	_, err := LoadCatalog(fstest.MapFS{"a.yaml": {Data: doc}, "b.yml": {Data: doc}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate scenario id")
}
