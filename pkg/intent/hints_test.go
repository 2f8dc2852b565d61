package intent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripProviderHints(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		provider string
	}{
		{"no hint", "send an email to bob@example.com", "send an email to bob@example.com", ""},
		{"hint in the middle", "write a pitch service:openai for Acme", "write a pitch for Acme", "openai"},
		{"hint first", "service:anthropic write a pitch", "write a pitch", "anthropic"},
		{"hint last", "write a pitch service:openai", "write a pitch", "openai"},
		{"double quoted", `write a pitch "service:openai" please`, "write a pitch please", "openai"},
		{"single quoted value", `write a pitch service:'gpt-4o' please`, "write a pitch please", "gpt-4o"},
		{"case insensitive", "SERVICE:OpenAI draft it", "draft it", "openai"},
		{"several hints", "service:a draft service:b it", "draft it", "a"},
		{"only a hint", "service:openai", "", "openai"},
		{"keeps other spacing", "hello,  service:x   world", "hello,    world", "x"},
		{"inside user quotes", `email bob@x.com "launch note service:openai" today`, `email bob@x.com "launch note" today`, "openai"},
		{"sentence punctuation", "service:gpt-4. then", ". then", "gpt-4"},
		{"unpaired opening quote", `say "service:openai hi`, `say "hi`, "openai"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stripped, provider := StripProviderHints(tt.input)
			assert.Equal(t, tt.expected, stripped)
			assert.Equal(t, tt.provider, provider)
		})
	}
}

func TestStripProviderHints_Property(t *testing.T) {
	inputs := []string{
		"Draft a newsletter service:openai about our launch",
		`"service:openai" Send a sales pitch to ana@example.com`,
		"service:x service:y",
		"no hint at all, 'quoted' text stays \"as is\"",
		"trailing service:mistral",
		`email bob@x.com "launch note service:openai" today`,
		"use service:gpt-4. then send it",
	}

	for _, input := range inputs {
		stripped, _ := StripProviderHints(input)

		// no hint survives stripping
		assert.NotContains(t, strings.ToLower(stripped), "service:")

		// stripping never introduces quotes
		assert.LessOrEqual(t, strings.Count(stripped, `"`), strings.Count(input, `"`))
		assert.LessOrEqual(t, strings.Count(stripped, `'`), strings.Count(input, `'`))

		// stripping is idempotent
		again, provider := StripProviderHints(stripped)
		assert.Equal(t, stripped, again)
		assert.Empty(t, provider)
	}
}
