package i18n

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatch(t *testing.T) {
	cases := map[string]string{
		"":               "",
		"en-US,en;q=0.9": "en",
		"es-CL":          "es",
		"fr-FR,en;q=0.5": "en",
		"de-DE":          "",
	}
	for header, want := range cases {
		assert.Equal(t, want, Match(header), header)
	}
}

func TestStatusLabel(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, "Pendiente", StatusLabel(ctx, "pending"))
	assert.Equal(t, "Cancelled", StatusLabel(WithLocale(ctx, "en"), "cancelled"))
	assert.Equal(t, "status.unknown", StatusLabel(ctx, "unknown"))
}

func TestT_TemplateData(t *testing.T) {
	ctx := WithLocale(context.Background(), "en")

	got := T(ctx, "balance.shortfall", map[string]any{"Shortfall": "2.5", "Available": "1"})

	assert.Equal(t, "2.5 days short (1 available)", got)
	assert.Equal(t, "Conflict", ErrorLabel(ctx, "conflict"))
	assert.Equal(t, "es", LocaleFromContext(context.Background()))
}
