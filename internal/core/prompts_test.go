package core

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"xlerion.co/guide/internal/i18n"
)

func TestBuildAnswerPrompt(t *testing.T) {
	es := BuildAnswerPrompt(i18n.Spanish, `¿"Salud" o educación?`)
	assert.Contains(t, es, "Actúa como Xlerion")
	assert.Contains(t, es, `Consulta: "¿\"Salud\" o educación?"`)
	assert.Contains(t, es, `"type":"chart"`)

	en := BuildAnswerPrompt(i18n.English, "GDP?")
	assert.Contains(t, en, "Act as Xlerion")
	assert.Contains(t, en, `Query: "GDP?"`)
	assert.NotContains(t, en, "Actúa")
}

func TestBuildRecommendationPrompt(t *testing.T) {
	es := BuildRecommendationPrompt(i18n.Spanish, "q", "a")
	assert.Contains(t, es, `Consulta original: "q"`)
	assert.Contains(t, es, `Respuesta detallada de Xlerion: "a"`)

	en := BuildRecommendationPrompt(i18n.English, "q", "a")
	assert.Contains(t, en, `Original query: "q"`)
	assert.Contains(t, en, "Synthesized recommendation:")
}
