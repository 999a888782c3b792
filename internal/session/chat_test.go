// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/jeranaias/qa-assistant/internal/api"
	"github.com/jeranaias/qa-assistant/internal/model"
)

// fakeAsker answers from a script.
type fakeAsker struct {
	mu       sync.Mutex
	probeErr error
	askErr   error
	result   *model.QueryResult
	offline  bool
	asked    []string
	probes   int
}

func (f *fakeAsker) AskDetailed(_ context.Context, q string) (*api.Answer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.asked = append(f.asked, q)
	if f.askErr != nil {
		return nil, f.askErr
	}
	res := f.result
	if res == nil {
		res = &model.QueryResult{Intent: model.IntentRAG, Answer: "ok: " + q, Success: true}
	}
	return &api.Answer{Result: res}, nil
}

func (f *fakeAsker) CheckServerReachable(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probes++
	return f.probeErr
}

func (f *fakeAsker) Offline() bool { return f.offline }

var unavailable = &api.Error{Op: "ask", Kind: api.KindUnavailable, UserMessage: "server unavailable"}

func newChat(t *testing.T, f *fakeAsker, locale string) *Chat {
	t.Helper()
	c := New(f, Options{Locale: locale})
	c.Start(context.Background())
	return c
}

// =============================================================================
// START
// =============================================================================

func TestStart_Welcome(t *testing.T) {
	c := newChat(t, &fakeAsker{}, "es")

	msgs := c.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, model.RoleAssistant, msgs[0].Role)
	assert.Equal(t, "¡Hola! Soy tu asistente de QA. ¿En qué puedo ayudarte?", msgs[0].Text)
	assert.Equal(t, model.IntentWelcome, msgs[0].Result.Intent)
	assert.Equal(t, []string{
		"Listar todas las actividades",
		"Mostrar actividades completadas",
		"Consultar progreso por aplicación",
		"Explicar el proceso de testing",
	}, msgs[0].Suggestions)
	assert.True(t, c.ServerAvailable())
}

func TestStart_ServerDown(t *testing.T) {
	c := newChat(t, &fakeAsker{probeErr: unavailable}, "es")

	assert.False(t, c.ServerAvailable())
	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleSystem, msgs[1].Role)
	assert.Equal(t, "El servidor no está disponible. Verifica que el backend esté ejecutándose.", msgs[1].Text)
}

func TestStart_OfflineSkipsProbe(t *testing.T) {
	f := &fakeAsker{offline: true, probeErr: unavailable}
	c := newChat(t, f, "en")

	assert.True(t, c.ServerAvailable())
	assert.Zero(t, f.probes)
	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[1].Text, "Offline mode")

	c.CheckConnection(context.Background())
	assert.Len(t, c.Messages(), 2, "offline notice shown once")
}

// =============================================================================
// SEND
// =============================================================================

func TestSend_AppendsUserAndAnswer(t *testing.T) {
	f := &fakeAsker{}
	c := newChat(t, f, "en")

	require.True(t, c.Send(context.Background(), "¿Qué es Angular?"))

	msgs := c.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, model.RoleUser, msgs[1].Role)
	assert.Equal(t, "¿Qué es Angular?", msgs[1].Text)
	assert.Equal(t, "ok: ¿Qué es Angular?", msgs[2].Text)
	assert.False(t, msgs[2].IsError)
	assert.False(t, c.Loading())
}

func TestSend_Ignored(t *testing.T) {
	t.Run("blank", func(t *testing.T) {
		f := &fakeAsker{}
		c := newChat(t, f, "en")
		assert.False(t, c.Send(context.Background(), "  \t"))
		assert.Empty(t, f.asked)
		assert.Len(t, c.Messages(), 1)
	})

	t.Run("server unavailable", func(t *testing.T) {
		f := &fakeAsker{probeErr: unavailable}
		c := newChat(t, f, "en")
		assert.False(t, c.Send(context.Background(), "q"))
		assert.Empty(t, f.asked)
	})

	t.Run("loading", func(t *testing.T) {
		c := newChat(t, &fakeAsker{}, "en")
		_, ok := c.Begin("first")
		require.True(t, ok)
		_, ok = c.Begin("second")
		assert.False(t, ok)
		assert.True(t, c.Loading())
	})
}

func TestSend_UnsuccessfulAnswer(t *testing.T) {
	f := &fakeAsker{result: &model.QueryResult{
		Intent:       model.IntentSQL,
		Success:      false,
		ErrorMessage: "No se pudo generar la consulta",
		Suggestions:  []string{"Reformula la pregunta"},
	}}
	c := newChat(t, f, "es")
	c.Send(context.Background(), "q")

	last := c.Messages()[2]
	assert.True(t, last.IsError)
	assert.Equal(t, "No se pudo generar la consulta", last.Text)
	assert.Equal(t, []string{"Reformula la pregunta"}, last.Suggestions)
}

func TestSend_ErrorMessage(t *testing.T) {
	tests := []struct {
		err       error
		want      string
		available bool
	}{
		{err: unavailable, want: "No se puede conectar con el servidor.", available: false},
		{err: &api.Error{Kind: api.KindTimeout}, want: "La consulta tardó demasiado. Inténtalo de nuevo.", available: true},
		{err: &api.Error{Kind: api.KindServer, Status: 500}, want: "Error interno del servidor.", available: true},
		{err: &api.Error{Kind: api.KindNotFound, Status: 404}, want: "Servicio no encontrado en el servidor.", available: true},
		{err: errors.New("plain"), want: "Error de conexión con el servidor.", available: true},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			c := newChat(t, &fakeAsker{askErr: tt.err}, "es")
			c.Send(context.Background(), "q")

			last := c.Messages()[2]
			assert.True(t, last.IsError)
			assert.Equal(t, tt.want, last.Text)
			assert.Equal(t, []string{"Reintentar", "Verificar conexión"}, last.Suggestions)
			assert.Equal(t, tt.available, c.ServerAvailable())
		})
	}
}

// =============================================================================
// SUGGESTIONS
// =============================================================================

func TestUseSuggestion_Retry(t *testing.T) {
	f := &fakeAsker{askErr: &api.Error{Kind: api.KindTimeout}}
	c := newChat(t, f, "en")
	c.Send(context.Background(), "slow question")

	f.mu.Lock()
	f.askErr = nil
	f.mu.Unlock()
	c.UseSuggestion(context.Background(), "Retry")

	assert.Equal(t, []string{"slow question", "slow question"}, f.asked)
	msgs := c.Messages()
	assert.Equal(t, "ok: slow question", msgs[len(msgs)-1].Text)
}

func TestUseSuggestion_RetryWithoutQuestion(t *testing.T) {
	c := newChat(t, &fakeAsker{}, "en")
	assert.Equal(t, Action{}, c.ResolveSuggestion("Retry"))
}

func TestUseSuggestion_CheckConnection(t *testing.T) {
	f := &fakeAsker{askErr: unavailable}
	c := newChat(t, f, "es")
	c.Send(context.Background(), "q")
	require.False(t, c.ServerAvailable())

	f.mu.Lock()
	f.askErr = nil
	f.mu.Unlock()
	c.UseSuggestion(context.Background(), "Verificar conexión")

	assert.True(t, c.ServerAvailable())
	msgs := c.Messages()
	assert.Equal(t, "Conexión restablecida.", msgs[len(msgs)-1].Text)
	assert.Equal(t, 2, f.probes)
}

func TestUseSuggestion_AsksOtherwise(t *testing.T) {
	f := &fakeAsker{}
	c := newChat(t, f, "es")
	c.UseSuggestion(context.Background(), c.LastSuggestions()[0])
	assert.Equal(t, []string{"Listar todas las actividades"}, f.asked)
}

func TestUseSuggestion_IgnoredWhileLoading(t *testing.T) {
	c := newChat(t, &fakeAsker{}, "en")
	_, ok := c.Begin("q")
	require.True(t, ok)
	assert.Equal(t, Action{}, c.ResolveSuggestion("anything"))
}

func TestClear(t *testing.T) {
	c := newChat(t, &fakeAsker{}, "en")
	c.Send(context.Background(), "q")
	_, _ = c.Begin("pending")

	c.Clear()
	msgs := c.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, model.IntentWelcome, msgs[0].Result.Intent)
	assert.False(t, c.Loading())
}

func TestMessageIDsUnique(t *testing.T) {
	c := newChat(t, &fakeAsker{}, "en")
	for i := 0; i < 5; i++ {
		c.Send(context.Background(), "q")
	}
	seen := map[string]bool{}
	for _, m := range c.Messages() {
		assert.False(t, seen[m.ID])
		seen[m.ID] = true
	}
}

// =============================================================================
// LOCALE & TRANSCRIPTS
// =============================================================================

func TestCatalog_Matching(t *testing.T) {
	tests := map[string]language.Tag{
		"es":    language.Spanish,
		"es-MX": language.Spanish,
		"en-GB": language.English,
		"fr":    language.English,
		"":      language.English,
		"%%":    language.English,
	}
	for in, want := range tests {
		assert.Equal(t, want, NewCatalog(in).Language(), in)
	}
}

func TestCatalog_Number(t *testing.T) {
	assert.Equal(t, "1,234,567", NewCatalog("en").Number(1234567))
	assert.Equal(t, "1.234.567", NewCatalog("es").Number(1234567))
}

func TestCatalog_AllKeysTranslated(t *testing.T) {
	es, en := NewCatalog("es"), NewCatalog("en")
	for key, want := range texts {
		assert.Equal(t, want[0], es.Text(key), key)
		assert.Equal(t, want[1], en.Text(key), key)
	}
}

func TestTranscript(t *testing.T) {
	c := newChat(t, &fakeAsker{result: &model.QueryResult{
		Intent: model.IntentSQL, Answer: "3 filas", GeneratedSQL: "SELECT * FROM actividad", Success: true,
	}}, "es")
	c.Send(context.Background(), "Listar actividades")

	tr := c.Transcript("http://localhost:8080")
	require.Len(t, tr.Messages, 3)
	assert.Equal(t, "SQL", tr.Messages[2].Intent)
	assert.Equal(t, "SELECT * FROM actividad", tr.Messages[2].GeneratedSQL)
	assert.Equal(t, "WELCOME", tr.Messages[0].Intent)
	assert.Equal(t, []string{"Listar actividades"}, UserQuestions(tr))
}
