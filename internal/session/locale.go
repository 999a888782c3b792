// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys of the localized texts.
const (
	MsgWelcome         = "welcome"
	MsgSuggestList     = "suggest.list"
	MsgSuggestDone     = "suggest.completed"
	MsgSuggestProgress = "suggest.progress"
	MsgSuggestProcess  = "suggest.process"
	MsgRetry           = "action.retry"
	MsgCheckConnection = "action.check"
	MsgServerDown      = "system.server_down"
	MsgServerBack      = "system.server_back"
	MsgOfflineMode     = "system.offline"
	MsgConnectionError = "error.default"
	MsgErrUnavailable  = "error.unavailable"
	MsgErrNotFound     = "error.not_found"
	MsgErrServer       = "error.server"
	MsgErrTimeout      = "error.timeout"
	MsgErrMalformed    = "error.malformed"
	MsgErrOffline      = "error.offline"
)

var supported = []language.Tag{language.Spanish, language.English}

var texts = map[string][2]string{
	MsgWelcome: {
		"¡Hola! Soy tu asistente de QA. ¿En qué puedo ayudarte?",
		"Hi! I'm your QA assistant. How can I help you?",
	},
	MsgSuggestList:     {"Listar todas las actividades", "List all activities"},
	MsgSuggestDone:     {"Mostrar actividades completadas", "Show completed activities"},
	MsgSuggestProgress: {"Consultar progreso por aplicación", "Check progress by application"},
	MsgSuggestProcess:  {"Explicar el proceso de testing", "Explain the testing process"},
	MsgRetry:           {"Reintentar", "Retry"},
	MsgCheckConnection: {"Verificar conexión", "Check connection"},
	MsgServerDown: {
		"El servidor no está disponible. Verifica que el backend esté ejecutándose.",
		"The server is not available. Check that the backend is running.",
	},
	MsgServerBack: {"Conexión restablecida.", "Connection restored."},
	MsgOfflineMode: {
		"Modo sin conexión: solo se responden preguntas que ya están en caché.",
		"Offline mode: only questions already in the cache can be answered.",
	},
	MsgConnectionError: {"Error de conexión con el servidor.", "Error connecting to the server."},
	MsgErrUnavailable:  {"No se puede conectar con el servidor.", "Cannot connect to the server."},
	MsgErrNotFound:     {"Servicio no encontrado en el servidor.", "Endpoint not found on the server."},
	MsgErrServer:       {"Error interno del servidor.", "Internal server error."},
	MsgErrTimeout: {
		"La consulta tardó demasiado. Inténtalo de nuevo.",
		"The request took too long. Please try again.",
	},
	MsgErrMalformed: {"Respuesta del servidor no válida.", "The server returned an invalid response."},
	MsgErrOffline: {
		"Modo sin conexión: no hay respuesta en caché para esta pregunta.",
		"Offline mode: there is no cached answer for this question.",
	},
}

var (
	builder = newBuilder()
	matcher = language.NewMatcher(supported)
)

func newBuilder() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, t := range texts {
		for i, tag := range supported {
			_ = b.SetString(tag, key, t[i])
		}
	}
	return b
}

// Catalog returns localized texts for one language.
type Catalog struct {
	tag     language.Tag
	printer *message.Printer
}

// NewCatalog selects the supported language closest to locale (a BCP 47
// tag such as "es" or "en-GB"). Unknown locales get English.
func NewCatalog(locale string) *Catalog {
	tag := language.English
	if parsed, err := language.Parse(locale); err == nil {
		_, idx, conf := matcher.Match(parsed)
		if conf != language.No {
			tag = supported[idx]
		}
	}
	return &Catalog{tag: tag, printer: message.NewPrinter(tag, message.Catalog(builder))}
}

// Language returns the selected language.
func (c *Catalog) Language() language.Tag { return c.tag }

// Text returns the localized text for key.
func (c *Catalog) Text(key string) string {
	return c.printer.Sprintf(key)
}

// Number formats n with the locale's digit grouping.
func (c *Catalog) Number(n any) string {
	return c.printer.Sprint(n)
}

// WelcomeSuggestions are the starter questions shown with the welcome message.
func (c *Catalog) WelcomeSuggestions() []string {
	return []string{
		c.Text(MsgSuggestList),
		c.Text(MsgSuggestDone),
		c.Text(MsgSuggestProgress),
		c.Text(MsgSuggestProcess),
	}
}

// ErrorSuggestions are offered with every error message.
func (c *Catalog) ErrorSuggestions() []string {
	return []string{c.Text(MsgRetry), c.Text(MsgCheckConnection)}
}
