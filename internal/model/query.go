// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// INTENT
// =============================================================================

// Intent is how the backend decided to answer a question.
type Intent string

const (
	IntentSQL     Intent = "SQL"
	IntentRAG     Intent = "RAG"
	IntentWelcome Intent = "WELCOME"
)

// ErrInvalidIntent is returned for intents other than SQL, RAG and WELCOME.
var ErrInvalidIntent = errors.New("invalid intent")

// ParseIntent accepts the known intents case-insensitively.
func ParseIntent(s string) (Intent, error) {
	switch Intent(strings.ToUpper(strings.TrimSpace(s))) {
	case IntentSQL:
		return IntentSQL, nil
	case IntentRAG:
		return IntentRAG, nil
	case IntentWelcome:
		return IntentWelcome, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidIntent, s)
}

// Valid reports whether i is one of the known intents.
func (i Intent) Valid() bool {
	_, err := ParseIntent(string(i))
	return err == nil
}

// =============================================================================
// QUERY RESULT
// =============================================================================

// QueryResult is the backend's answer to one question.
type QueryResult struct {
	OriginalQuestion string              `json:"originalQuestion"`
	Intent           Intent              `json:"intent"`
	Answer           string              `json:"answer"`
	GeneratedSQL     string              `json:"generatedSQL,omitempty"`
	RawResults       []Row               `json:"rawResults,omitempty"`
	Sources          []KnowledgeDocument `json:"sources,omitempty"`
	Suggestions      []string            `json:"suggestions,omitempty"`
	Success          bool                `json:"success"`
	ErrorMessage     string              `json:"errorMessage,omitempty"`
}

// Validate normalizes the intent and rejects results the UI cannot render.
func (r *QueryResult) Validate() error {
	intent, err := ParseIntent(string(r.Intent))
	if err != nil {
		return err
	}
	r.Intent = intent
	return nil
}

// ResultCount is the number of rows for SQL answers, or sources for RAG.
func (r *QueryResult) ResultCount() int {
	if len(r.RawResults) > 0 {
		return len(r.RawResults)
	}
	return len(r.Sources)
}

// Columns returns the column names of the first non-empty row, in backend
// order.
func (r *QueryResult) Columns() []string {
	return ColumnsOf(r.RawResults)
}

// =============================================================================
// KNOWLEDGE DOCUMENTS
// =============================================================================

// KnowledgeDocument is a source the backend used for a RAG answer.
type KnowledgeDocument struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata *DocumentMetadata `json:"metadata,omitempty"`
	Score    *float64          `json:"score,omitempty"`
	Source   string            `json:"source,omitempty"`
}

// DocumentMetadata describes where a knowledge document came from.
type DocumentMetadata struct {
	Title        string   `json:"title,omitempty"`
	Author       string   `json:"author,omitempty"`
	CreatedDate  string   `json:"createdDate,omitempty"`
	LastModified string   `json:"lastModified,omitempty"`
	DocumentType string   `json:"documentType,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	SourceFile   string   `json:"sourceFile,omitempty"`
	PageNumber   int      `json:"pageNumber,omitempty"`
}

// Title returns the best available label for the document.
func (d KnowledgeDocument) Title() string {
	switch {
	case d.Metadata != nil && d.Metadata.Title != "":
		return d.Metadata.Title
	case d.Metadata != nil && d.Metadata.SourceFile != "":
		return d.Metadata.SourceFile
	case d.Source != "":
		return d.Source
	}
	return d.ID
}
