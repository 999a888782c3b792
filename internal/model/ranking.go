// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"errors"
	"sort"
)

// =============================================================================
// RANKING
// =============================================================================

// ErrMalformedRanking is returned for ranking items without an application name.
var ErrMalformedRanking = errors.New("ranking entry has no application name")

// RankingEntry is an application and its test coverage.
type RankingEntry struct {
	ApplicationName string  `json:"applicationName"`
	Description     string  `json:"description,omitempty"`
	Team            string  `json:"team,omitempty"`
	Status          string  `json:"status,omitempty"`
	CoveragePercent float64 `json:"coveragePercent"`
}

// rankingWire is the backend contract: the application is nested under
// "aplicacion" and coverage is a sibling. A flat "nombre" field from older
// backends is not read.
type rankingWire struct {
	Aplicacion *struct {
		Nombre            string `json:"nombre"`
		Descripcion       string `json:"descripcion"`
		EquipoResponsable string `json:"equipoResponsable"`
		Estado            string `json:"estado"`
	} `json:"aplicacion"`
	Cobertura float64 `json:"cobertura"`
}

// DecodeRanking parses the backend ranking payload. Entries without a nested
// application name are rejected with ErrMalformedRanking.
func DecodeRanking(data []byte) ([]RankingEntry, error) {
	var wire []rankingWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}
	entries := make([]RankingEntry, 0, len(wire))
	for _, w := range wire {
		if w.Aplicacion == nil || w.Aplicacion.Nombre == "" {
			return nil, ErrMalformedRanking
		}
		entries = append(entries, RankingEntry{
			ApplicationName: w.Aplicacion.Nombre,
			Description:     w.Aplicacion.Descripcion,
			Team:            w.Aplicacion.EquipoResponsable,
			Status:          w.Aplicacion.Estado,
			CoveragePercent: w.Cobertura,
		})
	}
	return entries, nil
}

// SortByCoverage orders entries by coverage, highest first. Equal coverage
// keeps backend order.
func SortByCoverage(entries []RankingEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CoveragePercent > entries[j].CoveragePercent
	})
}

// CoverageBand classifies a coverage percentage for colouring.
type CoverageBand int

const (
	BandRegular CoverageBand = iota
	BandGood
	BandExcellent
)

// Band returns the coverage band: 80 and above is excellent, 60 and above good.
func (r RankingEntry) Band() CoverageBand {
	return BandFor(r.CoveragePercent)
}

// BandFor classifies a coverage percentage.
func BandFor(percent float64) CoverageBand {
	switch {
	case percent >= 80:
		return BandExcellent
	case percent >= 60:
		return BandGood
	}
	return BandRegular
}

// String returns the band label.
func (b CoverageBand) String() string {
	switch b {
	case BandExcellent:
		return "excellent"
	case BandGood:
		return "good"
	}
	return "regular"
}
