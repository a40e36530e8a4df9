// Package realtime decides whether a question likely needs fresh data.
package realtime

import (
	"sort"
	"strings"

	"github.com/descubra-ms/guata/internal/domain"
)

// Triggers are grouped by theme. The lists are deliberately broad: a false
// positive only costs one search call.
var Triggers = map[string][]string{
	"events": {
		"evento", "festa", "show", "festival", "agenda", "semana", "fim de semana",
		"ruraltour", "ruratur", "feira", "exposição", "concert", "teatro",
	},
	"pricing": {
		"preço", "valor", "horário", "disponível", "aberto", "funcionando",
		"telefone", "contato", "endereço", "como chegar",
	},
	"lodging": {
		"hotel", "pousada", "hospedagem", "restaurante", "onde comer", "reserva",
		"booking", "disponibilidade",
	},
	"activities": {
		"passeio", "tour", "atividade", "atração", "visitar", "fazer", "trilha",
		"ecoturismo", "aventura", "mergulho", "flutuação",
	},
	"weather": {
		"tempo", "clima", "chuva", "temperatura", "melhor época",
	},
	"transport": {
		"ônibus", "voo", "viagem", "distância", "como ir", "transporte",
	},
	"commerce": {
		"comprar", "shopping", "loja", "mercado", "artesanato",
	},
	"nightlife": {
		"bar", "balada", "noite", "música", "dança",
	},
}

// Classifier matches questions against trigger substrings.
type Classifier struct {
	triggers []string
}

// NewClassifier builds a classifier over the given trigger groups. With no
// groups the built-in Triggers are used.
func NewClassifier(groups map[string][]string) *Classifier {
	if len(groups) == 0 {
		groups = Triggers
	}
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	c := &Classifier{}
	for _, name := range names {
		for _, w := range groups[name] {
			if w = domain.NormalizeQuery(w); w != "" {
				c.triggers = append(c.triggers, w)
			}
		}
	}
	return c
}

// NeedsRealTime reports whether any trigger occurs in the normalized query.
func (c *Classifier) NeedsRealTime(query string) bool {
	_, ok := c.Match(query)
	return ok
}

// Match returns the first trigger found in query.
func (c *Classifier) Match(query string) (string, bool) {
	q := domain.NormalizeQuery(query)
	if q == "" {
		return "", false
	}
	for _, t := range c.triggers {
		if strings.Contains(q, t) {
			return t, true
		}
	}
	return "", false
}
