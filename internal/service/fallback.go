package service

import (
	"strings"

	"github.com/descubra-ms/guata/internal/domain"
)

// fallbackTopic is a pre-written answer selected by substring matching.
type fallbackTopic struct {
	name    string
	match   func(q string) bool
	answer  string
	tier    domain.ConfidenceTier
	sources []string
}

func containsAll(words ...string) func(string) bool {
	return func(q string) bool {
		for _, w := range words {
			if !strings.Contains(q, w) {
				return false
			}
		}
		return true
	}
}

func containsAny(words ...string) func(string) bool {
	return func(q string) bool {
		for _, w := range words {
			if strings.Contains(q, w) {
				return true
			}
		}
		return false
	}
}

// Order matters: the first matching topic wins.
var fallbackTopics = []fallbackTopic{
	{
		name:    "airport_lodging",
		match:   containsAll("hotel", "aeroporto"),
		tier:    domain.ConfidenceMedium,
		sources: []string{domain.SourceLocalKnowledge, domain.SourceGeneral},
		answer: `Perto do aeroporto de Campo Grande há boas opções de hospedagem! 🏨

O que você encontra na região:
• Hotéis econômicos, em geral entre R$ 120 e R$ 200 a diária
• Hotéis executivos, entre R$ 200 e R$ 350 a diária
• Pousadas familiares

Vale saber:
• Muitos hotéis oferecem transfer gratuito até o terminal
• A maioria fica entre 1 e 5 km do aeroporto
• Os bairros mais próximos são Aero Rancho e Vila Sobrinho

Do aeroporto até o hotel:
• Táxi: R$ 25 a 40, uns 15 a 20 minutos
• Uber e 99 funcionam normalmente
• Transfer do próprio hotel (confirme ao reservar)

Prefere algo mais econômico ou executivo? Posso sugerir outras regiões da cidade também! 😊`,
	},
	{
		name:    "events",
		match:   containsAny("evento", "festa"),
		tier:    domain.ConfidenceMedium,
		sources: []string{domain.SourceLocalKnowledge, domain.SourceGeneral},
		answer: `Campo Grande tem programação cultural o ano todo! 🎉

Onde costuma ter eventos:
• Centro de Convenções Arquiteto Rubens Gil de Camillo
• Teatro Glauce Rocha
• Casa do Artesão
• Mercadão Municipal, com apresentações culturais

Programação fixa:
• Feira da Rua 14 de Julho, nas noites de sexta e sábado
• Feira Central, aos domingos
• Shows no Memorial da Cultura

Para a agenda da semana:
• Acompanhe as redes sociais da Prefeitura de Campo Grande
• Consulte a Fundação de Cultura (FUNDAC)

Que tipo de programa você procura: show, cultura ou gastronomia? 🎭`,
	},
	{
		name:    "gastronomy",
		match:   containsAny("comer", "restaurante"),
		tier:    domain.ConfidenceHigh,
		sources: []string{domain.SourceLocalKnowledge, domain.SourceGeneral},
		answer: `A culinária de MS é uma delícia! 🍽️

Pratos para provar:
• Pacu pintado, peixe típico do Pantanal
• Pintado na telha, especialidade regional
• Sobá, a sopa de origem japonesa que virou tradição em Campo Grande
• Farofa de banana, acompanhamento clássico

Para beber:
• Tereré, o mate gelado que é tradição local

Onde encontrar:
• Mercadão Municipal, com comidas típicas
• Feira Central, famosa pelo sobá
• Centro de Campo Grande, com restaurantes de culinária pantaneira

Tem alguma preferência? Peixe, carne ou algo mais leve? 😋`,
	},
	{
		name:    "overview",
		match:   func(string) bool { return true },
		tier:    domain.ConfidenceMedium,
		sources: []string{domain.SourceGeneral},
		answer: `Posso te ajudar com:
• Hospedagem em Campo Grande e no interior
• Passeios em Bonito, no Pantanal e em outras regiões
• Gastronomia típica de MS
• Eventos e cultura local
• Transporte e distâncias
• Melhor época para visitar cada destino

Mato Grosso do Sul tem o Pantanal, a maior planície alagável do mundo, Bonito, capital do ecoturismo, e uma cultura que mistura influências indígenas, paraguaias e pantaneiras.

O que você gostaria de saber sobre MS? 🌟`,
	},
}

func pickTopic(query string) fallbackTopic {
	q := domain.NormalizeQuery(query)
	for _, t := range fallbackTopics {
		if t.match(q) {
			return t
		}
	}
	return fallbackTopics[len(fallbackTopics)-1]
}

// Fallback returns a pre-written answer for query. It never touches the
// network and never returns an empty answer.
func Fallback(query string) domain.Synthesis {
	t := pickTopic(query)
	return domain.Synthesis{
		Answer:     t.answer,
		Confidence: t.tier.Score(),
		Sources:    append([]string(nil), t.sources...),
	}
}

// FallbackTopic names the topic Fallback picks for query.
func FallbackTopic(query string) string {
	return pickTopic(query).name
}
