// Package lesson holds the football vocabulary catalog and renders lesson
// text for delivery. Rendering is deterministic: the same lesson and session
// always produce the same text.
package lesson

import (
	"fmt"
	"strings"

	"github.com/futenglish/speech-service/internal/session"
)

// Lesson is one vocabulary item. Word lessons carry pronunciation and
// examples; phrase lessons carry a usage context instead.
type Lesson struct {
	ID            int
	Portuguese    string
	English       string
	Pronunciation string
	Category      string
	Explanation   string
	ExamplePT     string
	ExampleEN     string
	Tip           string
}

// Level lesson limits. Unknown levels fall back to the beginner limit.
const (
	beginnerLimit     = 5
	intermediateLimit = 10
	advancedLimit     = 15
)

var levelLimits = map[string]int{
	"Iniciante":     beginnerLimit,
	"Intermediário": intermediateLimit,
	"Avançado":      advancedLimit,
}

var catalog = []Lesson{
	{
		ID: 1, Portuguese: "Goleiro", English: "Goalkeeper",
		Pronunciation: "GOAL-kee-per", Category: "Posições",
		Explanation: "O jogador que defende o gol e pode usar as mãos dentro da área",
		ExamplePT:   "O goleiro fez uma defesa incrível",
		ExampleEN:   "The goalkeeper made an incredible save",
		Tip:         "Também pode ser chamado de 'keeper' ou 'goalie'",
	},
	{
		ID: 2, Portuguese: "Zagueiro", English: "Defender",
		Pronunciation: "dih-FEN-der", Category: "Posições",
		Explanation: "Jogador que atua na defesa para proteger o gol",
		ExamplePT:   "O zagueiro cortou o ataque adversário",
		ExampleEN:   "The defender stopped the opponent's attack",
		Tip:         "Pode ser 'center-back' (zagueiro central) ou 'full-back' (lateral)",
	},
	{
		ID: 3, Portuguese: "Atacante", English: "Striker",
		Pronunciation: "STRAI-ker", Category: "Posições",
		Explanation: "Jogador responsável por marcar gols",
		ExamplePT:   "O atacante balançou as redes",
		ExampleEN:   "The striker scored a goal",
		Tip:         "Também chamado de 'forward' ou 'center-forward'",
	},
	{
		ID: 4, Portuguese: "Meio-campo", English: "Midfielder",
		Pronunciation: "MID-feel-der", Category: "Posições",
		Explanation: "Jogador que atua entre a defesa e o ataque",
		ExamplePT:   "O meio-campo distribuiu bem o jogo",
		ExampleEN:   "The midfielder distributed the ball well",
		Tip:         "Pode ser defensivo, central ou ofensivo",
	},
	{
		ID: 5, Portuguese: "Bola", English: "Ball",
		Pronunciation: "BAWL", Category: "Equipamentos",
		Explanation: "A esfera usada para jogar futebol",
		ExamplePT:   "A bola saiu pela linha de fundo",
		ExampleEN:   "The ball went out over the goal line",
		Tip:         "Sempre use 'the ball', nunca apenas 'ball'",
	},
	{
		ID: 6, Portuguese: "Gol", English: "Goal",
		Pronunciation: "GOHL", Category: "Ações",
		Explanation: "Quando a bola entra completamente no gol adversário",
		ExamplePT:   "Foi um gol de placa!",
		ExampleEN:   "It was a spectacular goal!",
		Tip:         "Pode ser usado para o ato de marcar ou a estrutura física",
	},
	{
		ID: 7, Portuguese: "Passe", English: "Pass",
		Pronunciation: "PAAS", Category: "Ações",
		Explanation: "Ação de enviar a bola para um companheiro",
		ExamplePT:   "Que passe espetacular!",
		ExampleEN:   "What a spectacular pass!",
		Tip:         "Pode ser 'short pass' (passe curto) ou 'long pass' (passe longo)",
	},
	{
		ID: 8, Portuguese: "Chute", English: "Shot",
		Pronunciation: "SHAHT", Category: "Ações",
		Explanation: "Ação de chutar a bola em direção ao gol",
		ExamplePT:   "O chute foi para fora",
		ExampleEN:   "The shot went wide",
		Tip:         "Também pode ser 'kick' para chute em geral",
	},
	{
		ID: 9, Portuguese: "Campo", English: "Field",
		Pronunciation: "FEELD", Category: "Campo",
		Explanation: "O terreno onde se joga futebol",
		ExamplePT:   "O campo estava molhado",
		ExampleEN:   "The field was wet",
		Tip:         "Também chamado de 'pitch' no inglês britânico",
	},
	{
		ID: 10, Portuguese: "Árbitro", English: "Referee",
		Pronunciation: "REF-uh-ree", Category: "Arbitragem",
		Explanation: "O responsável por aplicar as regras do jogo",
		ExamplePT:   "O árbitro marcou pênalti",
		ExampleEN:   "The referee awarded a penalty",
		Tip:         "Informalmente chamado de 'ref'",
	},
	{
		ID: 11, Portuguese: "O goleiro fez uma defesa", English: "The goalkeeper made a save",
		Category:    "Ações de Jogo",
		Explanation: "Quando o goleiro impede um gol",
		Tip:         "Alternativa: 'The keeper stopped the shot'",
	},
	{
		ID: 12, Portuguese: "O atacante marcou um gol", English: "The striker scored a goal",
		Category:    "Ações de Jogo",
		Explanation: "Quando um jogador marca",
		Tip:         "Alternativa: 'The forward found the net'",
	},
	{
		ID: 13, Portuguese: "Foi um passe perfeito", English: "It was a perfect pass",
		Category:    "Ações de Jogo",
		Explanation: "Elogiando um passe bem executado",
		Tip:         "Alternativa: 'That was an excellent pass'",
	},
	{
		ID: 14, Portuguese: "A bola bateu na trave", English: "The ball hit the post",
		Category:    "Eventos",
		Explanation: "Quando a bola acerta a trave",
		Tip:         "Alternativa: 'The shot struck the goalpost'",
	},
	{
		ID: 15, Portuguese: "O time está atacando", English: "The team is attacking",
		Category:    "Táticas",
		Explanation: "Descrevendo ação ofensiva",
		Tip:         "Alternativa: 'The team is on the attack'",
	},
}

var greetings = []string{
	"Opa, %s! Vamos aprender uma palavra importante!",
	"E aí, %s! Bora para mais uma palavra de futebol!",
	"Beleza, %s! Hoje temos uma palavra massa!",
	"Fala, %s! Preparado para mais vocabulário?",
}

// Count returns the total number of lessons in the catalog.
func Count() int {
	return len(catalog)
}

// ByID returns the lesson with the given ID.
func ByID(id int) (Lesson, bool) {
	for _, item := range catalog {
		if item.ID == id {
			return item, true
		}
	}

	return Lesson{}, false
}

// ForLevel returns the slice of the catalog available at the given
// proficiency level.
func ForLevel(level string) []Lesson {
	limit, ok := levelLimits[level]
	if !ok {
		limit = beginnerLimit
	}

	if limit > len(catalog) {
		limit = len(catalog)
	}

	return catalog[:limit]
}

// Next returns the lesson after currentID within the level's slice, wrapping
// to the first lesson at the end.
func Next(currentID int, level string) Lesson {
	lessons := ForLevel(level)

	for i, item := range lessons {
		if item.ID == currentID && i+1 < len(lessons) {
			return lessons[i+1]
		}
	}

	return lessons[0]
}

// NarrationText is the Portuguese tutor line spoken before the vocabulary
// term.
func NarrationText(item Lesson) string {
	return "Vamos aprender: " + item.Portuguese
}

// VocabularyText is the English term spoken on the foreign leg.
func VocabularyText(item Lesson) string {
	return item.English
}

// RenderLessonText formats the full lesson message for the given session.
// The greeting is picked deterministically from the lesson ID.
func RenderLessonText(lessonID int, sess session.Session) (string, bool) {
	item, ok := ByID(lessonID)
	if !ok {
		return "", false
	}

	name := sess.Name
	if name == "" {
		name = "craque"
	}

	var b strings.Builder

	fmt.Fprintf(&b, "⚽ **Lição %d - %s**\n\n", item.ID, item.Category)
	fmt.Fprintf(&b, greetings[item.ID%len(greetings)], name)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "🇧🇷 **Português:** %s\n", item.Portuguese)
	fmt.Fprintf(&b, "🇺🇸 **Inglês:** %s\n", item.English)

	if item.Pronunciation != "" {
		fmt.Fprintf(&b, "🗣️ **Pronúncia:** %s\n", item.Pronunciation)
	}

	if item.Explanation != "" {
		fmt.Fprintf(&b, "\n💡 **O que é:** %s\n", item.Explanation)
	}

	if item.ExamplePT != "" && item.ExampleEN != "" {
		b.WriteString("\n📝 **Exemplo:**\n")
		fmt.Fprintf(&b, "🇧🇷 %s\n", item.ExamplePT)
		fmt.Fprintf(&b, "🇺🇸 %s\n", item.ExampleEN)
	}

	if item.Tip != "" {
		fmt.Fprintf(&b, "\n🎯 **Dica:** %s\n", item.Tip)
	}

	return b.String(), true
}

// RenderVocabulary lists the vocabulary available at the session's level.
func RenderVocabulary(sess session.Session) string {
	var b strings.Builder

	b.WriteString("📚 **Vocabulário disponível:**\n\n")

	for _, item := range ForLevel(sess.Level) {
		fmt.Fprintf(&b, "%d. %s — %s\n", item.ID, item.Portuguese, item.English)
	}

	return b.String()
}
