package lesson

import (
	"fmt"
	"strings"

	"github.com/futenglish/speech-service/internal/session"
)

const totalLessons = 20

var achievements = []string{
	"🏆 Primeiro Gol",
	"⚽ Craque da Pronúncia",
	"🎯 Focado",
	"🔥 Sequência de Ouro",
	"📚 Estudioso",
	"🌟 All Star",
	"💪 Persistente",
	"👑 Mestre das Palavras",
}

// ProgressStats renders the user's progress report. The figures are a pure
// function of the user ID, so repeated requests always show the same report.
func ProgressStats(sess session.Session) string {
	seed := mix(uint64(sess.UserID))

	lessonsCompleted := 8 + int(seed%11)       // 8..18
	vocabularyLearned := 85 + int(seed>>8%66)  // 85..150
	dailyStreak := 3 + int(seed>>16%19)        // 3..21
	accuracy := 75 + int(seed>>24%21)          // 75..95

	name := sess.Name
	if name == "" {
		name = "craque"
	}

	position := sess.Position
	if position == "" {
		position = "Torcedor"
	}

	var b strings.Builder

	fmt.Fprintf(&b, "📊 **Estatísticas do %s:**\n\n", name)
	fmt.Fprintf(&b, "⭐ Nível: %s\n", levelLabel(sess.Level))
	fmt.Fprintf(&b, "📚 Lições Completadas: %d/%d\n", lessonsCompleted, totalLessons)
	fmt.Fprintf(&b, "🎯 Vocabulário Aprendido: %d palavras\n", vocabularyLearned)
	fmt.Fprintf(&b, "🔥 Sequência Atual: %d dias\n", dailyStreak)
	fmt.Fprintf(&b, "✅ Precisão: %d%%\n", accuracy)
	fmt.Fprintf(&b, "⚽ Posição Favorita: %s\n", position)

	b.WriteString("\n**Últimas conquistas:**\n")

	// Stride 3 is coprime with the table size, so the three picks are
	// always distinct.
	start := int(seed >> 32 % uint64(len(achievements)))
	for i := range 3 {
		fmt.Fprintf(&b, "%s\n", achievements[(start+i*3)%len(achievements)])
	}

	fmt.Fprintf(&b, "\nContinue assim, %s! Você tá voando! 🚀", name)

	return b.String()
}

func levelLabel(level string) string {
	if level == "" {
		return "Iniciante"
	}

	return level
}

// mix is a splitmix64 round, enough to spread nearby user IDs across the
// stat ranges.
func mix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb

	return x ^ (x >> 31)
}
