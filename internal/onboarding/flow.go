// Package onboarding implements the profile-collection state machine that
// runs before normal lesson interaction. It has no state of its own: every
// transition is a session store update.
package onboarding

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/futenglish/speech-service/internal/session"
)

// Option lists presented during onboarding.
var (
	// Positions a player can pick, shown as a 1-based list.
	Positions = []string{
		"Goleiro",
		"Zagueiro",
		"Lateral",
		"Volante",
		"Meio-campo",
		"Atacante",
		"Não jogo, só assisto",
	}

	// Levels of English proficiency.
	Levels = []string{"Iniciante", "Intermediário", "Avançado"}
)

// greetingTokens are bare salutations rejected as names.
var greetingTokens = map[string]struct{}{
	"oi":        {},
	"ola":       {},
	"olá":       {},
	"hi":        {},
	"hello":     {},
	"hey":       {},
	"eai":       {},
	"eaí":       {},
	"opa":       {},
	"bom dia":   {},
	"boa tarde": {},
	"boa noite": {},
}

const minNameLength = 2

// Result describes the outcome of feeding one input to the machine.
type Result struct {
	// Reply is the text the conversation layer should render next.
	Reply string
	// Advanced reports whether the input moved the machine forward.
	Advanced bool
	// Complete reports whether onboarding finished with this input.
	Complete bool
	// Session is the state after the input was applied.
	Session session.Session
}

// Flow drives onboarding through session store updates.
type Flow struct {
	store *session.Store
}

// NewFlow creates an onboarding flow over the given store.
func NewFlow(store *session.Store) *Flow {
	return &Flow{store: store}
}

// Start resets a user to the beginning of onboarding, clearing any profile
// fields collected earlier.
func (f *Flow) Start(userID int64) session.Session {
	empty := ""
	step := session.StepAwaitingName
	complete := false

	return f.store.Update(userID, session.Update{
		Name:               &empty,
		Position:           &empty,
		Level:              &empty,
		Step:               &step,
		OnboardingComplete: &complete,
	})
}

// ProcessInput feeds one free-text input to the machine. An unrecognized
// input re-prompts without advancing state.
func (f *Flow) ProcessInput(userID int64, input string) Result {
	sess, ok := f.store.Get(userID)
	if !ok {
		sess = f.Start(userID)

		return Result{Reply: promptName(), Session: sess}
	}

	switch sess.Step {
	case session.StepAwaitingName:
		return f.handleName(userID, input)
	case session.StepAwaitingPosition:
		return f.handlePosition(userID, input)
	case session.StepAwaitingLevel:
		return f.handleLevel(userID, input)
	case session.StepComplete:
		return Result{Reply: "", Complete: true, Session: sess}
	default:
		sess = f.Start(userID)

		return Result{Reply: promptName(), Session: sess}
	}
}

func (f *Flow) handleName(userID int64, input string) Result {
	name := strings.TrimSpace(input)

	if !validName(name) {
		sess, _ := f.store.Get(userID)

		return Result{Reply: promptName(), Session: sess}
	}

	step := session.StepAwaitingPosition
	sess := f.store.Update(userID, session.Update{Name: &name, Step: &step})

	reply := fmt.Sprintf("Prazer, %s! Qual posição você joga?\n\n%s", name, renderOptions(Positions))

	return Result{Reply: reply, Advanced: true, Session: sess}
}

func (f *Flow) handlePosition(userID int64, input string) Result {
	position, ok := MatchOption(input, Positions)
	if !ok {
		sess, _ := f.store.Get(userID)
		reply := "Não entendi a posição. Escolha uma das opções:\n\n" + renderOptions(Positions)

		return Result{Reply: reply, Session: sess}
	}

	step := session.StepAwaitingLevel
	sess := f.store.Update(userID, session.Update{Position: &position, Step: &step})

	reply := fmt.Sprintf("%s, boa escolha! Qual seu nível de inglês?\n\n%s", position, renderOptions(Levels))

	return Result{Reply: reply, Advanced: true, Session: sess}
}

func (f *Flow) handleLevel(userID int64, input string) Result {
	level, ok := MatchOption(input, Levels)
	if !ok {
		sess, _ := f.store.Get(userID)
		reply := "Não entendi o nível. Escolha uma das opções:\n\n" + renderOptions(Levels)

		return Result{Reply: reply, Session: sess}
	}

	step := session.StepComplete
	complete := true
	sess := f.store.Update(userID, session.Update{
		Level:              &level,
		Step:               &step,
		OnboardingComplete: &complete,
	})

	reply := fmt.Sprintf(
		"Perfeito, %s! Perfil completo: %s, nível %s. Vamos começar!",
		sess.Name, sess.Position, sess.Level,
	)

	return Result{Reply: reply, Advanced: true, Complete: true, Session: sess}
}

// MatchOption resolves a free-text input against an option list, accepting a
// 1-based ordinal or a case-insensitive substring match in either direction.
func MatchOption(input string, options []string) (string, bool) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", false
	}

	if ordinal, err := strconv.Atoi(trimmed); err == nil {
		if ordinal >= 1 && ordinal <= len(options) {
			return options[ordinal-1], true
		}

		return "", false
	}

	lowered := strings.ToLower(trimmed)

	for _, option := range options {
		optionLower := strings.ToLower(option)
		if strings.Contains(optionLower, lowered) || strings.Contains(lowered, optionLower) {
			return option, true
		}
	}

	return "", false
}

func validName(name string) bool {
	stripped := strings.Join(strings.Fields(name), " ")
	if len([]rune(strings.ReplaceAll(stripped, " ", ""))) < minNameLength {
		return false
	}

	_, isGreeting := greetingTokens[strings.ToLower(stripped)]

	return !isGreeting
}

func promptName() string {
	return "Qual é o seu nome?"
}

func renderOptions(options []string) string {
	var builder strings.Builder

	for i, option := range options {
		fmt.Fprintf(&builder, "%d. %s\n", i+1, option)
	}

	return builder.String()
}
