// Package chat wraps the remote chat-completion service behind the
// conversation boundary. It builds the tutor persona prompt from the user's
// session profile and performs a single completion call per message.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/futenglish/speech-service/internal/lesson"
	"github.com/futenglish/speech-service/internal/session"
)

// ErrEmptyResponse indicates the model returned no usable text.
var ErrEmptyResponse = errors.New("chat model returned an empty response")

const professorSystem = `Você é o Professor Bola Gringa, especialista em ensinar inglês através do futebol para brasileiros.

REGRAS IMPORTANTES:
- FALE APENAS EM PORTUGUÊS na sua resposta
- NUNCA pronuncie palavras em inglês
- Se mencionar palavra inglesa, diga "essa palavra em inglês" ou "em inglês isso é"
- Seja animado, positivo e encorajador
- Use referências do futebol brasileiro e internacional
- Máximo 3 frases por resposta
- Conecte com a posição do jogador quando relevante
- Use emojis de futebol moderadamente

CONTEXTO DO USUÁRIO:
- Nome: %s
- Posição: %s
- Nível: %s
- Lição Atual: %d

Se a pergunta não for sobre futebol, redirecione gentilmente para o tema mantendo a persona.`

const lessonContext = `CONTEXTO DA LIÇÃO ATUAL:
Palavra PT: %s
Palavra EN: %s
Explicação: %s

Responda de forma educativa sobre esta palavra no contexto do futebol.`

// SystemPrompt renders the persona prompt for the given session, including
// the current lesson's context when the lesson exists.
func SystemPrompt(sess session.Session) string {
	name := sess.Name
	if name == "" {
		name = "Amigo"
	}

	position := sess.Position
	if position == "" {
		position = "Jogador"
	}

	level := sess.Level
	if level == "" {
		level = "Intermediário"
	}

	prompt := fmt.Sprintf(professorSystem, name, position, level, sess.LessonIndex)

	if item, ok := lesson.ByID(sess.LessonIndex); ok {
		prompt += "\n\n" + fmt.Sprintf(lessonContext, item.Portuguese, item.English, item.Explanation)
	}

	return prompt
}

// Client performs chat completions against an OpenAI-compatible endpoint.
type Client struct {
	api   *openai.Client
	model string
}

// NewClient creates a chat client. baseURL may be empty to use the vendor
// default endpoint.
func NewClient(apiKey, baseURL, model string) *Client {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}

	return &Client{
		api:   openai.NewClientWithConfig(clientConfig),
		model: model,
	}
}

// Generate sends one system+user message pair and returns the model's reply.
// An empty reply is an error; the caller decides how to degrade.
func (c *Client) Generate(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userMessage},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", ErrEmptyResponse
	}

	return reply, nil
}
