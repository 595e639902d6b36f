// Package openai provides a sentence provider backed by the OpenAI API.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/verte-zerg/apbtype/internal/bigram"
	"github.com/verte-zerg/apbtype/internal/model"
	"github.com/verte-zerg/apbtype/internal/provider"
	"github.com/verte-zerg/apbtype/internal/selector"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

const (
	maxCandidates   = 60
	minMaxChars     = 10
	tempPersonal    = 0.6
	tempBaseline    = 0.8
	candidateFactor = 3
)

// Provider implements provider.Provider using chat completions in JSON mode.
type Provider struct {
	client   oai.Client
	model    string
	alphabet *bigram.Alphabet
}

type config struct {
	baseURL    string
	timeout    time.Duration
	maxRetries int
}

// Option is a functional option for Provider.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithMaxRetries sets the SDK retry budget.
func WithMaxRetries(n int) Option {
	return func(c *config) {
		c.maxRetries = n
	}
}

// New constructs a Provider.
func New(apiKey, model string, alphabet *bigram.Alphabet, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: apiKey must not be empty")
	}
	if model == "" {
		model = DefaultModel
	}
	if alphabet == nil {
		return nil, fmt.Errorf("openai: alphabet must not be nil")
	}

	cfg := &config{maxRetries: -1}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}
	if cfg.maxRetries >= 0 {
		reqOpts = append(reqOpts, option.WithMaxRetries(cfg.maxRetries))
	}

	return &Provider{
		client:   oai.NewClient(reqOpts...),
		model:    model,
		alphabet: alphabet,
	}, nil
}

// Name implements provider.Provider.
func (p *Provider) Name() string {
	return "openai:" + p.model
}

// Generate implements provider.Provider. It over-requests candidates so the
// selector has room to rank or shuffle.
func (p *Provider) Generate(ctx context.Context, req provider.Request) provider.Result {
	maxChars := req.MaxLength
	if maxChars < minMaxChars {
		maxChars = minMaxChars
	}
	n := candidateCount(req.Count)
	params := oai.ChatCompletionNewParams{
		Model:       shared.ChatModel(p.model),
		Messages:    buildMessages(p.alphabet, req.Phase, req.Transitions, n, maxChars),
		Temperature: oai.Float(temperature(req.Phase)),
		ResponseFormat: oai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return provider.Failure(p.Name(), fmt.Errorf("openai: chat completion: %w", err))
	}
	if len(resp.Choices) == 0 {
		return provider.Failure(p.Name(), fmt.Errorf("openai: empty choices in response"))
	}
	raw, err := parseSentences(resp.Choices[0].Message.Content)
	if err != nil {
		return provider.Failure(p.Name(), err)
	}
	sentences := selector.NormalizePool(p.alphabet, raw, maxChars)
	if len(sentences) == 0 {
		return provider.Failure(p.Name(), provider.ErrNoSentences)
	}
	return provider.Success(p.Name(), sentences)
}

func candidateCount(count int) int {
	if count < 1 {
		count = 1
	}
	n := count * candidateFactor
	if n > maxCandidates {
		n = maxCandidates
	}
	return n
}

func temperature(phase model.Phase) float64 {
	if phase == model.PhaseP {
		return tempPersonal
	}
	return tempBaseline
}

func parseSentences(content string) ([]string, error) {
	var payload struct {
		Sentences []string `json:"sentences"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &payload); err != nil {
		return nil, fmt.Errorf("openai: decode sentences: %w", err)
	}
	return payload.Sentences, nil
}

func buildMessages(alphabet *bigram.Alphabet, phase model.Phase, transitions []model.Transition, n, maxChars int) []oai.ChatCompletionMessageParamUnion {
	style := "- Sentences should be natural everyday English snippets but simplified (no proper nouns)."
	if alphabet.Name() == bigram.Romaji.Name() {
		style = `- Sentences should be natural everyday Japanese written in Hepburn romaji (no proper nouns).
- Write words together without spaces; use "-" only to mark a long vowel.`
	}
	system := fmt.Sprintf(`You are a data generator for typing experiments.
Output strictly JSON with this schema:
{ "sentences": ["string", "string", ...] }

Hard constraints:
- Exactly %d sentences.
- Each sentence must use ONLY these characters: %s. NO punctuation, NO digits, NO other symbols.
- Each sentence length <= %d characters.
%s`, n, charsetRule(alphabet), maxChars, style)

	var hint string
	if phase == model.PhaseP && len(transitions) > 0 {
		bigrams, avoid := targetBigrams(transitions)
		hint = fmt.Sprintf(`Goal for personalization:
- Prefer sentences that include many of these bigrams (character pairs): %s
- Avoid repeating the same word unnaturally. Keep variety.`, quoteList(bigrams))
		if len(avoid) > 0 {
			hint += fmt.Sprintf("\n- Do not go out of your way to include these bigrams: %s", quoteList(avoid))
		}
	} else {
		hint = `Goal for baseline:
- Sentences should be varied and not optimized for any particular bigram.`
	}

	user := fmt.Sprintf(`phase=%s
num_sentences=%d
max_chars=%d

%s

Return ONLY a JSON object: { "sentences": ["...", "..."] }
Do NOT add explanations.`, phase, n, maxChars, hint)

	return []oai.ChatCompletionMessageParamUnion{
		oai.SystemMessage(system),
		oai.UserMessage(user),
	}
}

// charsetRule describes the alphabet's symbols, folding runs of consecutive
// letters into ranges such as "lowercase a-z".
func charsetRule(alphabet *bigram.Alphabet) string {
	var parts []string
	k := alphabet.Size()
	for i := 0; i < k; {
		r := alphabet.Symbol(i)
		switch {
		case r == ' ':
			parts = append(parts, "space")
			i++
			continue
		case r == '-':
			parts = append(parts, `hyphen "-"`)
			i++
			continue
		}
		j := i
		for j+1 < k && unicode.IsLetter(r) && alphabet.Symbol(j+1) == alphabet.Symbol(j)+1 {
			j++
		}
		if j-i >= 2 {
			parts = append(parts, fmt.Sprintf("lowercase %c-%c", r, alphabet.Symbol(j)))
		} else {
			for x := i; x <= j; x++ {
				parts = append(parts, fmt.Sprintf("%q", alphabet.Symbol(x)))
			}
		}
		i = j + 1
	}
	return strings.Join(parts, ", ")
}

// targetBigrams splits transitions into wanted bigrams, in input order,
// and mastered ones.
func targetBigrams(transitions []model.Transition) (want, avoid []string) {
	for _, t := range transitions {
		b := strings.ToLower(t.Bigram())
		if t.Avoid {
			avoid = append(avoid, b)
			continue
		}
		if t.Need <= 0 && t.Weight <= 0 {
			continue
		}
		want = append(want, b)
	}
	return want, avoid
}

func quoteList(items []string) string {
	data, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(data)
}
