package dateextract

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/z-scheduler/backend/internal/analysis/dateparse"
)

// Config controls whether the chat model is consulted.
type Config struct {
	Enabled bool
}

// Service resolves dates with the rule interpreter and, when enabled, asks a chat
// model about utterances the rules could not place.
type Service struct {
	enabled   bool
	extractor compose.Runnable[map[string]any, *schema.Message]
	rules     func(utterance string, now time.Time) dateparse.Result
}

// NewService builds the service. chatModel may be nil, which leaves only the rules.
func NewService(ctx context.Context, chatModel model.ChatModel, cfg Config) (*Service, error) {
	svc := &Service{
		enabled: cfg.Enabled && chatModel != nil,
		rules:   dateparse.Resolve,
	}

	if !svc.enabled {
		return svc, nil
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(extractSystemPrompt),
		schema.UserMessage(extractUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile date extraction chain: %w", err)
	}

	svc.extractor = runnable
	return svc, nil
}

// Enabled reports whether the chat model is wired in.
func (s *Service) Enabled() bool {
	return s != nil && s.enabled && s.extractor != nil
}

// Resolve never fails. Rule hits are returned as is; only a rule fallback is
// offered to the model, and any model problem keeps that fallback.
func (s *Service) Resolve(ctx context.Context, utterance string, now time.Time) dateparse.Result {
	result := s.rules(utterance, now)
	if !result.IsFallback() || !s.Enabled() {
		return result
	}

	input := map[string]any{
		"today":     now.Format("2006-01-02"),
		"weekday":   now.Weekday().String(),
		"utterance": strings.TrimSpace(utterance),
	}

	msg, err := s.extractor.Invoke(ctx, input)
	if err != nil {
		log.Printf("[dateextract] model invoke failed, use fallback: %v", err)
		return result
	}
	if msg == nil {
		return result
	}

	date, ok := parseModelDate(msg.Content, now)
	if !ok {
		return result
	}

	log.Printf("[dateextract] model resolved %q to %s", utterance, date.Format("2006-01-02"))
	return dateparse.Result{Date: date, Source: dateparse.SourceModel}
}

var isoDatePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// parseModelDate extracts the first YYYY-MM-DD in content, keeping now's clock time.
func parseModelDate(content string, now time.Time) (time.Time, bool) {
	match := isoDatePattern.FindString(content)
	if match == "" {
		return time.Time{}, false
	}

	day, err := time.ParseInLocation("2006-01-02", match, now.Location())
	if err != nil {
		return time.Time{}, false
	}

	return time.Date(day.Year(), day.Month(), day.Day(),
		now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), now.Location()), true
}

const extractSystemPrompt = "You extract meeting dates for a scheduling assistant. Read the user's message and decide which calendar day they want to meet on, relative to the given current date. Reply with exactly one date in YYYY-MM-DD format and nothing else. If the message does not mention any day, reply with NONE."

const extractUserPrompt = "Today is {weekday}, {today}.\n\nUser message:\n{utterance}"
