package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/feichai0017/smart-sdlc/internal/agent/llm"
	"github.com/feichai0017/smart-sdlc/pkg/logger"
)

// NoResponse is returned when there is nothing to send or the model failed.
const NoResponse = "No response"

// Task identifies one of the assistant prompts.
type Task string

const (
	TaskGenerateCode  Task = "generate-code"
	TaskFixBugs       Task = "fix-bugs"
	TaskGenerateTests Task = "generate-tests"
	TaskSummarize     Task = "summarize"
	TaskChatbot       Task = "chatbot"
)

type taskDef struct {
	prefix    string
	maxTokens int
	// request body field holding the user input
	field string
}

var tasks = map[Task]taskDef{
	TaskGenerateCode:  {prefix: llm.GenerateCodePrefix, maxTokens: 800, field: "prompt"},
	TaskFixBugs:       {prefix: llm.FixBugsPrefix, maxTokens: 800, field: "code"},
	TaskGenerateTests: {prefix: llm.GenerateTestsPrefix, maxTokens: 800, field: "code"},
	TaskSummarize:     {prefix: llm.SummarizePrefix, maxTokens: 500, field: "code"},
	TaskChatbot:       {prefix: llm.ChatbotPrefix, maxTokens: 700, field: "query"},
}

// Tasks lists the supported tasks.
func Tasks() []Task {
	return []Task{TaskGenerateCode, TaskFixBugs, TaskGenerateTests, TaskSummarize, TaskChatbot}
}

// InputField returns the request body field a task reads its input from.
func InputField(task Task) (string, error) {
	def, ok := tasks[task]
	if !ok {
		return "", fmt.Errorf("unknown assistant task: %s", task)
	}
	return def.field, nil
}

// Service forwards free-form developer prompts to the language model.
type Service struct {
	completer llm.Completer
	logger    logger.Logger
}

func NewService(completer llm.Completer, log logger.Logger) *Service {
	return &Service{completer: completer, logger: log.Named("assistant")}
}

// Respond sends input with the task's prefix and returns the model's reply,
// or NoResponse when input is blank or the call fails.
func (s *Service) Respond(ctx context.Context, task Task, input string) (string, error) {
	def, ok := tasks[task]
	if !ok {
		return "", fmt.Errorf("unknown assistant task: %s", task)
	}
	if input == "" {
		return NoResponse, nil
	}

	reply, err := s.completer.Complete(ctx, def.prefix+input, def.maxTokens)
	if err != nil {
		logger.FromContext(ctx, s.logger).Warn("Assistant completion failed",
			logger.String("task", string(task)),
			logger.Error(err),
		)
		return NoResponse, nil
	}
	if strings.TrimSpace(reply) == "" {
		return NoResponse, nil
	}
	return reply, nil
}
