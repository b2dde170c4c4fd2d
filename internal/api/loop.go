package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/ShayCichocki/relay/internal/tools"
	"github.com/ShayCichocki/relay/pkg/models"
)

// maxToolIterations caps the call-and-execute cycle per exchange.
const maxToolIterations = 20

// Respond makes a single model call with no tool access.
func (c *Client) Respond(ctx context.Context, system, user string) (string, error) {
	resp, err := c.sdk().Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 4096,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("API call failed: %w", err)
	}

	c.tracker.Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)

	var out string
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			out += variant.Text
		}
	}
	return out, nil
}

// RespondWithTools runs the model with the given tool set, executing tool_use
// blocks until the model ends its turn.
func (c *Client) RespondWithTools(ctx context.Context, system, user string, toolset []tools.Tool) (*ToolLoopResult, error) {
	result := &ToolLoopResult{}

	byName := make(map[string]tools.Tool, len(toolset))
	for _, t := range toolset {
		byName[t.Name()] = t
	}

	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
	}

	for result.Iterations < maxToolIterations {
		result.Iterations++

		resp, err := c.sdk().Messages.New(ctx, anthropic.MessageNewParams{
			Model:     c.model,
			MaxTokens: 8192,
			System: []anthropic.TextBlockParam{
				{Text: system},
			},
			Messages: messages,
			Tools:    toolParams(toolset),
		})
		if err != nil {
			return result, fmt.Errorf("API call failed: %w", err)
		}

		c.tracker.Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)

		var assistantBlocks []anthropic.ContentBlockParamUnion
		var toolResultBlocks []anthropic.ContentBlockParamUnion
		var textOutput string

		for _, block := range resp.Content {
			switch variant := block.AsAny().(type) {
			case anthropic.TextBlock:
				textOutput += variant.Text
				assistantBlocks = append(assistantBlocks, anthropic.NewTextBlock(variant.Text))

			case anthropic.ToolUseBlock:
				assistantBlocks = append(assistantBlocks,
					anthropic.NewToolUseBlock(variant.ID, variant.Input, variant.Name))

				output, isErr := c.executeTool(ctx, byName, variant.Name, variant.Input)
				result.ToolCalls = append(result.ToolCalls, models.ToolCallRecord{
					Tool:      variant.Name,
					Arguments: string(variant.Input),
					Output:    truncateForRecord(output),
					At:        time.Now(),
				})

				toolResultBlocks = append(toolResultBlocks,
					anthropic.NewToolResultBlock(variant.ID, output, isErr))
			}
		}

		if resp.StopReason == anthropic.StopReasonEndTurn {
			result.Output = textOutput
			return result, nil
		}

		messages = append(messages, anthropic.NewAssistantMessage(assistantBlocks...))
		if len(toolResultBlocks) > 0 {
			messages = append(messages, anthropic.NewUserMessage(toolResultBlocks...))
		}
	}

	return result, fmt.Errorf("max iterations (%d) reached", maxToolIterations)
}

// executeTool dispatches one tool_use block to a registered tool.
func (c *Client) executeTool(ctx context.Context, byName map[string]tools.Tool, name string, input json.RawMessage) (string, bool) {
	tool, ok := byName[name]
	if !ok {
		return fmt.Sprintf("Unknown tool: %s", name), true
	}

	var rawArgs map[string]interface{}
	if err := json.Unmarshal(input, &rawArgs); err != nil {
		return fmt.Sprintf("Invalid tool arguments: %v", err), true
	}
	args := make(map[string]string, len(rawArgs))
	for k, v := range rawArgs {
		args[k] = fmt.Sprintf("%v", v)
	}

	output, err := tool.Call(ctx, args)
	if err != nil {
		return err.Error(), true
	}
	return output, false
}

// toolParams converts the tool set to Anthropic tool schemas. Tools take a
// flat map of string arguments, so the schema is a permissive string object.
func toolParams(toolset []tools.Tool) []anthropic.ToolUnionParam {
	params := make([]anthropic.ToolUnionParam, 0, len(toolset))
	for _, t := range toolset {
		params = append(params, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name(),
				Description: anthropic.String(t.Description()),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: map[string]interface{}{},
				},
			},
		})
	}
	return params
}

func truncateForRecord(s string) string {
	if len(s) > 500 {
		return s[:500] + "..."
	}
	return s
}
