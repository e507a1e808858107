package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/michaelbrown/conceptloop/internal/challenge"
	"github.com/michaelbrown/conceptloop/internal/runner"
)

// maxToolOutput caps the text returned from a tool call.
const maxToolOutput = 4000

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the catalog and test runner as MCP tools over stdio",
	RunE:  runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}

	s := newMCPServer(e)
	if err := mcpserver.ServeStdio(s); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

func newMCPServer(e *env) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer("conceptloop", "0.1.0")
	t := &mcpTools{env: e}

	s.AddTool(mcp.Tool{
		Name:        "list_challenges",
		Description: fmt.Sprintf("List ConceptLoop challenges. Categories: %s.", strings.Join(e.catalog.Categories, ", ")),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"category": map[string]any{
					"type":        "string",
					"description": "Only list challenges in this category (optional)",
				},
			},
		},
	}, t.listChallenges)

	s.AddTool(mcp.Tool{
		Name:        "get_challenge",
		Description: "Get a challenge's lesson, description, starter code and test cases.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"id": map[string]any{
					"type":        "string",
					"description": "Challenge id",
				},
			},
			Required: []string{"id"},
		},
	}, t.getChallenge)

	s.AddTool(mcp.Tool{
		Name:        "run_tests",
		Description: "Run JavaScript code against a challenge's test cases and return the report.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"id": map[string]any{
					"type":        "string",
					"description": "Challenge id",
				},
				"code": map[string]any{
					"type":        "string",
					"description": "JavaScript source declaring the challenge's function",
				},
			},
			Required: []string{"id", "code"},
		},
	}, t.runTests)

	return s
}

type mcpTools struct {
	env *env
}

func (t *mcpTools) listChallenges(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]any)
	category, _ := args["category"].(string)

	var b strings.Builder
	for _, ch := range t.env.catalog.ByCategory(category) {
		fmt.Fprintf(&b, "%s\t%s\t%s\t%s\n", ch.ID, ch.Category, ch.Difficulty, ch.Title)
	}
	if b.Len() == 0 {
		return errResult(fmt.Sprintf("error: no challenges in category %q", category)), nil
	}
	return textResult(b.String()), nil
}

func (t *mcpTools) getChallenge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ch, res := t.lookup(request)
	if res != nil {
		return res, nil
	}
	data, err := json.MarshalIndent(ch.Public(), "", "  ")
	if err != nil {
		return errResult(fmt.Sprintf("error: %v", err)), nil
	}
	return textResult(string(data)), nil
}

func (t *mcpTools) runTests(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ch, res := t.lookup(request)
	if res != nil {
		return res, nil
	}
	args, _ := request.Params.Arguments.(map[string]any)
	code, _ := args["code"].(string)
	if strings.TrimSpace(code) == "" {
		return errResult("error: 'code' is required"), nil
	}

	rep := runner.New(t.env.sandbox, t.env.logger).Report(ctx, code, ch.EntryPoint, ch.Cases)
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return errResult(fmt.Sprintf("error: %v", err)), nil
	}

	result := textResult(string(data))
	result.IsError = !rep.AllPassed
	return result, nil
}

func (t *mcpTools) lookup(request mcp.CallToolRequest) (*challenge.Challenge, *mcp.CallToolResult) {
	args, _ := request.Params.Arguments.(map[string]any)
	if args == nil {
		return nil, errResult("error: invalid arguments")
	}
	id, _ := args["id"].(string)
	if id == "" {
		return nil, errResult("error: 'id' is required")
	}
	ch, err := t.env.catalog.Get(id)
	if err != nil {
		return nil, errResult("error: " + err.Error())
	}
	return ch, nil
}

func textResult(text string) *mcp.CallToolResult {
	if len(text) > maxToolOutput {
		text = text[:maxToolOutput] + "\n... (output truncated)"
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: text}},
	}
}

func errResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: text}},
		IsError: true,
	}
}
