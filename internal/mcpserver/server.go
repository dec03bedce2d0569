// Package mcpserver exposes the Task service's nine operations as MCP
// tools over a stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kestrel-dev/taskmesh/internal/gitdriver"
	"github.com/kestrel-dev/taskmesh/internal/taskservice"
	"github.com/kestrel-dev/taskmesh/pkg/models"
)

// NewServer wires every Task service operation as an MCP tool.
func NewServer(svc *taskservice.Service) *server.MCPServer {
	s := server.NewMCPServer("taskmesh", "0.1.0")

	s.AddTool(mcp.NewTool("create_tasks",
		mcp.WithDescription("Partition a requirement into a dependency graph of tasks. tasks is a JSON array of "+
			"{title, description, priority?, depends_on?: [1-based sequence numbers], file_patterns?: [{pattern, type: exclusive|shared}]}."),
		mcp.WithString("group_title", mcp.Description("Title for the batch"), mcp.Required()),
		mcp.WithString("group_description", mcp.Description("Description for the batch")),
	), createTasksHandler(svc))

	s.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List tasks, optionally filtered by group and status."),
		mcp.WithString("group_id", mcp.Description("Filter by group id")),
		mcp.WithString("status", mcp.Description("Filter by a single status")),
	), listTasksHandler(svc))

	s.AddTool(mcp.NewTool("get_task",
		mcp.WithDescription("Get a task with its dependencies, file ownership, and progress log."),
		mcp.WithString("id", mcp.Description("Task id"), mcp.Required()),
	), getTaskHandler(svc))

	s.AddTool(mcp.NewTool("claim_task",
		mcp.WithDescription("Claim a pending task. Returns success=false with an error message if the task cannot be claimed."),
		mcp.WithString("id", mcp.Description("Task id"), mcp.Required()),
		mcp.WithString("agent_id", mcp.Description("Caller's worker identity; generated if omitted")),
	), claimTaskHandler(svc))

	s.AddTool(mcp.NewTool("start_task",
		mcp.WithDescription("Start a claimed task: creates its worktree and branch."),
		mcp.WithString("id", mcp.Description("Task id"), mcp.Required()),
	), startTaskHandler(svc))

	s.AddTool(mcp.NewTool("update_progress",
		mcp.WithDescription("Report progress on an in-progress task without changing its status."),
		mcp.WithString("id", mcp.Description("Task id"), mcp.Required()),
		mcp.WithNumber("progress", mcp.Description("0-100"), mcp.Required()),
		mcp.WithString("note", mcp.Description("Progress note"), mcp.Required()),
	), updateProgressHandler(svc))

	s.AddTool(mcp.NewTool("complete_task",
		mcp.WithDescription("Move a task from in_progress to in_review."),
		mcp.WithString("id", mcp.Description("Task id"), mcp.Required()),
		mcp.WithString("summary", mcp.Description("Summary of the completed work"), mcp.Required()),
	), completeTaskHandler(svc))

	s.AddTool(mcp.NewTool("merge_task",
		mcp.WithDescription("Merge a task's branch into trunk. The coordinator's checkout must already be on trunk."),
		mcp.WithString("id", mcp.Description("Task id"), mcp.Required()),
		mcp.WithString("strategy", mcp.Description("merge|squash, defaults to squash")),
	), mergeTaskHandler(svc))

	s.AddTool(mcp.NewTool("cleanup_task",
		mcp.WithDescription("Force a task to failed, best-effort removing its worktree and branch."),
		mcp.WithString("id", mcp.Description("Task id"), mcp.Required()),
		mcp.WithString("reason", mcp.Description("Why the task is being cleaned up")),
	), cleanupTaskHandler(svc))

	return s
}

// Serve starts the MCP server on stdio.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func argsMap(request mcp.CallToolRequest) map[string]any {
	args, _ := request.Params.Arguments.(map[string]any)
	return args
}

func createTasksHandler(svc *taskservice.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		groupTitle := mcp.ParseString(request, "group_title", "")
		groupDescription := mcp.ParseString(request, "group_description", "")

		args := argsMap(request)
		rawTasks, _ := json.Marshal(args["tasks"])

		var tasks []taskInputJSON
		if err := json.Unmarshal(rawTasks, &tasks); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid tasks array: %v", err)), nil
		}

		input := taskservice.CreateTasksInput{
			Group: taskservice.GroupMeta{Title: groupTitle, Description: groupDescription},
			Tasks: make([]taskservice.TaskInput, len(tasks)),
		}
		for i, t := range tasks {
			priority := models.TaskPriority(t.Priority)
			if priority == "" {
				priority = models.TaskPriorityMedium
			}
			patterns := make([]taskservice.FilePatternInput, len(t.FilePatterns))
			for j, fp := range t.FilePatterns {
				patterns[j] = taskservice.FilePatternInput{Pattern: fp.Pattern, Type: models.OwnershipType(fp.Type)}
			}
			input.Tasks[i] = taskservice.TaskInput{
				Title:        t.Title,
				Description:  t.Description,
				Priority:     priority,
				DependsOn:    t.DependsOn,
				FilePatterns: patterns,
			}
		}

		result, err := svc.CreateTasks(ctx, input)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(result)
	}
}

// taskInputJSON mirrors taskservice.TaskInput in the shape clients send
// over the wire; priority and file-pattern type arrive as plain strings.
type taskInputJSON struct {
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Priority     string            `json:"priority"`
	DependsOn    []int             `json:"depends_on"`
	FilePatterns []filePatternJSON `json:"file_patterns"`
}

type filePatternJSON struct {
	Pattern string `json:"pattern"`
	Type    string `json:"type"`
}

func listTasksHandler(svc *taskservice.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filter := taskservice.ListFilter{}
		if groupID := mcp.ParseString(request, "group_id", ""); groupID != "" {
			filter.GroupID = &groupID
		}
		if status := mcp.ParseString(request, "status", ""); status != "" {
			filter.Status = map[models.TaskStatus]bool{models.TaskStatus(status): true}
		}

		result, err := svc.ListTasks(ctx, filter)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(result)
	}
}

func getTaskHandler(svc *taskservice.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := mcp.ParseString(request, "id", "")
		result, err := svc.GetTask(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(result)
	}
}

func claimTaskHandler(svc *taskservice.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := mcp.ParseString(request, "id", "")
		var agentID *string
		if v := mcp.ParseString(request, "agent_id", ""); v != "" {
			agentID = &v
		}

		result, err := svc.ClaimTask(ctx, id, agentID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(result)
	}
}

func startTaskHandler(svc *taskservice.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := mcp.ParseString(request, "id", "")
		result, err := svc.StartTask(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(result)
	}
}

func updateProgressHandler(svc *taskservice.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := mcp.ParseString(request, "id", "")
		progress := mcp.ParseInt(request, "progress", 0)
		note := mcp.ParseString(request, "note", "")

		var filesChanged []string
		if raw, ok := argsMap(request)["files_changed"]; ok {
			b, _ := json.Marshal(raw)
			_ = json.Unmarshal(b, &filesChanged)
		}

		result, err := svc.UpdateProgress(ctx, id, progress, note, filesChanged)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(result)
	}
}

func completeTaskHandler(svc *taskservice.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := mcp.ParseString(request, "id", "")
		summary := mcp.ParseString(request, "summary", "")

		var filesChanged []string
		if raw, ok := argsMap(request)["files_changed"]; ok {
			b, _ := json.Marshal(raw)
			_ = json.Unmarshal(b, &filesChanged)
		}

		result, err := svc.CompleteTask(ctx, id, summary, filesChanged)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(result)
	}
}

func mergeTaskHandler(svc *taskservice.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := mcp.ParseString(request, "id", "")
		strategy := gitdriver.MergeStrategy(mcp.ParseString(request, "strategy", string(gitdriver.MergeStrategySquash)))

		result, err := svc.MergeTask(ctx, id, strategy)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(result)
	}
}

func cleanupTaskHandler(svc *taskservice.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := mcp.ParseString(request, "id", "")
		reason := mcp.ParseString(request, "reason", "")

		result, err := svc.CleanupTask(ctx, id, reason)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(result)
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
