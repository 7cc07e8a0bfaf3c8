package api

import "context"

func (c *Client) CreateTask(ctx context.Context, owner, description string) (string, error) {
	var resp struct {
		Task string `json:"task"`
	}
	err := c.call(ctx, "Task", "createTask", map[string]string{
		"owner":       owner,
		"description": description,
	}, &resp)
	return resp.Task, err
}

func (c *Client) UpdateTaskDescription(ctx context.Context, task, description string) error {
	return c.call(ctx, "Task", "updateTaskDescription", map[string]string{
		"task":        task,
		"description": description,
	}, nil)
}

func (c *Client) DeleteTask(ctx context.Context, task string) error {
	return c.call(ctx, "Task", "deleteTask", map[string]string{"task": task}, nil)
}

func (c *Client) Tasks(ctx context.Context, owner string) ([]Task, error) {
	var rows []Task
	if err := c.call(ctx, "Task", "_getTasks", map[string]string{"owner": owner}, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// AddToChecklist creates the checklist entry for task under owner.
func (c *Client) AddToChecklist(ctx context.Context, owner, task string) error {
	return c.call(ctx, "TaskChecklist", "addTask", map[string]string{"owner": owner, "task": task}, nil)
}

func (c *Client) RemoveFromChecklist(ctx context.Context, owner, task string) error {
	return c.call(ctx, "TaskChecklist", "removeTask", map[string]string{"owner": owner, "task": task}, nil)
}

func (c *Client) MarkComplete(ctx context.Context, owner, task string) error {
	return c.call(ctx, "TaskChecklist", "markComplete", map[string]string{"owner": owner, "task": task}, nil)
}

func (c *Client) MarkIncomplete(ctx context.Context, owner, task string) error {
	return c.call(ctx, "TaskChecklist", "markIncomplete", map[string]string{"owner": owner, "task": task}, nil)
}

func (c *Client) Checklist(ctx context.Context, owner string) ([]ChecklistEntry, error) {
	var rows []ChecklistEntry
	if err := c.call(ctx, "TaskChecklist", "_getChecklist", map[string]string{"owner": owner}, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
