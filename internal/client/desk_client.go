package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/kazz187/volunteerdesk/internal/assignment"
	"github.com/kazz187/volunteerdesk/internal/content"
	"github.com/kazz187/volunteerdesk/internal/task"
	"github.com/kazz187/volunteerdesk/internal/volunteer"
	"github.com/kazz187/volunteerdesk/internal/workload"
)

type contentResponse struct {
	Content *content.Record `json:"content"`
}

func (c *Client) CreateContent(ctx context.Context, title, kind string) (*content.Record, error) {
	var resp contentResponse
	err := c.do(ctx, http.MethodPost, "/content", nil, map[string]string{"title": title, "kind": kind}, &resp)
	return resp.Content, err
}

func (c *Client) GetContent(ctx context.Context, id string) (*content.Record, error) {
	var resp contentResponse
	err := c.do(ctx, http.MethodGet, "/content/"+url.PathEscape(id), nil, nil, &resp)
	return resp.Content, err
}

func (c *Client) CreateTask(ctx context.Context, contentID string, req task.CreateTaskRequest) (*content.Record, error) {
	var resp contentResponse
	err := c.do(ctx, http.MethodPost, "/content/"+url.PathEscape(contentID)+"/task", nil, req, &resp)
	return resp.Content, err
}

// AssignTask assigns the task to userID; an empty userID claims it for the
// caller.
func (c *Client) AssignTask(ctx context.Context, contentID, userID string, method task.AssignmentMethod) (*content.Record, error) {
	var resp contentResponse
	body := map[string]string{"user_id": userID, "method": string(method)}
	err := c.do(ctx, http.MethodPost, "/content/"+url.PathEscape(contentID)+"/task/assign", nil, body, &resp)
	return resp.Content, err
}

func (c *Client) UpdateTaskStatus(ctx context.Context, contentID string, status content.Status, actingUserID string) (*content.Record, error) {
	var resp contentResponse
	body := map[string]string{"status": string(status)}
	if actingUserID != "" {
		body["acting_user_id"] = actingUserID
	}
	err := c.do(ctx, http.MethodPost, "/content/"+url.PathEscape(contentID)+"/task/status", nil, body, &resp)
	return resp.Content, err
}

type tasksResponse struct {
	Tasks []*task.View `json:"tasks"`
}

func (c *Client) ListTasks(ctx context.Context, status content.Status, limit int) ([]*task.View, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", string(status))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var resp tasksResponse
	err := c.do(ctx, http.MethodGet, "/tasks", q, nil, &resp)
	return resp.Tasks, err
}

func (c *Client) UserTasks(ctx context.Context, userID string, status content.Status) ([]*task.View, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", string(status))
	}
	var resp tasksResponse
	err := c.do(ctx, http.MethodGet, "/volunteers/"+url.PathEscape(userID)+"/tasks", q, nil, &resp)
	return resp.Tasks, err
}

func (c *Client) TaskStatistics(ctx context.Context) (*task.Statistics, error) {
	var stats task.Statistics
	if err := c.do(ctx, http.MethodGet, "/tasks/stats", nil, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) Recommend(ctx context.Context, category content.Category, priority content.Priority, skills []string, maxCandidates int) ([]*assignment.Candidate, error) {
	q := url.Values{}
	q.Set("category", string(category))
	if priority != "" {
		q.Set("priority", string(priority))
	}
	if len(skills) > 0 {
		q.Set("skills", strings.Join(skills, ","))
	}
	if maxCandidates > 0 {
		q.Set("max", strconv.Itoa(maxCandidates))
	}
	var resp struct {
		Candidates []*assignment.Candidate `json:"candidates"`
	}
	err := c.do(ctx, http.MethodGet, "/recommendations", q, nil, &resp)
	return resp.Candidates, err
}

func (c *Client) AutoAssign(ctx context.Context, req assignment.AutoAssignRequest) (*assignment.Result, error) {
	var result assignment.Result
	if err := c.do(ctx, http.MethodPost, "/content/"+url.PathEscape(req.ContentID)+"/task/auto-assign", nil, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListVolunteers(ctx context.Context, tags []string, availability []volunteer.Availability) ([]*volunteer.Profile, error) {
	q := url.Values{}
	for _, t := range tags {
		q.Add("tag", t)
	}
	for _, a := range availability {
		q.Add("availability", string(a))
	}
	var resp struct {
		Volunteers []*volunteer.Profile `json:"volunteers"`
	}
	err := c.do(ctx, http.MethodGet, "/volunteers", q, nil, &resp)
	return resp.Volunteers, err
}

type volunteerResponse struct {
	Volunteer *volunteer.Profile `json:"volunteer"`
}

func (c *Client) PutVolunteer(ctx context.Context, p *volunteer.Profile) (*volunteer.Profile, error) {
	var resp volunteerResponse
	err := c.do(ctx, http.MethodPut, "/volunteers/"+url.PathEscape(p.ID), nil, p, &resp)
	return resp.Volunteer, err
}

func (c *Client) AddVolunteerTag(ctx context.Context, id, tag string) (*volunteer.Profile, error) {
	var resp volunteerResponse
	err := c.do(ctx, http.MethodPost, "/volunteers/"+url.PathEscape(id)+"/tags", nil, map[string]string{"tag": tag}, &resp)
	return resp.Volunteer, err
}

func (c *Client) RemoveVolunteerTag(ctx context.Context, id, tag string) (*volunteer.Profile, error) {
	var resp volunteerResponse
	err := c.do(ctx, http.MethodDelete, "/volunteers/"+url.PathEscape(id)+"/tags/"+url.PathEscape(tag), nil, nil, &resp)
	return resp.Volunteer, err
}

func (c *Client) Workloads(ctx context.Context) (map[string]*workload.Workload, error) {
	var resp struct {
		Workloads map[string]*workload.Workload `json:"workloads"`
	}
	err := c.do(ctx, http.MethodGet, "/workloads", nil, nil, &resp)
	return resp.Workloads, err
}
