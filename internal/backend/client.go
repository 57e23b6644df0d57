package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"admin-dashboard-bff/internal/entity"
)

// TokenSource yields the current session token, or "" when no session exists.
// The stores decide what an absent token means; the client just refuses to
// send unauthenticated requests.
type TokenSource func() string

// IClient is the admin backend REST boundary.
type IClient interface {
	CheckEmailAllowed(ctx context.Context, email string) (bool, error)
	MyWorkspaces(ctx context.Context) (*entity.WorkspaceList, error)
	RegisterOrg(ctx context.Context, email, userId string) (*entity.Workspace, error)
	CreateOrg(ctx context.Context, name, description string) (*entity.Workspace, error)
	OrgMembers(ctx context.Context, tenantId string) ([]entity.OrgMember, error)
	AddOrgUser(ctx context.Context, tenantId, email, role string) error
	OrgSettings(ctx context.Context, tenantId string) (*entity.OrgSettings, error)

	ListDocuments(ctx context.Context) ([]entity.Document, error)
	UploadDocument(ctx context.Context, fileName string, file io.Reader, industry string) (*entity.Document, error)
	DeleteDocument(ctx context.Context, documentId string) error
	TrainDocument(ctx context.Context, documentId string) error
	UntrainDocument(ctx context.Context, documentId string) error
}

type client struct {
	baseURL string
	token   TokenSource
	http    *http.Client
}

func NewClient(baseURL string, token TokenSource) IClient {
	return &client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

var ErrNoToken = fmt.Errorf("no auth token found")

type dataEnvelope[T any] struct {
	Data T `json:"data"`
}

// CheckEmailAllowed consults the sign-in allowlist. It runs before any
// session exists, so unlike every other call it goes out without a token.
func (c *client) CheckEmailAllowed(ctx context.Context, email string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/allowlist?email="+url.QueryEscape(email), nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("accept", "application/json")

	body, err := c.send(req)
	if err != nil {
		return false, err
	}
	var envelope dataEnvelope[struct {
		Allowed bool `json:"allowed"`
	}]
	if err := json.Unmarshal(body, &envelope); err != nil {
		return false, fmt.Errorf("decode allowlist response: %w", err)
	}
	return envelope.Data.Allowed, nil
}

func (c *client) MyWorkspaces(ctx context.Context) (*entity.WorkspaceList, error) {
	body, err := c.do(ctx, http.MethodGet, "/orgs/my-workspaces", nil, nil)
	if err != nil {
		return nil, err
	}
	var envelope dataEnvelope[entity.WorkspaceList]
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode workspace response: %w", err)
	}
	return &envelope.Data, nil
}

func (c *client) RegisterOrg(ctx context.Context, email, userId string) (*entity.Workspace, error) {
	payload := map[string]interface{}{"email": email, "id": userId}
	body, err := c.do(ctx, http.MethodPost, "/auth/register", payload, nil)
	if err != nil {
		return nil, err
	}
	var envelope dataEnvelope[entity.Workspace]
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode register response: %w", err)
	}
	return &envelope.Data, nil
}

func (c *client) CreateOrg(ctx context.Context, name, description string) (*entity.Workspace, error) {
	payload := map[string]interface{}{"name": name, "description": description}
	body, err := c.do(ctx, http.MethodPost, "/orgs", payload, nil)
	if err != nil {
		return nil, err
	}
	var envelope dataEnvelope[entity.Workspace]
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode create org response: %w", err)
	}
	return &envelope.Data, nil
}

func (c *client) OrgMembers(ctx context.Context, tenantId string) ([]entity.OrgMember, error) {
	headers := map[string]string{"x-tenant-id": tenantId}
	body, err := c.do(ctx, http.MethodGet, "/orgs/members", nil, headers)
	if err != nil {
		return nil, err
	}
	var envelope dataEnvelope[[]entity.OrgMember]
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode members response: %w", err)
	}
	return envelope.Data, nil
}

func (c *client) AddOrgUser(ctx context.Context, tenantId, email, role string) error {
	payload := map[string]interface{}{"email": email, "role": role}
	headers := map[string]string{"x-tenant-id": tenantId}
	_, err := c.do(ctx, http.MethodPost, "/orgs/users", payload, headers)
	return err
}

func (c *client) OrgSettings(ctx context.Context, tenantId string) (*entity.OrgSettings, error) {
	headers := map[string]string{"x-tenant-id": tenantId}
	body, err := c.do(ctx, http.MethodGet, "/orgs/settings", nil, headers)
	if err != nil {
		return nil, err
	}
	var envelope dataEnvelope[entity.OrgSettings]
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode org settings response: %w", err)
	}
	return &envelope.Data, nil
}

func (c *client) ListDocuments(ctx context.Context) ([]entity.Document, error) {
	body, err := c.do(ctx, http.MethodGet, "/admin/docs", nil, nil)
	if err != nil {
		return nil, err
	}
	var envelope dataEnvelope[[]entity.Document]
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode documents response: %w", err)
	}
	return envelope.Data, nil
}

func (c *client) UploadDocument(ctx context.Context, fileName string, file io.Reader, industry string) (*entity.Document, error) {
	token := c.token()
	if token == "" {
		return nil, ErrNoToken
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, err
	}
	if industry != "" {
		if err := writer.WriteField("industry", industry); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/admin/docs/upload", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("access_token", token)
	if industry != "" {
		req.Header.Set("x-industry", industry)
	}

	body, err := c.send(req)
	if err != nil {
		return nil, err
	}
	var envelope dataEnvelope[entity.Document]
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	return &envelope.Data, nil
}

func (c *client) DeleteDocument(ctx context.Context, documentId string) error {
	_, err := c.do(ctx, http.MethodDelete, "/admin/docs/"+documentId, nil, nil)
	return err
}

func (c *client) TrainDocument(ctx context.Context, documentId string) error {
	payload := map[string]interface{}{"documentId": documentId}
	_, err := c.do(ctx, http.MethodPost, "/admin/embeddings", payload, nil)
	return err
}

func (c *client) UntrainDocument(ctx context.Context, documentId string) error {
	payload := map[string]interface{}{"documentId": documentId}
	_, err := c.do(ctx, http.MethodPost, "/admin/embeddings/unembed", payload, nil)
	return err
}

func (c *client) do(ctx context.Context, method, path string, payload map[string]interface{}, headers map[string]string) ([]byte, error) {
	token := c.token()
	if token == "" {
		return nil, ErrNoToken
	}

	var reqBody io.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("access_token", token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return c.send(req)
}

type apiError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// send executes the request and normalizes error responses: the server's
// message field when present, else a generic HTTP failure line.
func (c *client) send(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var ae apiError
		if json.Unmarshal(body, &ae) == nil {
			if ae.Message != "" {
				return nil, fmt.Errorf("%s", ae.Message)
			}
			if ae.Error != "" {
				return nil, fmt.Errorf("%s", ae.Error)
			}
		}
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return body, nil
}
