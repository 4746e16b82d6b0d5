package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/a-h/bedrockrag/models"
	"github.com/a-h/jsonapi"
)

func New(baseURL, apiKey string) Client {
	return Client{
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// Client calls the HTTP API exposed by the serve command.
type Client struct {
	baseURL string
	apiKey  string
}

func (c Client) QueryPost(ctx context.Context, req models.QueryPostRequest) (resp models.QueryPostResponse, err error) {
	url, err := jsonapi.URL(c.baseURL).Path("query").String()
	if err != nil {
		return resp, err
	}
	return jsonapi.Post[models.QueryPostRequest, models.QueryPostResponse](ctx, url, req, jsonapi.WithRequestHeader("Authorization", c.apiKey))
}

func (c Client) ComparePost(ctx context.Context, req models.ComparePostRequest) (resp models.ComparePostResponse, err error) {
	url, err := jsonapi.URL(c.baseURL).Path("compare").String()
	if err != nil {
		return resp, err
	}
	return jsonapi.Post[models.ComparePostRequest, models.ComparePostResponse](ctx, url, req, jsonapi.WithRequestHeader("Authorization", c.apiKey))
}

func (c Client) ContextPost(ctx context.Context, req models.ContextPostRequest) (resp models.ContextPostResponse, err error) {
	url, err := jsonapi.URL(c.baseURL).Path("context").String()
	if err != nil {
		return resp, err
	}
	return jsonapi.Post[models.ContextPostRequest, models.ContextPostResponse](ctx, url, req, jsonapi.WithRequestHeader("Authorization", c.apiKey))
}

func (c Client) StatusGet(ctx context.Context) (resp models.StatusGetResponse, err error) {
	url, err := jsonapi.URL(c.baseURL).Path("status").String()
	if err != nil {
		return resp, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return resp, fmt.Errorf("failed to create request: %w", err)
	}
	err = c.do(httpReq, &resp)
	return resp, err
}

// DocumentsPost uploads a PDF as a multipart form.
func (c Client) DocumentsPost(ctx context.Context, fileName string, r io.Reader) (resp models.DocumentsPostResponse, err error) {
	url, err := jsonapi.URL(c.baseURL).Path("documents").String()
	if err != nil {
		return resp, err
	}
	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return resp, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err = io.Copy(fw, r); err != nil {
		return resp, fmt.Errorf("failed to write form file: %w", err)
	}
	if err = mw.Close(); err != nil {
		return resp, fmt.Errorf("failed to close form: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return resp, fmt.Errorf("failed to create request: %w", err)
	}
	err = c.do(httpReq, &resp, jsonapi.WithContentType(mw.FormDataContentType()))
	return resp, err
}

func (c Client) do(httpReq *http.Request, v any, opts ...jsonapi.Opt) (err error) {
	opts = append([]jsonapi.Opt{jsonapi.WithRequestHeader("Authorization", c.apiKey)}, opts...)
	res, err := jsonapi.Raw(httpReq, opts...)
	if err != nil {
		return fmt.Errorf("failed to perform HTTP request: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(res.Body)
		return jsonapi.InvalidStatusError{
			Status: res.StatusCode,
			Body:   string(body),
		}
	}
	if err = json.NewDecoder(res.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
