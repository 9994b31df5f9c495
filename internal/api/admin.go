package api

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"strings"

	"go.uber.org/zap"
)

// ErrMissingToken is returned by the admin operations that need a login
// token when none was given.
var ErrMissingToken = errors.New("admin token is required")

type adminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AdminSession is the result of a successful admin login. ExpiresIn is in
// seconds.
type AdminSession struct {
	Token     string `json:"token"`
	Message   string `json:"message,omitempty"`
	ExpiresIn int    `json:"expires_in"`
}

// AdminResult is the backend's reply to an upload or a knowledge-base build.
type AdminResult struct {
	Message string `json:"message"`
	Output  string `json:"output,omitempty"`
}

// AdminLogin exchanges admin credentials for a bearer token. Bad credentials
// come back as a *RequestError with status 401.
func (c *Client) AdminLogin(ctx context.Context, username, password string) (AdminSession, error) {
	path := c.paths.AdminLogin
	res := Then(c.fetch(ctx, path, adminLoginRequest{Username: username, Password: password}), decodeJSON[AdminSession](path))
	session, err := Then(res, func(s AdminSession) (AdminSession, error) {
		if strings.TrimSpace(s.Token) == "" {
			return s, &FormatError{Path: path, Reason: "login response has no token"}
		}
		return s, nil
	}).Unwrap()
	if err != nil {
		c.logger.Warn("admin login failed", zap.String("username", username), zap.Error(err))
		return AdminSession{}, err
	}
	return session, nil
}

// UploadPDF sends one document to the knowledge-base folder as the multipart
// field "file", authorized with token.
func (c *Client) UploadPDF(ctx context.Context, token, filename string, file io.Reader) (AdminResult, error) {
	if strings.TrimSpace(token) == "" {
		return AdminResult{}, ErrMissingToken
	}
	path := c.paths.UploadPDF

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filename)
		if err == nil {
			_, err = io.Copy(part, file)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	res := c.post(ctx, withToken(c.plain, token), path, mw.FormDataContentType(), pr)
	// Unblocks the writer if the request ended before the body was consumed.
	pr.Close()

	out, err := Then(Then(res, readBody(path)), decodeJSON[AdminResult](path)).Unwrap()
	if err != nil {
		c.logger.Error("upload pdf failed", zap.String("file", filename), zap.Error(err))
		return AdminResult{}, err
	}
	c.logger.Info("pdf uploaded", zap.String("file", filename))
	return out, nil
}

// CreateRAG asks the backend to rebuild the retrieval knowledge base from
// the uploaded documents.
func (c *Client) CreateRAG(ctx context.Context, token string) (AdminResult, error) {
	if strings.TrimSpace(token) == "" {
		return AdminResult{}, ErrMissingToken
	}
	path := c.paths.CreateRAG
	res := c.post(ctx, withToken(c.plain, token), path, "application/json", strings.NewReader("{}"))
	out, err := Then(Then(res, readBody(path)), decodeJSON[AdminResult](path)).Unwrap()
	if err != nil {
		c.logger.Error("create rag failed", zap.Error(err))
		return AdminResult{}, err
	}
	return out, nil
}

// BearerToken reads the token from an "Authorization: Bearer" header value.
func BearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
