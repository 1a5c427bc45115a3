package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/prescripto/prescripto/internal/constants"
	apperr "github.com/prescripto/prescripto/internal/errors"
	"github.com/prescripto/prescripto/internal/models"
)

var (
	// ErrImageTooLarge is returned when a profile image exceeds the upload limit
	ErrImageTooLarge = errors.New("image size should be less than 5MB")
	// ErrNotAnImage is returned when the upload does not look like an image
	ErrNotAnImage = errors.New("please upload an image file")
)

type credentials struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type profileResponse struct {
	User models.UserProfile `json:"user"`
}

type imageResponse struct {
	ImageURL string `json:"imageUrl"`
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	return c.authenticate(ctx, "/api/user/login", credentials{Email: email, Password: password})
}

// Register creates an account and returns its session token.
func (c *Client) Register(ctx context.Context, name, email, password string) (string, error) {
	return c.authenticate(ctx, "/api/user/register", credentials{Name: name, Email: email, Password: password})
}

func (c *Client) authenticate(ctx context.Context, path string, creds credentials) (string, error) {
	var resp tokenResponse
	if err := c.postJSON(ctx, path, "", creds, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", apperr.Rejected(http.StatusOK, "server did not return a session token")
	}
	return resp.Token, nil
}

// GetProfile fetches the logged-in user's profile.
func (c *Client) GetProfile(ctx context.Context, token string) (models.UserProfile, error) {
	if token == "" {
		return models.UserProfile{}, apperr.ErrNotAuthenticated
	}
	var resp profileResponse
	if err := c.getJSON(ctx, "/api/user/get-profile", token, &resp); err != nil {
		return models.UserProfile{}, err
	}
	return resp.User, nil
}

// UpdateProfile submits the editable profile fields.
func (c *Client) UpdateProfile(ctx context.Context, token string, p models.UserProfile) error {
	if token == "" {
		return apperr.ErrNotAuthenticated
	}
	return c.postJSON(ctx, "/api/user/update-profile", token, p, nil)
}

// UploadProfileImage sends an image as the multipart field "image" and
// returns the URL the backend stored it under.
func (c *Client) UploadProfileImage(ctx context.Context, token, filename string, r io.Reader) (string, error) {
	if token == "" {
		return "", apperr.ErrNotAuthenticated
	}

	data, err := io.ReadAll(io.LimitReader(r, constants.MaxProfileImageBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > constants.MaxProfileImageBytes {
		return "", ErrImageTooLarge
	}
	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", ErrNotAnImage
	}
	contentType := mtype.String()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filepath.Base(filename)))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}

	var resp imageResponse
	if err := c.do(ctx, http.MethodPost, "/api/user/upload-profile-image", token, &buf, mw.FormDataContentType(), &resp); err != nil {
		return "", err
	}
	return resp.ImageURL, nil
}
