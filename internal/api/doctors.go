package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/prescripto/prescripto/internal/models"
)

type doctorsResponse struct {
	Doctors []models.Doctor `json:"doctors"`
}

// ListDoctors fetches the full doctor directory, booking maps included.
// A timestamp query parameter defeats intermediate caches.
func (c *Client) ListDoctors(ctx context.Context) ([]models.Doctor, error) {
	q := url.Values{}
	q.Set("_", fmt.Sprintf("%d", c.now().UnixMilli()))

	var resp doctorsResponse
	if err := c.getJSON(ctx, "/api/doctor/list?"+q.Encode(), "", &resp); err != nil {
		return nil, err
	}
	if resp.Doctors == nil {
		resp.Doctors = []models.Doctor{}
	}
	return resp.Doctors, nil
}
