package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"

	"go.uber.org/zap"
)

type userResponse struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address   string `json:"address"`
}

type IdentityClient struct {
	rest restClient
}

func NewIdentityClient(baseURL string, timeout time.Duration, log *zap.Logger) *IdentityClient {
	return &IdentityClient{rest: newRESTClient("identity", baseURL, timeout, log)}
}

var _ usecase.IdentityClient = (*IdentityClient)(nil)

func (c *IdentityClient) GetUser(ctx context.Context, userID int64) (model.UserSnapshot, error) {
	var out userResponse
	if err := c.rest.do(ctx, http.MethodGet, fmt.Sprintf("/api/users/%d", userID), nil, &out); err != nil {
		return model.UserSnapshot{}, classify(err, false)
	}
	return model.UserSnapshot{
		ID:          out.ID,
		Email:       out.Email,
		DisplayName: strings.TrimSpace(out.FirstName + " " + out.LastName),
		Address:     out.Address,
	}, nil
}
