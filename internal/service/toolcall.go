package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"amalajeun/internal/model"
	"amalajeun/internal/utils"
)

// ErrIncompleteDraft reports a submit attempt with required fields absent.
// The state machine gates submission on a complete draft, so hitting this is
// an internal-consistency error, never a user-facing one.
var ErrIncompleteDraft = errors.New("draft is missing required fields")

// SubmissionFailure wraps a rejected or unreachable create request. Its
// Reason is safe to surface to the conversation; raw transport detail stays
// in Err.
type SubmissionFailure struct {
	Reason string
	Err    error
}

func (f *SubmissionFailure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("submission failed: %s", f.Reason)
	}
	return fmt.Sprintf("submission failed: %s: %v", f.Reason, f.Err)
}

func (f *SubmissionFailure) Unwrap() error { return f.Err }

// SpotCreator is the storage boundary consumed by the submit contract.
type SpotCreator interface {
	Create(ctx context.Context, req *model.CreateSpotRequest, accessToken string) (*model.Spot, error)
}

// SubmitContract validates a confirmed draft, injects the session-scoped
// fields the user is never asked for, and performs the single create request
// against the storage boundary.
type SubmitContract struct {
	spots  SpotCreator
	logger *utils.Logger
}

// NewSubmitContract creates a new submit contract.
func NewSubmitContract(spots SpotCreator, logger *utils.Logger) *SubmitContract {
	return &SubmitContract{spots: spots, logger: logger}
}

// Execute performs one create request for the draft. It returns the
// persisted spot on a created response, ErrIncompleteDraft if a required
// field is absent, or a *SubmissionFailure for any other outcome. The caller
// is responsible for invoking it at most once per confirmation.
func (c *SubmitContract) Execute(ctx context.Context, draft model.Draft, session model.SessionContext) (*model.Spot, error) {
	if !draft.AllRequiredPresent() {
		c.logger.Error("submit contract invoked with incomplete draft, missing: %v", draft.MissingFields())
		return nil, ErrIncompleteDraft
	}

	if *draft.Price < 0 {
		return nil, fmt.Errorf("%w: negative price", ErrIncompleteDraft)
	}
	if *draft.Latitude < -90 || *draft.Latitude > 90 || *draft.Longitude < -180 || *draft.Longitude > 180 {
		return nil, fmt.Errorf("%w: coordinates out of range", ErrIncompleteDraft)
	}

	opening := *draft.OpeningTime
	if _, err := ParseClock(opening); err != nil {
		opening = DefaultOpeningTime
	}
	closing := *draft.ClosingTime
	if _, err := ParseClock(closing); err != nil {
		closing = DefaultClosingTime
	}

	req := &model.CreateSpotRequest{
		Name:        *draft.Name,
		Address:     *draft.Address,
		Latitude:    *draft.Latitude,
		Longitude:   *draft.Longitude,
		OpeningTime: opening,
		ClosingTime: closing,
		Price:       *draft.Price,
		DineIn:      *draft.DineIn,
		UserID:      session.UserID,
		AddedBy:     session.AddedBy,
		Source:      string(model.SourceUser),
	}

	spot, err := c.spots.Create(ctx, req, session.AccessToken)
	if err != nil {
		return nil, &SubmissionFailure{
			Reason: "the spot could not be saved right now",
			Err:    err,
		}
	}

	return spot, nil
}

// SpotsClient is an HTTP client for the spot storage service.
type SpotsClient struct {
	baseURL    string
	httpClient *http.Client
	retry      *utils.RetryConfig
}

// NewSpotsClient creates a new spots storage client.
func NewSpotsClient(baseURL string, timeout time.Duration, logger *utils.Logger) *SpotsClient {
	return &SpotsClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		retry: &utils.RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   500 * time.Millisecond,
			Logger:      logger,
		},
	}
}

// Create posts a single create request. Deliberately no retry: the intake
// protocol guarantees at-most-once submission and a blind retry could
// double-create.
func (c *SpotsClient) Create(ctx context.Context, req *model.CreateSpotRequest, accessToken string) (*model.Spot, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal create request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/spots", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send create request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("create request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var created struct {
		Ok   bool        `json:"ok"`
		Spot *model.Spot `json:"spot"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("failed to unmarshal created spot: %w", err)
	}
	if !created.Ok || created.Spot == nil {
		return nil, fmt.Errorf("create response missing spot: %s", string(body))
	}

	return created.Spot, nil
}

// List fetches the full spot collection. The read path retries with
// back-off; listing is idempotent.
func (c *SpotsClient) List(ctx context.Context) ([]model.Spot, error) {
	var listing struct {
		Spots []model.Spot `json:"spots"`
		Total int          `json:"total"`
	}

	err := c.retry.Do("list spots", func() error {
		httpReq, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/spots", nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return fmt.Errorf("failed to send list request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("list request failed with status %d: %s", resp.StatusCode, string(body))
		}

		return json.NewDecoder(resp.Body).Decode(&listing)
	})
	if err != nil {
		return nil, err
	}

	return listing.Spots, nil
}
